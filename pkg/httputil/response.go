package httputil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-scheduler/pkg/validator"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type statusCoder interface {
	StatusCode() int
}

// detailer is implemented by errors that carry structured context for the
// client, such as an alternative slot offer.
type detailer interface {
	Details() map[string]interface{}
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Status: "success", Data: data})
}

// RespondCreated sends a 201 success response
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Status: "success", Data: data})
}

// RespondBadRequest is used for malformed input caught in the handler itself.
func RespondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Status: "error", Message: message})
}

// RespondWithError sends an error response, taking the status from the error
// chain when any error in it knows its own status code.
func RespondWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	var sc statusCoder
	if errors.As(err, &sc) {
		status = sc.StatusCode()
		message = err.Error()
	}

	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString("request_id")).
			Msg("request failed")
	}

	resp := Response{Status: "error", Message: message}
	var d detailer
	if errors.As(err, &d) {
		resp.Data = d.Details()
	}
	c.JSON(status, resp)
}

// ActorKey is the gin context key holding the authenticated subject.
const ActorKey = "actor_id"

// ActorID returns the authenticated subject, or "" for anonymous requests.
func ActorID(c *gin.Context) string {
	return c.GetString(ActorKey)
}

// BindAndValidate decodes the JSON body into req and runs its validate tags.
func BindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		RespondBadRequest(c, err.Error())
		return false
	}
	if err := validator.New().Validate(req); err != nil {
		RespondBadRequest(c, err.Error())
		return false
	}
	return true
}

// ParamUUID parses a uuid path parameter, answering 400 when it is malformed.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondBadRequest(c, fmt.Sprintf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}
