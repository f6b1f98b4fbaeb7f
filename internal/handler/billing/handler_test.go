package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/httputil"
)

type fakeBilling struct {
	bills map[uuid.UUID]*model.Bill
	payer string
}

func (f *fakeBilling) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.Bill, error) {
	var out []*model.Bill
	for _, b := range f.bills {
		if b.PatientID == patientID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBilling) ListUnpaid(context.Context) ([]*model.Bill, error) {
	var out []*model.Bill
	for _, b := range f.bills {
		if !b.Paid {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBilling) MarkPaid(_ context.Context, id uuid.UUID, actorID string) (*model.Bill, error) {
	b, ok := f.bills[id]
	if !ok {
		return nil, apperrors.NewNotFound("bill", nil)
	}
	if b.Paid {
		return nil, apperrors.NewConflict("bill already paid", nil)
	}
	b.Paid = true
	f.payer = actorID
	return b, nil
}

func setupRouter(svc BillingServicer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(httputil.ActorKey, "clerk-1")
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(r)
	return r
}

func TestBillingHandler(t *testing.T) {
	patientID := uuid.New()
	billID := uuid.New()
	svc := &fakeBilling{bills: map[uuid.UUID]*model.Bill{
		billID: {ID: billID, PatientID: patientID, Amount: decimal.RequireFromString("50.00")},
	}}
	r := setupRouter(svc)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantCount  int
	}{
		{"patient bills", http.MethodGet, "/patients/" + patientID.String() + "/bills", http.StatusOK, 1},
		{"other patient has none", http.MethodGet, "/patients/" + uuid.NewString() + "/bills", http.StatusOK, 0},
		{"bad patient id", http.MethodGet, "/patients/nope/bills", http.StatusBadRequest, -1},
		{"unpaid before paying", http.MethodGet, "/bills/unpaid", http.StatusOK, 1},
		{"pay", http.MethodPost, "/bills/" + billID.String() + "/pay", http.StatusOK, -1},
		{"pay twice", http.MethodPost, "/bills/" + billID.String() + "/pay", http.StatusConflict, -1},
		{"unpaid after paying", http.MethodGet, "/bills/unpaid", http.StatusOK, 0},
		{"unknown bill", http.MethodPost, "/bills/" + uuid.NewString() + "/pay", http.StatusNotFound, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantCount < 0 {
				return
			}
			var resp struct {
				Data []map[string]interface{} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Len(t, resp.Data, tt.wantCount)
		})
	}
	assert.Equal(t, "clerk-1", svc.payer)
}
