package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	ActorID    string          `json:"actor_id" db:"actor_id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id" db:"entity_id"`
	Metadata   json.RawMessage `json:"metadata" db:"metadata"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

const (
	// Action types
	AuditActionCreate   = "create"
	AuditActionSchedule = "schedule"
	AuditActionRegister = "register"
	AuditActionPay      = "pay"

	// Entity types
	AuditEntityClinic        = "clinic"
	AuditEntityClinician     = "clinician"
	AuditEntityPatient       = "patient"
	AuditEntityService       = "service"
	AuditEntityAppointment   = "appointment"
	AuditEntityBill          = "bill"
	AuditEntityMedicalRecord = "medical_record"
)
