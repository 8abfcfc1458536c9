package entity

import (
	"encoding/json"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditActionCreate  AuditAction = "CREATE"
	AuditActionUpdate  AuditAction = "UPDATE"
	AuditActionDelete  AuditAction = "DELETE"
	AuditActionView    AuditAction = "VIEW"
	AuditActionWebhook AuditAction = "WEBHOOK"
)

// AuditLog records one side-effecting event. Webhook events are logged
// before processing so a failed handler still leaves a trace.
type AuditLog struct {
	BaseSimple
	UserID   *uuid.UUID      `db:"user_id"`
	Action   AuditAction     `db:"action"`
	Entity   string          `db:"entity"`
	EntityID *string         `db:"entity_id"`
	Metadata json.RawMessage `db:"metadata"`
}
