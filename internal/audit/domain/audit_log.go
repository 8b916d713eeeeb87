// Package domain defines the audit trail types: audit log entries, detected
// violations, risk factors, and the business-hours policy.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies an audited action.
type EventType string

const (
	EventView               EventType = "view"
	EventCreate             EventType = "create"
	EventUpdate             EventType = "update"
	EventDelete             EventType = "delete"
	EventDataExport         EventType = "data_export"
	EventBulkExport         EventType = "bulk_export"
	EventUnauthorizedAccess EventType = "unauthorized_access"
	EventLogin              EventType = "login"
	EventLogout             EventType = "logout"
)

// HighRisk reports whether the event type belongs to the high-risk set.
func (e EventType) HighRisk() bool {
	switch e {
	case EventBulkExport, EventDelete, EventUnauthorizedAccess, EventDataExport:
		return true
	default:
		return false
	}
}

// Outcome is the result of an audited action.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// AccessContext carries the optional circumstances of an audited access.
type AccessContext struct {
	PatientID             string   `json:"patientId,omitempty"`
	DataFields            []string `json:"dataFields,omitempty"`
	BusinessJustification string   `json:"businessJustification,omitempty"`
	EmergencyAccess       bool     `json:"emergencyAccess,omitempty"`
}

// AuditLog is one append-only audit trail entry. Created once by the audit
// trail use case and immutable thereafter.
type AuditLog struct {
	EventID        uuid.UUID      `json:"eventId"`
	Timestamp      time.Time      `json:"timestamp"`
	UserID         string         `json:"userId"`
	UserRole       string         `json:"userRole"`
	EventType      EventType      `json:"eventType"`
	ResourceType   string         `json:"resourceType"`
	ResourceID     string         `json:"resourceId,omitempty"`
	Action         string         `json:"action"`
	Outcome        Outcome        `json:"outcome"`
	IPAddress      string         `json:"ipAddress,omitempty"`
	UserAgent      string         `json:"userAgent,omitempty"`
	SessionID      string         `json:"sessionId,omitempty"`
	PHIAccessed    bool           `json:"phiAccessed"`
	RiskScore      int            `json:"riskScore"`
	Context        *AccessContext `json:"context,omitempty"`
	RequiresReview bool           `json:"requiresReview,omitempty"`
}

// EmergencyAccess reports whether the entry is flagged as emergency access.
func (a *AuditLog) EmergencyAccess() bool {
	return a.Context != nil && a.Context.EmergencyAccess
}

// PatientID returns the patient the entry concerns, if any.
func (a *AuditLog) PatientID() string {
	if a.Context == nil {
		return ""
	}
	return a.Context.PatientID
}

// NewEventID returns a time-ordered unique event id.
func NewEventID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}
