package domain

import (
	"time"

	"github.com/google/uuid"
)

// ViolationType classifies a detected compliance violation.
type ViolationType string

const (
	ViolationUnauthorizedAccess ViolationType = "unauthorized_access"
	ViolationAfterHoursAccess   ViolationType = "after_hours_phi_access"
	ViolationBulkExport         ViolationType = "bulk_export"
)

// ViolationSeverity ranks a violation.
type ViolationSeverity string

const (
	ViolationSeverityMedium ViolationSeverity = "medium"
	ViolationSeverityHigh   ViolationSeverity = "high"
)

// Violation is a compliance violation derived from one audit log entry.
// Created unresolved; resolution happens outside this core.
type Violation struct {
	ViolationID          uuid.UUID         `json:"violationId"`
	EventID              uuid.UUID         `json:"eventId"`
	Timestamp            time.Time         `json:"timestamp"`
	ViolationType        ViolationType     `json:"violationType"`
	Severity             ViolationSeverity `json:"severity"`
	Description          string            `json:"description"`
	AffectedResources    []string          `json:"affectedResources,omitempty"`
	UserID               string            `json:"userId"`
	RequiresNotification bool              `json:"requiresNotification"`
	Resolved             bool              `json:"resolved"`
}
