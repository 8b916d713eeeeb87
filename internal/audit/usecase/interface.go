// Package usecase implements the audit trail manager: risk-scored event
// logging, violation detection, queries, and compliance reporting.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/medguard/compliance/internal/audit/domain"
)

// AuditLogRepository defines the append-only audit store interface.
type AuditLogRepository interface {
	// Store appends an entry. Duplicate event ids conflict rather than
	// overwrite.
	Store(ctx context.Context, entry *auditDomain.AuditLog) error

	// ListByDateRange returns entries with from <= timestamp <= to,
	// oldest first.
	ListByDateRange(ctx context.Context, from, to time.Time) ([]*auditDomain.AuditLog, error)

	// ListByPatient returns entries concerning the patient, optionally
	// bounded by time.
	ListByPatient(ctx context.Context, patientID string, from, to *time.Time) ([]*auditDomain.AuditLog, error)

	// ListByUser returns entries produced by the user, optionally bounded
	// by time.
	ListByUser(ctx context.Context, userID string, from, to *time.Time) ([]*auditDomain.AuditLog, error)

	// Search returns entries matching every set criterion.
	Search(ctx context.Context, criteria auditDomain.SearchCriteria) ([]*auditDomain.AuditLog, error)

	// DeleteOlderThan removes entries older than the cutoff and returns how
	// many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ViolationRepository defines the violation store interface.
type ViolationRepository interface {
	// Store appends a violation.
	Store(ctx context.Context, violation *auditDomain.Violation) error

	// ListByDateRange returns violations with from <= timestamp <= to.
	ListByDateRange(ctx context.Context, from, to time.Time) ([]*auditDomain.Violation, error)

	// ListUnresolved returns violations not yet marked resolved.
	ListUnresolved(ctx context.Context) ([]*auditDomain.Violation, error)

	// Resolve marks a violation resolved.
	Resolve(ctx context.Context, violationID uuid.UUID) error

	// DeleteOlderThan removes resolved violations older than the cutoff and
	// returns how many were removed. Unresolved violations are kept until
	// someone resolves them.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// LogEventInput carries the caller-supplied attributes of an audited action.
// Event id, timestamp, risk score, and review flag are filled in by the use
// case.
type LogEventInput struct {
	UserID       string
	UserRole     string
	EventType    auditDomain.EventType
	ResourceType string
	ResourceID   string
	Action       string
	Outcome      auditDomain.Outcome
	IPAddress    string
	UserAgent    string
	SessionID    string
	PHIAccessed  bool
	Context      *auditDomain.AccessContext
}

// AuditTrailUseCase defines the audit trail manager interface.
type AuditTrailUseCase interface {
	// LogEvent scores, persists, and violation-checks one audited action.
	// The entry is marked for review when any violation fires or the risk
	// score reaches the configured threshold. A persistence failure returns
	// ErrAuditWriteFailed; the event is never silently dropped.
	LogEvent(ctx context.Context, input LogEventInput) (*auditDomain.AuditLog, error)

	// LogPatientAccess logs access to a patient record as PHI access.
	LogPatientAccess(
		ctx context.Context,
		input LogEventInput,
		patientID string,
		dataFields []string,
	) (*auditDomain.AuditLog, error)

	// LogMedicalRecordAccess logs access to a clinical record as PHI access.
	LogMedicalRecordAccess(
		ctx context.Context,
		input LogEventInput,
		recordID string,
		patientID string,
	) (*auditDomain.AuditLog, error)

	// GetPatientAuditTrail returns the entries concerning a patient,
	// optionally date-bounded.
	GetPatientAuditTrail(
		ctx context.Context,
		patientID string,
		from, to *time.Time,
	) ([]*auditDomain.AuditLog, error)

	// GetUserAuditTrail returns the entries produced by a user, optionally
	// date-bounded.
	GetUserAuditTrail(
		ctx context.Context,
		userID string,
		from, to *time.Time,
	) ([]*auditDomain.AuditLog, error)

	// SearchAuditLogs runs a multi-criteria query.
	SearchAuditLogs(
		ctx context.Context,
		criteria auditDomain.SearchCriteria,
	) ([]*auditDomain.AuditLog, error)

	// GenerateComplianceReport summarizes the audit trail over a window.
	GenerateComplianceReport(
		ctx context.Context,
		from, to time.Time,
		includeDetails bool,
	) (*ComplianceReport, error)

	// ListOpenViolations returns the violations not yet marked resolved.
	ListOpenViolations(ctx context.Context) ([]*auditDomain.Violation, error)

	// ResolveViolation marks a violation resolved after review.
	ResolveViolation(ctx context.Context, violationID uuid.UUID) error

	// CleanupExpired removes entries past the retention period and returns
	// how many were removed.
	CleanupExpired(ctx context.Context, retention time.Duration) (int64, error)
}
