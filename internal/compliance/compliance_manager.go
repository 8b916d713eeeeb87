// Package compliance orchestrates the secure patient data workflows:
// sanitize, validate, encrypt, and audit-log as one unit. Audit write
// failures block the surrounding operation; access without an audit trail is
// itself a compliance violation.
package compliance

import (
	"context"
	"strings"

	auditDomain "github.com/medguard/compliance/internal/audit/domain"
	auditUsecase "github.com/medguard/compliance/internal/audit/usecase"
	cryptoDomain "github.com/medguard/compliance/internal/crypto/domain"
	cryptoUsecase "github.com/medguard/compliance/internal/crypto/usecase"
	apperrors "github.com/medguard/compliance/internal/errors"
	sanitizeService "github.com/medguard/compliance/internal/sanitize/service"
	"github.com/medguard/compliance/internal/validation"
)

// Actor identifies who performs a compliance-managed operation.
type Actor struct {
	UserID    string
	UserRole  string
	IPAddress string
	UserAgent string
	SessionID string
}

// WriteResult carries the outcome of a secure patient write.
type WriteResult struct {
	Record     *cryptoDomain.Record
	AuditEntry *auditDomain.AuditLog
}

// ReadResult carries the outcome of a secure patient read.
type ReadResult struct {
	Record     *cryptoDomain.Record
	AuditEntry *auditDomain.AuditLog
}

// Manager runs patient data operations through the full compliance pipeline.
type Manager struct {
	sanitizer  sanitizeService.Sanitizer
	patients   cryptoUsecase.PatientUseCase
	auditTrail auditUsecase.AuditTrailUseCase
}

// NewManager creates a compliance Manager.
func NewManager(
	sanitizer sanitizeService.Sanitizer,
	patients cryptoUsecase.PatientUseCase,
	auditTrail auditUsecase.AuditTrailUseCase,
) *Manager {
	return &Manager{
		sanitizer:  sanitizer,
		patients:   patients,
		auditTrail: auditTrail,
	}
}

// SecurePatientWrite sanitizes and validates the patient fields, encrypts the
// PHI, and audit-logs the write. Sanitization or validation failures abort
// before encryption and log a failure event instead.
func (m *Manager) SecurePatientWrite(
	ctx context.Context,
	actor Actor,
	fields map[string]string,
) (*WriteResult, error) {
	patientID := fields["patientId"]

	validated := m.sanitizer.ValidatePatientData(fields)
	if !validated.IsValid {
		if _, logErr := m.logWrite(ctx, actor, patientID, fields, auditDomain.OutcomeFailure); logErr != nil {
			return nil, logErr
		}
		return nil, apperrors.Wrap(
			apperrors.ErrInvalidInput,
			"patient data rejected: "+strings.Join(validated.Errors, "; "),
		)
	}

	// Structural validation runs on the sanitized values.
	structural := validation.ValidatePatient(validation.Patient{
		FirstName:   validated.SanitizedData["firstName"],
		LastName:    validated.SanitizedData["lastName"],
		MiddleName:  validated.SanitizedData["middleName"],
		DateOfBirth: validated.SanitizedData["dateOfBirth"],
		SSN:         validated.SanitizedData["ssn"],
		Email:       validated.SanitizedData["email"],
		Phone:       validated.SanitizedData["phone"],
		ZipCode:     validated.SanitizedData["zipCode"],
	})
	if !structural.Valid {
		if _, logErr := m.logWrite(ctx, actor, patientID, fields, auditDomain.OutcomeFailure); logErr != nil {
			return nil, logErr
		}
		return nil, apperrors.Wrap(
			apperrors.ErrInvalidInput,
			"patient data rejected: "+joinIssues(structural.Issues),
		)
	}

	record := cryptoDomain.NewRecord()
	for _, name := range orderedFieldNames(fields) {
		record.SetPlain(name, validated.SanitizedData[name])
	}

	encrypted, err := m.patients.EncryptPatientData(ctx, record)
	if err != nil {
		if _, logErr := m.logWrite(ctx, actor, patientID, fields, auditDomain.OutcomeFailure); logErr != nil {
			return nil, logErr
		}
		return nil, err
	}

	entry, err := m.logWrite(ctx, actor, patientID, fields, auditDomain.OutcomeSuccess)
	if err != nil {
		// Fail closed: without the audit entry the write must not proceed.
		return nil, err
	}
	return &WriteResult{Record: encrypted, AuditEntry: entry}, nil
}

// SecurePatientRead audit-logs the PHI access first, then decrypts. The
// record is never exposed when audit logging fails.
func (m *Manager) SecurePatientRead(
	ctx context.Context,
	actor Actor,
	record *cryptoDomain.Record,
	justification string,
) (*ReadResult, error) {
	patientID := plainField(record, "patientId")

	input := m.eventInput(actor, auditDomain.EventView, "read")
	input.Context = &auditDomain.AccessContext{
		BusinessJustification: justification,
	}
	entry, err := m.auditTrail.LogPatientAccess(ctx, input, patientID, encryptedFieldNames(record))
	if err != nil {
		return nil, err
	}

	decrypted, err := m.patients.DecryptPatientData(ctx, record)
	if err != nil {
		return nil, err
	}
	return &ReadResult{Record: decrypted, AuditEntry: entry}, nil
}

func (m *Manager) logWrite(
	ctx context.Context,
	actor Actor,
	patientID string,
	fields map[string]string,
	outcome auditDomain.Outcome,
) (*auditDomain.AuditLog, error) {
	input := m.eventInput(actor, auditDomain.EventCreate, "write")
	input.Outcome = outcome
	return m.auditTrail.LogPatientAccess(ctx, input, patientID, orderedFieldNames(fields))
}

func (m *Manager) eventInput(actor Actor, eventType auditDomain.EventType, action string) auditUsecase.LogEventInput {
	return auditUsecase.LogEventInput{
		UserID:    actor.UserID,
		UserRole:  actor.UserRole,
		EventType: eventType,
		Action:    action,
		Outcome:   auditDomain.OutcomeSuccess,
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
		SessionID: actor.SessionID,
	}
}

func orderedFieldNames(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	// Patient fields first in their classified order, then the rest.
	ordered := make([]string, 0, len(names))
	for _, name := range patientFieldOrder {
		for _, candidate := range names {
			if candidate == name {
				ordered = append(ordered, name)
			}
		}
	}
	for _, name := range names {
		if _, known := cryptoUsecase.PatientFieldClassification(name); !known {
			ordered = append(ordered, name)
		}
	}
	return ordered
}

// patientFieldOrder is the canonical field ordering for stored patient
// records.
var patientFieldOrder = []string{
	"patientId", "firstName", "middleName", "lastName", "dateOfBirth", "ssn",
	"email", "phone", "address", "city", "state", "zipCode", "insuranceId",
	"emergencyContact", "preferredLanguage", "providerId", "status",
	"createdAt", "updatedAt",
}

func plainField(record *cryptoDomain.Record, name string) string {
	if record == nil {
		return ""
	}
	field, ok := record.Get(name)
	if !ok || field.Kind() != cryptoDomain.KindPlain {
		return ""
	}
	return field.Plain()
}

func encryptedFieldNames(record *cryptoDomain.Record) []string {
	if record == nil {
		return nil
	}
	var names []string
	for _, name := range record.Names() {
		if field, ok := record.Get(name); ok && field.IsEncrypted() {
			names = append(names, name)
		}
	}
	return names
}

func joinIssues(issues []validation.FieldIssue) string {
	parts := make([]string, 0, len(issues))
	for _, issue := range issues {
		parts = append(parts, issue.Path+": "+issue.Message)
	}
	return strings.Join(parts, "; ")
}
