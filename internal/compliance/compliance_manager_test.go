package compliance_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/medguard/compliance/internal/audit/domain"
	auditRepository "github.com/medguard/compliance/internal/audit/repository"
	auditService "github.com/medguard/compliance/internal/audit/service"
	auditUsecase "github.com/medguard/compliance/internal/audit/usecase"
	"github.com/medguard/compliance/internal/compliance"
	cryptoDomain "github.com/medguard/compliance/internal/crypto/domain"
	cryptoService "github.com/medguard/compliance/internal/crypto/service"
	cryptoUsecase "github.com/medguard/compliance/internal/crypto/usecase"
	apperrors "github.com/medguard/compliance/internal/errors"
	sanitizeSvc "github.com/medguard/compliance/internal/sanitize/service"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	manager    *compliance.Manager
	auditLogs  *auditRepository.MemoryAuditLogRepository
	auditTrail auditUsecase.AuditTrailUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	masterSecret := []byte("compliance-test-master-secret")
	keyManager := cryptoService.NewKeyManager(masterSecret, 1000)
	t.Cleanup(keyManager.Close)
	encryption := cryptoUsecase.NewBasicEncryptionUseCase(
		keyManager,
		cryptoService.NewAEADManager(),
		masterSecret,
		cryptoDomain.AESGCM,
		cryptoDomain.PHI,
	)
	patients := cryptoUsecase.NewPatientDataUseCase(encryption)

	policy := auditDomain.DefaultBusinessHours()
	auditLogs := auditRepository.NewMemoryAuditLogRepository()
	trail := auditUsecase.NewAuditTrailService(
		passthroughTx{},
		auditLogs,
		auditRepository.NewMemoryViolationRepository(),
		auditService.NewRiskAssessor(policy),
		auditService.NewViolationDetector(policy),
		&fixedClock{now: time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		70,
	)

	return &fixture{
		manager:    compliance.NewManager(sanitizeSvc.NewSanitizer(), patients, trail),
		auditLogs:  auditLogs,
		auditTrail: trail,
	}
}

func actor() compliance.Actor {
	return compliance.Actor{
		UserID:   "user-1",
		UserRole: "physician",
	}
}

func patientFields() map[string]string {
	return map[string]string{
		"patientId":   "PAT123",
		"firstName":   "John",
		"lastName":    "Doe",
		"dateOfBirth": "1990-01-15",
	}
}

func TestSecurePatientWrite(t *testing.T) {
	ctx := context.Background()

	t.Run("encrypts phi and logs the write", func(t *testing.T) {
		f := newFixture(t)
		result, err := f.manager.SecurePatientWrite(ctx, actor(), patientFields())
		require.NoError(t, err)

		firstName, ok := result.Record.Get("firstName")
		require.True(t, ok)
		assert.True(t, firstName.IsEncrypted())

		patientID, ok := result.Record.Get("patientId")
		require.True(t, ok)
		assert.Equal(t, "PAT123", patientID.Plain())

		require.NotNil(t, result.AuditEntry)
		assert.Equal(t, auditDomain.EventCreate, result.AuditEntry.EventType)
		assert.True(t, result.AuditEntry.PHIAccessed)
		assert.Equal(t, auditDomain.OutcomeSuccess, result.AuditEntry.Outcome)

		entries, err := f.auditTrail.GetPatientAuditTrail(ctx, "PAT123", nil, nil)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("invalid data aborts before encryption and logs failure", func(t *testing.T) {
		f := newFixture(t)
		fields := patientFields()
		delete(fields, "lastName")

		_, err := f.manager.SecurePatientWrite(ctx, actor(), fields)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		entries, err := f.auditTrail.GetPatientAuditTrail(ctx, "PAT123", nil, nil)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, auditDomain.OutcomeFailure, entries[0].Outcome)
	})

	t.Run("future birth date is rejected", func(t *testing.T) {
		f := newFixture(t)
		fields := patientFields()
		fields["dateOfBirth"] = "2090-01-15"

		_, err := f.manager.SecurePatientWrite(ctx, actor(), fields)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Contains(t, err.Error(), "dateOfBirth")
	})

	t.Run("input is sanitized before storage", func(t *testing.T) {
		f := newFixture(t)
		fields := patientFields()
		fields["firstName"] = "John<script>alert(1)</script>"

		result, err := f.manager.SecurePatientWrite(ctx, actor(), fields)
		require.NoError(t, err)

		read, err := f.manager.SecurePatientRead(ctx, actor(), result.Record, "treatment")
		require.NoError(t, err)
		firstName, _ := read.Record.Get("firstName")
		assert.Equal(t, "Johnalert", firstName.Plain())
	})

	t.Run("encryption failure surfaces and still logs a failure event", func(t *testing.T) {
		f := newFixture(t)
		broken := compliance.NewManager(
			sanitizeSvc.NewSanitizer(),
			brokenPatients{},
			f.auditTrail,
		)
		_, err := broken.SecurePatientWrite(ctx, actor(), patientFields())
		require.Error(t, err)

		entries, err := f.auditTrail.GetPatientAuditTrail(ctx, "PAT123", nil, nil)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, auditDomain.OutcomeFailure, entries[0].Outcome)
	})
}

func TestSecurePatientRead(t *testing.T) {
	ctx := context.Background()

	t.Run("logs access then decrypts", func(t *testing.T) {
		f := newFixture(t)
		written, err := f.manager.SecurePatientWrite(ctx, actor(), patientFields())
		require.NoError(t, err)

		result, err := f.manager.SecurePatientRead(ctx, actor(), written.Record, "care coordination")
		require.NoError(t, err)

		firstName, _ := result.Record.Get("firstName")
		assert.Equal(t, "John", firstName.Plain())

		require.NotNil(t, result.AuditEntry)
		assert.True(t, result.AuditEntry.PHIAccessed)
		assert.Equal(t, "care coordination", result.AuditEntry.Context.BusinessJustification)
		assert.Contains(t, result.AuditEntry.Context.DataFields, "firstName")

		entries, err := f.auditTrail.GetPatientAuditTrail(ctx, "PAT123", nil, nil)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("tampered record fails decryption after access is logged", func(t *testing.T) {
		f := newFixture(t)
		written, err := f.manager.SecurePatientWrite(ctx, actor(), patientFields())
		require.NoError(t, err)

		field, _ := written.Record.Get("firstName")
		field.Encrypted().Data[0] ^= 0xff

		_, err = f.manager.SecurePatientRead(ctx, actor(), written.Record, "treatment")
		require.Error(t, err)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)

		// The access attempt is still on the trail.
		entries, err := f.auditTrail.GetPatientAuditTrail(ctx, "PAT123", nil, nil)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})
}

// brokenPatients always fails encryption.
type brokenPatients struct{}

func (brokenPatients) EncryptPatientData(context.Context, *cryptoDomain.Record) (*cryptoDomain.Record, error) {
	return nil, assert.AnError
}

func (brokenPatients) DecryptPatientData(context.Context, *cryptoDomain.Record) (*cryptoDomain.Record, error) {
	return nil, assert.AnError
}

func (brokenPatients) CreatePatientHash(string, string, string) string { return "" }
