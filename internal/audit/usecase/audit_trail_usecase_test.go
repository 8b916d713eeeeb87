package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/medguard/compliance/internal/audit/domain"
	"github.com/medguard/compliance/internal/audit/repository"
	"github.com/medguard/compliance/internal/audit/service"
	"github.com/medguard/compliance/internal/audit/usecase"
)

// fixedClock pins the audit timestamp for deterministic after-hours checks.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

// passthroughTx runs the function without a real transaction, matching the
// in-memory repositories used in these tests.
type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// businessHoursTime is a Wednesday at 10:00 UTC.
var businessHoursTime = time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)

// afterHoursTime is a Wednesday at 23:00 UTC.
var afterHoursTime = time.Date(2026, 9, 2, 23, 0, 0, 0, time.UTC)

type testFixture struct {
	trail      *usecase.AuditTrailService
	auditLogs  *repository.MemoryAuditLogRepository
	violations *repository.MemoryViolationRepository
	clock      *fixedClock
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	policy := auditDomain.DefaultBusinessHours()
	auditLogs := repository.NewMemoryAuditLogRepository()
	violations := repository.NewMemoryViolationRepository()
	clock := &fixedClock{now: businessHoursTime}
	trail := usecase.NewAuditTrailService(
		passthroughTx{},
		auditLogs,
		violations,
		service.NewRiskAssessor(policy),
		service.NewViolationDetector(policy),
		clock,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		70,
	)
	return &testFixture{trail: trail, auditLogs: auditLogs, violations: violations, clock: clock}
}

func viewInput(userID string) usecase.LogEventInput {
	return usecase.LogEventInput{
		UserID:       userID,
		UserRole:     "physician",
		EventType:    auditDomain.EventView,
		ResourceType: "patient",
		ResourceID:   "PAT123",
		Action:       "read",
		Outcome:      auditDomain.OutcomeSuccess,
	}
}

func TestLogEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("fills identity and risk score", func(t *testing.T) {
		f := newFixture(t)
		entry, err := f.trail.LogEvent(ctx, viewInput("user-1"))
		require.NoError(t, err)

		assert.NotZero(t, entry.EventID)
		assert.Equal(t, businessHoursTime, entry.Timestamp)
		assert.Greater(t, entry.RiskScore, 0)
		assert.False(t, entry.RequiresReview)
	})

	t.Run("high risk score flags review", func(t *testing.T) {
		f := newFixture(t)
		input := viewInput("user-1")
		input.EventType = auditDomain.EventBulkExport
		input.PHIAccessed = true
		input.Outcome = auditDomain.OutcomeFailure

		entry, err := f.trail.LogEvent(ctx, input)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, entry.RiskScore, 70)
		assert.True(t, entry.RequiresReview)
	})

	t.Run("violation flags review and persists", func(t *testing.T) {
		f := newFixture(t)
		input := viewInput("user-1")
		input.EventType = auditDomain.EventUnauthorizedAccess
		input.Outcome = auditDomain.OutcomeFailure

		entry, err := f.trail.LogEvent(ctx, input)
		require.NoError(t, err)
		assert.True(t, entry.RequiresReview)

		violations, err := f.violations.ListUnresolved(ctx)
		require.NoError(t, err)
		require.Len(t, violations, 1)
		assert.Equal(t, entry.EventID, violations[0].EventID)
	})

	t.Run("after-hours phi access records violation", func(t *testing.T) {
		f := newFixture(t)
		f.clock.now = afterHoursTime
		input := viewInput("user-1")
		input.PHIAccessed = true

		entry, err := f.trail.LogEvent(ctx, input)
		require.NoError(t, err)
		assert.True(t, entry.RequiresReview)

		violations, err := f.violations.ListUnresolved(ctx)
		require.NoError(t, err)
		require.Len(t, violations, 1)
		assert.Equal(t, auditDomain.ViolationAfterHoursAccess, violations[0].ViolationType)
	})

	t.Run("store failure surfaces as audit write failure", func(t *testing.T) {
		f := newFixture(t)
		input := viewInput("user-1")

		// First write succeeds; a conflicting duplicate simulates a failing
		// store through the same path.
		first, err := f.trail.LogEvent(ctx, input)
		require.NoError(t, err)
		err = f.auditLogs.Store(ctx, first)
		require.Error(t, err)

		failing := usecase.NewAuditTrailService(
			passthroughTx{},
			&failingAuditRepo{},
			f.violations,
			service.NewRiskAssessor(auditDomain.DefaultBusinessHours()),
			service.NewViolationDetector(auditDomain.DefaultBusinessHours()),
			f.clock,
			slog.New(slog.NewTextHandler(io.Discard, nil)),
			70,
		)
		_, err = failing.LogEvent(ctx, input)
		require.Error(t, err)
		assert.ErrorIs(t, err, auditDomain.ErrAuditWriteFailed)
	})
}

func TestAccessWrappers(t *testing.T) {
	ctx := context.Background()

	t.Run("patient access fixes resource and phi flag", func(t *testing.T) {
		f := newFixture(t)
		entry, err := f.trail.LogPatientAccess(ctx, usecase.LogEventInput{
			UserID:    "user-1",
			UserRole:  "nurse",
			EventType: auditDomain.EventView,
			Action:    "read",
			Outcome:   auditDomain.OutcomeSuccess,
		}, "PAT123", []string{"firstName", "ssn"})
		require.NoError(t, err)

		assert.Equal(t, "patient", entry.ResourceType)
		assert.Equal(t, "PAT123", entry.ResourceID)
		assert.True(t, entry.PHIAccessed)
		require.NotNil(t, entry.Context)
		assert.Equal(t, "PAT123", entry.Context.PatientID)
		assert.Equal(t, []string{"firstName", "ssn"}, entry.Context.DataFields)
	})

	t.Run("medical record access fixes resource type", func(t *testing.T) {
		f := newFixture(t)
		entry, err := f.trail.LogMedicalRecordAccess(ctx, usecase.LogEventInput{
			UserID:    "user-1",
			UserRole:  "physician",
			EventType: auditDomain.EventView,
			Action:    "read",
			Outcome:   auditDomain.OutcomeSuccess,
		}, "MR-42", "PAT123")
		require.NoError(t, err)

		assert.Equal(t, "medical_record", entry.ResourceType)
		assert.Equal(t, "MR-42", entry.ResourceID)
		assert.True(t, entry.PHIAccessed)
		assert.Equal(t, "PAT123", entry.Context.PatientID)
	})

	t.Run("trails are queryable by patient and user", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.trail.LogPatientAccess(ctx, viewInput("user-1"), "PAT123", nil)
		require.NoError(t, err)
		_, err = f.trail.LogPatientAccess(ctx, viewInput("user-2"), "PAT123", nil)
		require.NoError(t, err)

		byPatient, err := f.trail.GetPatientAuditTrail(ctx, "PAT123", nil, nil)
		require.NoError(t, err)
		assert.Len(t, byPatient, 2)

		byUser, err := f.trail.GetUserAuditTrail(ctx, "user-1", nil, nil)
		require.NoError(t, err)
		assert.Len(t, byUser, 1)
	})
}

func TestGenerateComplianceReport(t *testing.T) {
	ctx := context.Background()

	t.Run("three event scenario", func(t *testing.T) {
		f := newFixture(t)

		for _, userID := range []string{"user-1", "user-2"} {
			input := viewInput(userID)
			input.PHIAccessed = true
			input.Context = &auditDomain.AccessContext{PatientID: "PAT123"}
			_, err := f.trail.LogEvent(ctx, input)
			require.NoError(t, err)
		}

		intruder := viewInput("user-3")
		intruder.EventType = auditDomain.EventUnauthorizedAccess
		intruder.Outcome = auditDomain.OutcomeFailure
		_, err := f.trail.LogEvent(ctx, intruder)
		require.NoError(t, err)

		report, err := f.trail.GenerateComplianceReport(
			ctx,
			businessHoursTime.Add(-time.Hour),
			businessHoursTime.Add(time.Hour),
			false,
		)
		require.NoError(t, err)

		assert.Equal(t, 3, report.Summary.TotalEvents)
		assert.Equal(t, 1, report.Summary.UnauthorizedAttempts)
		assert.Equal(t, 2, report.Summary.PHIAccesses)
		assert.Equal(t, 3, report.Statistics.UniqueUsers)
		assert.Equal(t, 1, report.Statistics.UniquePatients)
		assert.Equal(t, 1, report.Summary.Violations)
		assert.Equal(t, 2, report.Statistics.EventsByType[auditDomain.EventView])
		assert.Equal(t, 1, report.Statistics.EventsByType[auditDomain.EventUnauthorizedAccess])
		assert.NotEmpty(t, report.Recommendations)
		assert.Nil(t, report.Events)
	})

	t.Run("details include events and violations", func(t *testing.T) {
		f := newFixture(t)
		input := viewInput("user-1")
		input.EventType = auditDomain.EventUnauthorizedAccess
		input.Outcome = auditDomain.OutcomeFailure
		_, err := f.trail.LogEvent(ctx, input)
		require.NoError(t, err)

		report, err := f.trail.GenerateComplianceReport(
			ctx,
			businessHoursTime.Add(-time.Hour),
			businessHoursTime.Add(time.Hour),
			true,
		)
		require.NoError(t, err)
		assert.Len(t, report.Events, 1)
		assert.Len(t, report.ViolationList, 1)
	})

	t.Run("empty window yields empty report", func(t *testing.T) {
		f := newFixture(t)
		report, err := f.trail.GenerateComplianceReport(
			ctx,
			businessHoursTime.Add(time.Hour),
			businessHoursTime.Add(2*time.Hour),
			false,
		)
		require.NoError(t, err)
		assert.Zero(t, report.Summary.TotalEvents)
		assert.Empty(t, report.Recommendations)
		assert.Zero(t, report.Statistics.AverageRisk)
	})
}

func TestViolationLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	input := viewInput("user-1")
	input.EventType = auditDomain.EventUnauthorizedAccess
	input.Outcome = auditDomain.OutcomeFailure
	_, err := f.trail.LogEvent(ctx, input)
	require.NoError(t, err)

	open, err := f.trail.ListOpenViolations(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)

	err = f.trail.ResolveViolation(ctx, open[0].ViolationID)
	require.NoError(t, err)

	open, err = f.trail.ListOpenViolations(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	err = f.trail.ResolveViolation(ctx, uuid.Must(uuid.NewV7()))
	require.Error(t, err)
}

func TestCleanupExpired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.clock.now = businessHoursTime.Add(-365 * 24 * time.Hour)
	_, err := f.trail.LogEvent(ctx, viewInput("user-1"))
	require.NoError(t, err)

	f.clock.now = businessHoursTime
	_, err = f.trail.LogEvent(ctx, viewInput("user-1"))
	require.NoError(t, err)

	removed, err := f.trail.CleanupExpired(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	entries, err := f.trail.GetUserAuditTrail(ctx, "user-1", nil, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// failingAuditRepo always fails Store.
type failingAuditRepo struct {
	repository.MemoryAuditLogRepository
}

func (f *failingAuditRepo) Store(context.Context, *auditDomain.AuditLog) error {
	return assert.AnError
}
