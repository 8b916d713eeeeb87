package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	auditDomain "github.com/medguard/compliance/internal/audit/domain"
	apperrors "github.com/medguard/compliance/internal/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newEntry(userID, patientID string, at time.Time) *auditDomain.AuditLog {
	entry := &auditDomain.AuditLog{
		EventID:      auditDomain.NewEventID(),
		Timestamp:    at,
		UserID:       userID,
		UserRole:     "physician",
		EventType:    auditDomain.EventView,
		ResourceType: "patient",
		ResourceID:   patientID,
		Action:       "read",
		Outcome:      auditDomain.OutcomeSuccess,
		PHIAccessed:  true,
		RiskScore:    35,
	}
	if patientID != "" {
		entry.Context = &auditDomain.AccessContext{PatientID: patientID}
	}
	return entry
}

func TestMemoryAuditLogRepository_Store(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)

	t.Run("stores and retrieves entries", func(t *testing.T) {
		repo := NewMemoryAuditLogRepository()
		entry := newEntry("user-1", "PAT123", base)
		require.NoError(t, repo.Store(ctx, entry))

		entries, err := repo.ListByDateRange(ctx, base.Add(-time.Hour), base.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, entry.EventID, entries[0].EventID)
	})

	t.Run("duplicate event id conflicts", func(t *testing.T) {
		repo := NewMemoryAuditLogRepository()
		entry := newEntry("user-1", "PAT123", base)
		require.NoError(t, repo.Store(ctx, entry))

		err := repo.Store(ctx, entry)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("stored entries are immutable snapshots", func(t *testing.T) {
		repo := NewMemoryAuditLogRepository()
		entry := newEntry("user-1", "PAT123", base)
		require.NoError(t, repo.Store(ctx, entry))

		entry.UserID = "mutated"

		entries, err := repo.ListByUser(ctx, "user-1", nil, nil)
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})

	t.Run("concurrent writers lose no entries", func(t *testing.T) {
		repo := NewMemoryAuditLogRepository()
		const writers = 32

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				entry := newEntry(fmt.Sprintf("user-%d", n), "PAT123", base.Add(time.Duration(n)*time.Second))
				assert.NoError(t, repo.Store(ctx, entry))
			}(i)
		}
		wg.Wait()

		entries, err := repo.ListByDateRange(ctx, base.Add(-time.Hour), base.Add(time.Hour))
		require.NoError(t, err)
		assert.Len(t, entries, writers)
	})
}

func TestMemoryAuditLogRepository_Queries(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)

	repo := NewMemoryAuditLogRepository()
	first := newEntry("user-1", "PAT123", base)
	second := newEntry("user-2", "PAT123", base.Add(time.Hour))
	third := newEntry("user-1", "PAT999", base.Add(2*time.Hour))
	third.Outcome = auditDomain.OutcomeFailure
	third.RiskScore = 80
	for _, entry := range []*auditDomain.AuditLog{third, first, second} {
		require.NoError(t, repo.Store(ctx, entry))
	}

	t.Run("date range is inclusive and ordered oldest first", func(t *testing.T) {
		entries, err := repo.ListByDateRange(ctx, base, base.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, first.EventID, entries[0].EventID)
		assert.Equal(t, second.EventID, entries[1].EventID)
	})

	t.Run("list by patient", func(t *testing.T) {
		entries, err := repo.ListByPatient(ctx, "PAT123", nil, nil)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("list by patient with bounds", func(t *testing.T) {
		from := base.Add(30 * time.Minute)
		entries, err := repo.ListByPatient(ctx, "PAT123", &from, nil)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, second.EventID, entries[0].EventID)
	})

	t.Run("list by user", func(t *testing.T) {
		entries, err := repo.ListByUser(ctx, "user-1", nil, nil)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("search by multiple criteria", func(t *testing.T) {
		minRisk := 70
		entries, err := repo.Search(ctx, auditDomain.SearchCriteria{
			UserID:       "user-1",
			Outcome:      auditDomain.OutcomeFailure,
			MinRiskScore: &minRisk,
		})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, third.EventID, entries[0].EventID)
	})

	t.Run("search with limit", func(t *testing.T) {
		entries, err := repo.Search(ctx, auditDomain.SearchCriteria{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("empty result is an empty slice", func(t *testing.T) {
		entries, err := repo.ListByUser(ctx, "nobody", nil, nil)
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})
}

func TestMemoryAuditLogRepository_DeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)

	repo := NewMemoryAuditLogRepository()
	old := newEntry("user-1", "", base.Add(-48*time.Hour))
	recent := newEntry("user-1", "", base)
	require.NoError(t, repo.Store(ctx, old))
	require.NoError(t, repo.Store(ctx, recent))

	removed, err := repo.DeleteOlderThan(ctx, base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	entries, err := repo.ListByUser(ctx, "user-1", nil, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, recent.EventID, entries[0].EventID)
}

func TestMemoryViolationRepository(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)

	violation := &auditDomain.Violation{
		ViolationID:   auditDomain.NewEventID(),
		EventID:       auditDomain.NewEventID(),
		Timestamp:     base,
		ViolationType: auditDomain.ViolationUnauthorizedAccess,
		Severity:      auditDomain.ViolationSeverityHigh,
		Description:   "unauthorized access attempt",
		UserID:        "user-1",
	}

	t.Run("store and list by date range", func(t *testing.T) {
		repo := NewMemoryViolationRepository()
		require.NoError(t, repo.Store(ctx, violation))

		violations, err := repo.ListByDateRange(ctx, base.Add(-time.Hour), base.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, violations, 1)
		assert.Equal(t, violation.ViolationID, violations[0].ViolationID)
	})

	t.Run("resolve removes from unresolved list", func(t *testing.T) {
		repo := NewMemoryViolationRepository()
		require.NoError(t, repo.Store(ctx, violation))

		unresolved, err := repo.ListUnresolved(ctx)
		require.NoError(t, err)
		require.Len(t, unresolved, 1)

		require.NoError(t, repo.Resolve(ctx, violation.ViolationID))

		unresolved, err = repo.ListUnresolved(ctx)
		require.NoError(t, err)
		assert.Empty(t, unresolved)
	})

	t.Run("resolving unknown violation fails", func(t *testing.T) {
		repo := NewMemoryViolationRepository()
		err := repo.Resolve(ctx, auditDomain.NewEventID())
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("delete older than keeps unresolved violations", func(t *testing.T) {
		repo := NewMemoryViolationRepository()

		old := *violation
		old.ViolationID = auditDomain.NewEventID()
		old.Timestamp = base.Add(-48 * time.Hour)
		require.NoError(t, repo.Store(ctx, &old))
		require.NoError(t, repo.Resolve(ctx, old.ViolationID))

		unresolvedOld := *violation
		unresolvedOld.ViolationID = auditDomain.NewEventID()
		unresolvedOld.Timestamp = base.Add(-48 * time.Hour)
		require.NoError(t, repo.Store(ctx, &unresolvedOld))

		removed, err := repo.DeleteOlderThan(ctx, base.Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		unresolved, err := repo.ListUnresolved(ctx)
		require.NoError(t, err)
		require.Len(t, unresolved, 1)
		assert.Equal(t, unresolvedOld.ViolationID, unresolved[0].ViolationID)
	})
}
