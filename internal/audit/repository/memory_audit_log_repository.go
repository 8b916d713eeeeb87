// Package repository provides audit log and violation persistence: an
// in-memory store for embedded use and tests, plus PostgreSQL and MySQL
// implementations.
package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/medguard/compliance/internal/audit/domain"
	apperrors "github.com/medguard/compliance/internal/errors"
)

// MemoryAuditLogRepository is a concurrency-safe, append-only in-memory audit
// store. Queries snapshot under the read lock, so they reflect every write
// that completed before the query started.
type MemoryAuditLogRepository struct {
	mu      sync.RWMutex
	entries []*auditDomain.AuditLog
	byID    map[uuid.UUID]struct{}
}

// NewMemoryAuditLogRepository creates an empty in-memory audit store.
func NewMemoryAuditLogRepository() *MemoryAuditLogRepository {
	return &MemoryAuditLogRepository{byID: make(map[uuid.UUID]struct{})}
}

// Store appends an entry. A duplicate event id is a conflict, never an
// overwrite.
func (r *MemoryAuditLogRepository) Store(_ context.Context, entry *auditDomain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[entry.EventID]; exists {
		return apperrors.Wrap(apperrors.ErrConflict, "duplicate audit event id")
	}
	stored := *entry
	r.entries = append(r.entries, &stored)
	r.byID[entry.EventID] = struct{}{}
	return nil
}

// ListByDateRange returns entries with from <= timestamp <= to, oldest first.
func (r *MemoryAuditLogRepository) ListByDateRange(
	_ context.Context,
	from, to time.Time,
) ([]*auditDomain.AuditLog, error) {
	return r.filter(func(entry *auditDomain.AuditLog) bool {
		return !entry.Timestamp.Before(from) && !entry.Timestamp.After(to)
	}), nil
}

// ListByPatient returns entries concerning the patient, optionally bounded.
func (r *MemoryAuditLogRepository) ListByPatient(
	_ context.Context,
	patientID string,
	from, to *time.Time,
) ([]*auditDomain.AuditLog, error) {
	return r.filter(func(entry *auditDomain.AuditLog) bool {
		return entry.PatientID() == patientID && withinBounds(entry.Timestamp, from, to)
	}), nil
}

// ListByUser returns entries produced by the user, optionally bounded.
func (r *MemoryAuditLogRepository) ListByUser(
	_ context.Context,
	userID string,
	from, to *time.Time,
) ([]*auditDomain.AuditLog, error) {
	return r.filter(func(entry *auditDomain.AuditLog) bool {
		return entry.UserID == userID && withinBounds(entry.Timestamp, from, to)
	}), nil
}

// Search returns entries matching every set criterion, oldest first.
func (r *MemoryAuditLogRepository) Search(
	_ context.Context,
	criteria auditDomain.SearchCriteria,
) ([]*auditDomain.AuditLog, error) {
	results := r.filter(criteria.Matches)
	if criteria.Limit > 0 && len(results) > criteria.Limit {
		results = results[:criteria.Limit]
	}
	return results, nil
}

// DeleteOlderThan removes entries with timestamps before the cutoff and
// returns how many were removed. Used by retention cleanup.
func (r *MemoryAuditLogRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0]
	var removed int64
	for _, entry := range r.entries {
		if entry.Timestamp.Before(cutoff) {
			delete(r.byID, entry.EventID)
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	r.entries = kept
	return removed, nil
}

func (r *MemoryAuditLogRepository) filter(match func(*auditDomain.AuditLog) bool) []*auditDomain.AuditLog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	results := make([]*auditDomain.AuditLog, 0)
	for _, entry := range r.entries {
		if match(entry) {
			copied := *entry
			results = append(results, &copied)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Timestamp.Before(results[j].Timestamp)
	})
	return results
}

func withinBounds(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

// MemoryViolationRepository is a concurrency-safe in-memory violation store.
type MemoryViolationRepository struct {
	mu         sync.RWMutex
	violations []*auditDomain.Violation
}

// NewMemoryViolationRepository creates an empty in-memory violation store.
func NewMemoryViolationRepository() *MemoryViolationRepository {
	return &MemoryViolationRepository{}
}

// Store appends a violation.
func (r *MemoryViolationRepository) Store(_ context.Context, violation *auditDomain.Violation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *violation
	r.violations = append(r.violations, &stored)
	return nil
}

// ListByDateRange returns violations with from <= timestamp <= to.
func (r *MemoryViolationRepository) ListByDateRange(
	_ context.Context,
	from, to time.Time,
) ([]*auditDomain.Violation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	results := make([]*auditDomain.Violation, 0)
	for _, violation := range r.violations {
		if !violation.Timestamp.Before(from) && !violation.Timestamp.After(to) {
			copied := *violation
			results = append(results, &copied)
		}
	}
	return results, nil
}

// ListUnresolved returns violations not yet marked resolved.
func (r *MemoryViolationRepository) ListUnresolved(_ context.Context) ([]*auditDomain.Violation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	results := make([]*auditDomain.Violation, 0)
	for _, violation := range r.violations {
		if !violation.Resolved {
			copied := *violation
			results = append(results, &copied)
		}
	}
	return results, nil
}

// Resolve marks a violation resolved.
func (r *MemoryViolationRepository) Resolve(_ context.Context, violationID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, violation := range r.violations {
		if violation.ViolationID == violationID {
			violation.Resolved = true
			return nil
		}
	}
	return apperrors.Wrap(apperrors.ErrNotFound, "violation not found")
}

// DeleteOlderThan removes resolved violations older than the cutoff.
func (r *MemoryViolationRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.violations[:0]
	var removed int64
	for _, violation := range r.violations {
		if violation.Resolved && violation.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, violation)
	}
	r.violations = kept
	return removed, nil
}
