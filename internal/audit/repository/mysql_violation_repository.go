package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/medguard/compliance/internal/audit/domain"
	"github.com/medguard/compliance/internal/database"
	apperrors "github.com/medguard/compliance/internal/errors"
)

// MySQLViolationRepository implements violation persistence for MySQL.
// Uses BINARY(16) for UUID storage.
type MySQLViolationRepository struct {
	db *sql.DB
}

// NewMySQLViolationRepository creates a new MySQLViolationRepository.
func NewMySQLViolationRepository(db *sql.DB) *MySQLViolationRepository {
	return &MySQLViolationRepository{db: db}
}

// Store inserts a new violation.
func (m *MySQLViolationRepository) Store(ctx context.Context, violation *auditDomain.Violation) error {
	querier := database.GetTx(ctx, m.db)

	resourcesJSON, err := marshalResources(violation.AffectedResources)
	if err != nil {
		return err
	}

	violationID, err := violation.ViolationID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal violation id")
	}
	eventID, err := violation.EventID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal violation event id")
	}

	query := `INSERT INTO violations (` + violationColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		violationID,
		eventID,
		violation.Timestamp,
		string(violation.ViolationType),
		string(violation.Severity),
		violation.Description,
		resourcesJSON,
		violation.UserID,
		violation.RequiresNotification,
		violation.Resolved,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to store violation")
	}
	return nil
}

// ListByDateRange retrieves violations within the inclusive time window.
func (m *MySQLViolationRepository) ListByDateRange(
	ctx context.Context,
	from, to time.Time,
) ([]*auditDomain.Violation, error) {
	query := `SELECT ` + violationColumns + `
			  FROM violations
			  WHERE timestamp >= ? AND timestamp <= ?
			  ORDER BY timestamp ASC`
	return m.query(ctx, query, from, to)
}

// ListUnresolved retrieves violations not yet marked resolved.
func (m *MySQLViolationRepository) ListUnresolved(ctx context.Context) ([]*auditDomain.Violation, error) {
	query := `SELECT ` + violationColumns + `
			  FROM violations
			  WHERE resolved = false
			  ORDER BY timestamp ASC`
	return m.query(ctx, query)
}

// Resolve marks a violation resolved.
func (m *MySQLViolationRepository) Resolve(ctx context.Context, violationID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	id, err := violationID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal violation id")
	}

	result, err := querier.ExecContext(
		ctx,
		`UPDATE violations SET resolved = true WHERE violation_id = ?`,
		id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to resolve violation")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check resolved violation")
	}
	if affected == 0 {
		return apperrors.Wrap(apperrors.ErrNotFound, "violation not found")
	}
	return nil
}

// DeleteOlderThan removes resolved violations older than the cutoff.
func (m *MySQLViolationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(
		ctx,
		`DELETE FROM violations WHERE resolved = true AND timestamp < ?`,
		cutoff,
	)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired violations")
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count deleted violations")
	}
	return removed, nil
}

func (m *MySQLViolationRepository) query(
	ctx context.Context,
	query string,
	args ...any,
) ([]*auditDomain.Violation, error) {
	querier := database.GetTx(ctx, m.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to query violations")
	}
	defer func() {
		_ = rows.Close()
	}()

	violations := make([]*auditDomain.Violation, 0)
	for rows.Next() {
		var violation auditDomain.Violation
		var violationIDBytes, eventIDBytes []byte
		var violationType, severity string
		var resourcesJSON []byte

		err := rows.Scan(
			&violationIDBytes,
			&eventIDBytes,
			&violation.Timestamp,
			&violationType,
			&severity,
			&violation.Description,
			&resourcesJSON,
			&violation.UserID,
			&violation.RequiresNotification,
			&violation.Resolved,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan violation")
		}

		violation.ViolationID, err = uuid.FromBytes(violationIDBytes)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal violation id")
		}
		violation.EventID, err = uuid.FromBytes(eventIDBytes)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal violation event id")
		}

		violation.ViolationType = auditDomain.ViolationType(violationType)
		violation.Severity = auditDomain.ViolationSeverity(severity)
		if len(resourcesJSON) > 0 {
			if err := json.Unmarshal(resourcesJSON, &violation.AffectedResources); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal affected resources")
			}
		}
		violations = append(violations, &violation)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate violations")
	}
	return violations, nil
}
