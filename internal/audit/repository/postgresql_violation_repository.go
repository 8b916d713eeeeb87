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

// PostgreSQLViolationRepository implements violation persistence for
// PostgreSQL. Affected resources are stored as JSONB.
type PostgreSQLViolationRepository struct {
	db *sql.DB
}

// NewPostgreSQLViolationRepository creates a new PostgreSQLViolationRepository.
func NewPostgreSQLViolationRepository(db *sql.DB) *PostgreSQLViolationRepository {
	return &PostgreSQLViolationRepository{db: db}
}

const violationColumns = `violation_id, event_id, timestamp, violation_type, severity,
	description, affected_resources, user_id, requires_notification, resolved`

// Store inserts a new violation.
func (p *PostgreSQLViolationRepository) Store(ctx context.Context, violation *auditDomain.Violation) error {
	querier := database.GetTx(ctx, p.db)

	resourcesJSON, err := marshalResources(violation.AffectedResources)
	if err != nil {
		return err
	}

	query := `INSERT INTO violations (` + violationColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = querier.ExecContext(
		ctx,
		query,
		violation.ViolationID,
		violation.EventID,
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
func (p *PostgreSQLViolationRepository) ListByDateRange(
	ctx context.Context,
	from, to time.Time,
) ([]*auditDomain.Violation, error) {
	query := `SELECT ` + violationColumns + `
			  FROM violations
			  WHERE timestamp >= $1 AND timestamp <= $2
			  ORDER BY timestamp ASC`
	return p.query(ctx, query, from, to)
}

// ListUnresolved retrieves violations not yet marked resolved.
func (p *PostgreSQLViolationRepository) ListUnresolved(ctx context.Context) ([]*auditDomain.Violation, error) {
	query := `SELECT ` + violationColumns + `
			  FROM violations
			  WHERE resolved = false
			  ORDER BY timestamp ASC`
	return p.query(ctx, query)
}

// Resolve marks a violation resolved.
func (p *PostgreSQLViolationRepository) Resolve(ctx context.Context, violationID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(
		ctx,
		`UPDATE violations SET resolved = true WHERE violation_id = $1`,
		violationID,
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
func (p *PostgreSQLViolationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(
		ctx,
		`DELETE FROM violations WHERE resolved = true AND timestamp < $1`,
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

func (p *PostgreSQLViolationRepository) query(
	ctx context.Context,
	query string,
	args ...any,
) ([]*auditDomain.Violation, error) {
	querier := database.GetTx(ctx, p.db)

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
		var violationType, severity string
		var resourcesJSON []byte

		err := rows.Scan(
			&violation.ViolationID,
			&violation.EventID,
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

func marshalResources(resources []string) ([]byte, error) {
	if resources == nil {
		return nil, nil
	}
	resourcesJSON, err := json.Marshal(resources)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal affected resources")
	}
	return resourcesJSON, nil
}
