package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	auditDomain "github.com/medguard/compliance/internal/audit/domain"
	"github.com/medguard/compliance/internal/database"
	apperrors "github.com/medguard/compliance/internal/errors"
)

// PostgreSQLAuditLogRepository implements audit log persistence for
// PostgreSQL. Uses native UUID types with transaction support via
// database.GetTx(). The access context is stored as JSONB with the patient id
// additionally extracted into its own column for queryability.
type PostgreSQLAuditLogRepository struct {
	db *sql.DB
}

// NewPostgreSQLAuditLogRepository creates a new PostgreSQLAuditLogRepository.
func NewPostgreSQLAuditLogRepository(db *sql.DB) *PostgreSQLAuditLogRepository {
	return &PostgreSQLAuditLogRepository{db: db}
}

const auditLogColumns = `event_id, timestamp, user_id, user_role, event_type, resource_type,
	resource_id, action, outcome, ip_address, user_agent, session_id,
	phi_accessed, risk_score, patient_id, context, requires_review`

// Store inserts a new audit log entry. Append-only: a duplicate event id
// fails with a conflict instead of overwriting.
func (p *PostgreSQLAuditLogRepository) Store(ctx context.Context, entry *auditDomain.AuditLog) error {
	querier := database.GetTx(ctx, p.db)

	contextJSON, err := marshalContext(entry.Context)
	if err != nil {
		return err
	}

	query := `INSERT INTO audit_logs (` + auditLogColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err = querier.ExecContext(
		ctx,
		query,
		entry.EventID,
		entry.Timestamp,
		entry.UserID,
		entry.UserRole,
		string(entry.EventType),
		entry.ResourceType,
		nullString(entry.ResourceID),
		entry.Action,
		string(entry.Outcome),
		nullString(entry.IPAddress),
		nullString(entry.UserAgent),
		nullString(entry.SessionID),
		entry.PHIAccessed,
		entry.RiskScore,
		nullString(entry.PatientID()),
		contextJSON,
		entry.RequiresReview,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return apperrors.Wrap(apperrors.ErrConflict, "duplicate audit event id")
		}
		return apperrors.Wrap(err, "failed to store audit log")
	}
	return nil
}

// ListByDateRange retrieves entries within the inclusive time window,
// oldest first.
func (p *PostgreSQLAuditLogRepository) ListByDateRange(
	ctx context.Context,
	from, to time.Time,
) ([]*auditDomain.AuditLog, error) {
	query := `SELECT ` + auditLogColumns + `
			  FROM audit_logs
			  WHERE timestamp >= $1 AND timestamp <= $2
			  ORDER BY timestamp ASC`
	return p.query(ctx, query, from, to)
}

// ListByPatient retrieves entries concerning the patient, optionally bounded.
func (p *PostgreSQLAuditLogRepository) ListByPatient(
	ctx context.Context,
	patientID string,
	from, to *time.Time,
) ([]*auditDomain.AuditLog, error) {
	query := `SELECT ` + auditLogColumns + `
			  FROM audit_logs
			  WHERE patient_id = $1`
	args := []any{patientID}
	query, args = appendBounds(query, args, from, to, "$")
	query += ` ORDER BY timestamp ASC`
	return p.query(ctx, query, args...)
}

// ListByUser retrieves entries produced by the user, optionally bounded.
func (p *PostgreSQLAuditLogRepository) ListByUser(
	ctx context.Context,
	userID string,
	from, to *time.Time,
) ([]*auditDomain.AuditLog, error) {
	query := `SELECT ` + auditLogColumns + `
			  FROM audit_logs
			  WHERE user_id = $1`
	args := []any{userID}
	query, args = appendBounds(query, args, from, to, "$")
	query += ` ORDER BY timestamp ASC`
	return p.query(ctx, query, args...)
}

// Search retrieves entries matching every set criterion, oldest first.
func (p *PostgreSQLAuditLogRepository) Search(
	ctx context.Context,
	criteria auditDomain.SearchCriteria,
) ([]*auditDomain.AuditLog, error) {
	query := `SELECT ` + auditLogColumns + ` FROM audit_logs WHERE 1=1`
	var args []any

	addClause := func(clause string, value any) {
		args = append(args, value)
		query += fmt.Sprintf(" AND %s $%d", clause, len(args))
	}

	if criteria.UserID != "" {
		addClause("user_id =", criteria.UserID)
	}
	if criteria.PatientID != "" {
		addClause("patient_id =", criteria.PatientID)
	}
	if criteria.EventType != "" {
		addClause("event_type =", string(criteria.EventType))
	}
	if criteria.Outcome != "" {
		addClause("outcome =", string(criteria.Outcome))
	}
	if criteria.MinRiskScore != nil {
		addClause("risk_score >=", *criteria.MinRiskScore)
	}
	if criteria.MaxRiskScore != nil {
		addClause("risk_score <=", *criteria.MaxRiskScore)
	}
	if criteria.From != nil {
		addClause("timestamp >=", *criteria.From)
	}
	if criteria.To != nil {
		addClause("timestamp <=", *criteria.To)
	}

	query += ` ORDER BY timestamp ASC`
	if criteria.Limit > 0 {
		args = append(args, criteria.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return p.query(ctx, query, args...)
}

// DeleteOlderThan removes entries older than the cutoff for retention
// cleanup and returns the number of rows removed.
func (p *PostgreSQLAuditLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)
	result, err := querier.ExecContext(ctx, `DELETE FROM audit_logs WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired audit logs")
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count deleted audit logs")
	}
	return removed, nil
}

func (p *PostgreSQLAuditLogRepository) query(
	ctx context.Context,
	query string,
	args ...any,
) ([]*auditDomain.AuditLog, error) {
	querier := database.GetTx(ctx, p.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to query audit logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*auditDomain.AuditLog, 0)
	for rows.Next() {
		entry, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit logs")
	}
	return entries, nil
}

// scanAuditLog reads one audit log row. The patient_id column is a query
// convenience only; the context JSON remains the source of truth.
func scanAuditLog(rows *sql.Rows) (*auditDomain.AuditLog, error) {
	var entry auditDomain.AuditLog
	var eventType, outcome string
	var resourceID, ipAddress, userAgent, sessionID, patientID sql.NullString
	var contextJSON []byte

	err := rows.Scan(
		&entry.EventID,
		&entry.Timestamp,
		&entry.UserID,
		&entry.UserRole,
		&eventType,
		&entry.ResourceType,
		&resourceID,
		&entry.Action,
		&outcome,
		&ipAddress,
		&userAgent,
		&sessionID,
		&entry.PHIAccessed,
		&entry.RiskScore,
		&patientID,
		&contextJSON,
		&entry.RequiresReview,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan audit log")
	}

	entry.EventType = auditDomain.EventType(eventType)
	entry.Outcome = auditDomain.Outcome(outcome)
	entry.ResourceID = resourceID.String
	entry.IPAddress = ipAddress.String
	entry.UserAgent = userAgent.String
	entry.SessionID = sessionID.String

	if len(contextJSON) > 0 {
		var accessContext auditDomain.AccessContext
		if err := json.Unmarshal(contextJSON, &accessContext); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit log context")
		}
		entry.Context = &accessContext
	}
	return &entry, nil
}

func marshalContext(accessContext *auditDomain.AccessContext) ([]byte, error) {
	if accessContext == nil {
		return nil, nil
	}
	contextJSON, err := json.Marshal(accessContext)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal audit log context")
	}
	return contextJSON, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// appendBounds adds optional time bound clauses using the driver's
// placeholder style ("$" for PostgreSQL, "?" for MySQL).
func appendBounds(query string, args []any, from, to *time.Time, style string) (string, []any) {
	placeholder := func(n int) string {
		if style == "$" {
			return fmt.Sprintf("$%d", n)
		}
		return "?"
	}
	if from != nil {
		args = append(args, *from)
		query += ` AND timestamp >= ` + placeholder(len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += ` AND timestamp <= ` + placeholder(len(args))
	}
	return query, args
}
