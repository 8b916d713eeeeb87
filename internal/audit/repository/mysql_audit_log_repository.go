package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/medguard/compliance/internal/audit/domain"
	"github.com/medguard/compliance/internal/database"
	apperrors "github.com/medguard/compliance/internal/errors"
)

// MySQLAuditLogRepository implements audit log persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via
// database.GetTx().
type MySQLAuditLogRepository struct {
	db *sql.DB
}

// NewMySQLAuditLogRepository creates a new MySQLAuditLogRepository.
func NewMySQLAuditLogRepository(db *sql.DB) *MySQLAuditLogRepository {
	return &MySQLAuditLogRepository{db: db}
}

// Store inserts a new audit log entry using BINARY(16) for the event id.
func (m *MySQLAuditLogRepository) Store(ctx context.Context, entry *auditDomain.AuditLog) error {
	querier := database.GetTx(ctx, m.db)

	contextJSON, err := marshalContext(entry.Context)
	if err != nil {
		return err
	}

	eventID, err := entry.EventID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit event id")
	}

	query := `INSERT INTO audit_logs (` + auditLogColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		eventID,
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
		if strings.Contains(err.Error(), "Duplicate entry") {
			return apperrors.Wrap(apperrors.ErrConflict, "duplicate audit event id")
		}
		return apperrors.Wrap(err, "failed to store audit log")
	}
	return nil
}

// ListByDateRange retrieves entries within the inclusive time window,
// oldest first.
func (m *MySQLAuditLogRepository) ListByDateRange(
	ctx context.Context,
	from, to time.Time,
) ([]*auditDomain.AuditLog, error) {
	query := `SELECT ` + auditLogColumns + `
			  FROM audit_logs
			  WHERE timestamp >= ? AND timestamp <= ?
			  ORDER BY timestamp ASC`
	return m.query(ctx, query, from, to)
}

// ListByPatient retrieves entries concerning the patient, optionally bounded.
func (m *MySQLAuditLogRepository) ListByPatient(
	ctx context.Context,
	patientID string,
	from, to *time.Time,
) ([]*auditDomain.AuditLog, error) {
	query := `SELECT ` + auditLogColumns + `
			  FROM audit_logs
			  WHERE patient_id = ?`
	args := []any{patientID}
	query, args = appendBounds(query, args, from, to, "?")
	query += ` ORDER BY timestamp ASC`
	return m.query(ctx, query, args...)
}

// ListByUser retrieves entries produced by the user, optionally bounded.
func (m *MySQLAuditLogRepository) ListByUser(
	ctx context.Context,
	userID string,
	from, to *time.Time,
) ([]*auditDomain.AuditLog, error) {
	query := `SELECT ` + auditLogColumns + `
			  FROM audit_logs
			  WHERE user_id = ?`
	args := []any{userID}
	query, args = appendBounds(query, args, from, to, "?")
	query += ` ORDER BY timestamp ASC`
	return m.query(ctx, query, args...)
}

// Search retrieves entries matching every set criterion, oldest first.
func (m *MySQLAuditLogRepository) Search(
	ctx context.Context,
	criteria auditDomain.SearchCriteria,
) ([]*auditDomain.AuditLog, error) {
	query := `SELECT ` + auditLogColumns + ` FROM audit_logs WHERE 1=1`
	var args []any

	addClause := func(clause string, value any) {
		args = append(args, value)
		query += ` AND ` + clause + ` ?`
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
		query += ` LIMIT ?`
	}
	return m.query(ctx, query, args...)
}

// DeleteOlderThan removes entries older than the cutoff for retention
// cleanup and returns the number of rows removed.
func (m *MySQLAuditLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)
	result, err := querier.ExecContext(ctx, `DELETE FROM audit_logs WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired audit logs")
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count deleted audit logs")
	}
	return removed, nil
}

func (m *MySQLAuditLogRepository) query(
	ctx context.Context,
	query string,
	args ...any,
) ([]*auditDomain.AuditLog, error) {
	querier := database.GetTx(ctx, m.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to query audit logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*auditDomain.AuditLog, 0)
	for rows.Next() {
		entry, err := scanMySQLAuditLog(rows)
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

// scanMySQLAuditLog reads one audit log row, decoding the BINARY(16) event id.
func scanMySQLAuditLog(rows *sql.Rows) (*auditDomain.AuditLog, error) {
	var entry auditDomain.AuditLog
	var eventIDBytes []byte
	var eventType, outcome string
	var resourceID, ipAddress, userAgent, sessionID, patientID sql.NullString
	var contextJSON []byte

	err := rows.Scan(
		&eventIDBytes,
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

	eventID, err := uuid.FromBytes(eventIDBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal audit event id")
	}

	entry.EventID = eventID
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
