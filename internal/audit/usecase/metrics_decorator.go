package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/medguard/compliance/internal/audit/domain"
	"github.com/medguard/compliance/internal/metrics"
)

const metricsDomain = "audit"

// MetricsAuditTrailUseCase decorates an AuditTrailUseCase with operation
// counters and duration histograms.
type MetricsAuditTrailUseCase struct {
	next            AuditTrailUseCase
	businessMetrics metrics.BusinessMetrics
}

// NewMetricsAuditTrailUseCase creates a new MetricsAuditTrailUseCase.
func NewMetricsAuditTrailUseCase(
	next AuditTrailUseCase,
	businessMetrics metrics.BusinessMetrics,
) *MetricsAuditTrailUseCase {
	return &MetricsAuditTrailUseCase{next: next, businessMetrics: businessMetrics}
}

func (m *MetricsAuditTrailUseCase) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.businessMetrics.RecordOperation(ctx, metricsDomain, operation, status)
	m.businessMetrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

func (m *MetricsAuditTrailUseCase) LogEvent(
	ctx context.Context,
	input LogEventInput,
) (*auditDomain.AuditLog, error) {
	start := time.Now()
	entry, err := m.next.LogEvent(ctx, input)
	m.record(ctx, "log_event", start, err)
	return entry, err
}

func (m *MetricsAuditTrailUseCase) LogPatientAccess(
	ctx context.Context,
	input LogEventInput,
	patientID string,
	dataFields []string,
) (*auditDomain.AuditLog, error) {
	start := time.Now()
	entry, err := m.next.LogPatientAccess(ctx, input, patientID, dataFields)
	m.record(ctx, "log_patient_access", start, err)
	return entry, err
}

func (m *MetricsAuditTrailUseCase) LogMedicalRecordAccess(
	ctx context.Context,
	input LogEventInput,
	recordID string,
	patientID string,
) (*auditDomain.AuditLog, error) {
	start := time.Now()
	entry, err := m.next.LogMedicalRecordAccess(ctx, input, recordID, patientID)
	m.record(ctx, "log_medical_record_access", start, err)
	return entry, err
}

func (m *MetricsAuditTrailUseCase) GetPatientAuditTrail(
	ctx context.Context,
	patientID string,
	from, to *time.Time,
) ([]*auditDomain.AuditLog, error) {
	start := time.Now()
	entries, err := m.next.GetPatientAuditTrail(ctx, patientID, from, to)
	m.record(ctx, "get_patient_audit_trail", start, err)
	return entries, err
}

func (m *MetricsAuditTrailUseCase) GetUserAuditTrail(
	ctx context.Context,
	userID string,
	from, to *time.Time,
) ([]*auditDomain.AuditLog, error) {
	start := time.Now()
	entries, err := m.next.GetUserAuditTrail(ctx, userID, from, to)
	m.record(ctx, "get_user_audit_trail", start, err)
	return entries, err
}

func (m *MetricsAuditTrailUseCase) SearchAuditLogs(
	ctx context.Context,
	criteria auditDomain.SearchCriteria,
) ([]*auditDomain.AuditLog, error) {
	start := time.Now()
	entries, err := m.next.SearchAuditLogs(ctx, criteria)
	m.record(ctx, "search_audit_logs", start, err)
	return entries, err
}

func (m *MetricsAuditTrailUseCase) GenerateComplianceReport(
	ctx context.Context,
	from, to time.Time,
	includeDetails bool,
) (*ComplianceReport, error) {
	start := time.Now()
	report, err := m.next.GenerateComplianceReport(ctx, from, to, includeDetails)
	m.record(ctx, "generate_compliance_report", start, err)
	return report, err
}

func (m *MetricsAuditTrailUseCase) ListOpenViolations(
	ctx context.Context,
) ([]*auditDomain.Violation, error) {
	start := time.Now()
	violations, err := m.next.ListOpenViolations(ctx)
	m.record(ctx, "list_open_violations", start, err)
	return violations, err
}

func (m *MetricsAuditTrailUseCase) ResolveViolation(
	ctx context.Context,
	violationID uuid.UUID,
) error {
	start := time.Now()
	err := m.next.ResolveViolation(ctx, violationID)
	m.record(ctx, "resolve_violation", start, err)
	return err
}

func (m *MetricsAuditTrailUseCase) CleanupExpired(
	ctx context.Context,
	retention time.Duration,
) (int64, error) {
	start := time.Now()
	removed, err := m.next.CleanupExpired(ctx, retention)
	m.record(ctx, "cleanup_expired", start, err)
	return removed, err
}
