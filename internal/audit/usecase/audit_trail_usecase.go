package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/medguard/compliance/internal/audit/domain"
	"github.com/medguard/compliance/internal/audit/service"
	"github.com/medguard/compliance/internal/database"
	apperrors "github.com/medguard/compliance/internal/errors"
)

// AuditTrailService implements the AuditTrailUseCase interface.
//
// Every logged event is risk-scored, persisted append-only, and checked
// against the violation rules. Violation persistence failures are logged but
// do not fail the event itself; the audit entry is the primary record.
type AuditTrailService struct {
	txManager         database.TxManager
	auditLogs         AuditLogRepository
	violations        ViolationRepository
	riskAssessor      *service.RiskAssessor
	violationDetector *service.ViolationDetector
	clock             auditDomain.Clock
	logger            *slog.Logger
	highRiskThreshold int
}

// NewAuditTrailService creates a new AuditTrailService. Entries scoring at or
// above highRiskThreshold are flagged for review.
func NewAuditTrailService(
	txManager database.TxManager,
	auditLogs AuditLogRepository,
	violations ViolationRepository,
	riskAssessor *service.RiskAssessor,
	violationDetector *service.ViolationDetector,
	clock auditDomain.Clock,
	logger *slog.Logger,
	highRiskThreshold int,
) *AuditTrailService {
	return &AuditTrailService{
		txManager:         txManager,
		auditLogs:         auditLogs,
		violations:        violations,
		riskAssessor:      riskAssessor,
		violationDetector: violationDetector,
		clock:             clock,
		logger:            logger,
		highRiskThreshold: highRiskThreshold,
	}
}

func (s *AuditTrailService) LogEvent(
	ctx context.Context,
	input LogEventInput,
) (*auditDomain.AuditLog, error) {
	entry := &auditDomain.AuditLog{
		EventID:      auditDomain.NewEventID(),
		Timestamp:    s.clock.Now().UTC(),
		UserID:       input.UserID,
		UserRole:     input.UserRole,
		EventType:    input.EventType,
		ResourceType: input.ResourceType,
		ResourceID:   input.ResourceID,
		Action:       input.Action,
		Outcome:      input.Outcome,
		IPAddress:    input.IPAddress,
		UserAgent:    input.UserAgent,
		SessionID:    input.SessionID,
		PHIAccessed:  input.PHIAccessed,
		Context:      input.Context,
	}

	entry.RiskScore = s.riskAssessor.Score(entry)
	detected := s.violationDetector.Detect(entry)
	entry.RequiresReview = len(detected) > 0 || entry.RiskScore >= s.highRiskThreshold

	if err := s.auditLogs.Store(ctx, entry); err != nil {
		return nil, apperrors.Wrap(auditDomain.ErrAuditWriteFailed, err.Error())
	}

	for i := range detected {
		if err := s.violations.Store(ctx, &detected[i]); err != nil {
			s.logger.Error("failed to persist violation",
				"violation_id", detected[i].ViolationID,
				"event_id", entry.EventID,
				"error", err,
			)
		}
	}
	return entry, nil
}

func (s *AuditTrailService) LogPatientAccess(
	ctx context.Context,
	input LogEventInput,
	patientID string,
	dataFields []string,
) (*auditDomain.AuditLog, error) {
	input.ResourceType = "patient"
	input.ResourceID = patientID
	input.PHIAccessed = true
	if input.Context == nil {
		input.Context = &auditDomain.AccessContext{}
	}
	input.Context.PatientID = patientID
	input.Context.DataFields = dataFields
	return s.LogEvent(ctx, input)
}

func (s *AuditTrailService) LogMedicalRecordAccess(
	ctx context.Context,
	input LogEventInput,
	recordID string,
	patientID string,
) (*auditDomain.AuditLog, error) {
	input.ResourceType = "medical_record"
	input.ResourceID = recordID
	input.PHIAccessed = true
	if input.Context == nil {
		input.Context = &auditDomain.AccessContext{}
	}
	input.Context.PatientID = patientID
	return s.LogEvent(ctx, input)
}

func (s *AuditTrailService) GetPatientAuditTrail(
	ctx context.Context,
	patientID string,
	from, to *time.Time,
) ([]*auditDomain.AuditLog, error) {
	return s.auditLogs.ListByPatient(ctx, patientID, from, to)
}

func (s *AuditTrailService) GetUserAuditTrail(
	ctx context.Context,
	userID string,
	from, to *time.Time,
) ([]*auditDomain.AuditLog, error) {
	return s.auditLogs.ListByUser(ctx, userID, from, to)
}

func (s *AuditTrailService) SearchAuditLogs(
	ctx context.Context,
	criteria auditDomain.SearchCriteria,
) ([]*auditDomain.AuditLog, error) {
	return s.auditLogs.Search(ctx, criteria)
}

func (s *AuditTrailService) GenerateComplianceReport(
	ctx context.Context,
	from, to time.Time,
	includeDetails bool,
) (*ComplianceReport, error) {
	entries, err := s.auditLogs.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load audit trail for report")
	}
	violations, err := s.violations.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load violations for report")
	}

	report := &ComplianceReport{
		From:        from,
		To:          to,
		GeneratedAt: s.clock.Now().UTC(),
		Statistics: ReportStatistics{
			EventsByType: make(map[auditDomain.EventType]int),
		},
	}

	users := make(map[string]struct{})
	patients := make(map[string]struct{})
	var riskTotal int

	for _, entry := range entries {
		report.Summary.TotalEvents++
		report.Statistics.EventsByType[entry.EventType]++
		riskTotal += entry.RiskScore

		if entry.PHIAccessed {
			report.Summary.PHIAccesses++
		}
		if entry.EventType == auditDomain.EventUnauthorizedAccess {
			report.Summary.UnauthorizedAttempts++
		}
		if entry.Outcome == auditDomain.OutcomeFailure {
			report.Summary.FailedEvents++
		}
		if entry.RiskScore >= s.highRiskThreshold {
			report.Summary.HighRiskEvents++
		}
		users[entry.UserID] = struct{}{}
		if patientID := entry.PatientID(); patientID != "" {
			patients[patientID] = struct{}{}
		}
	}

	report.Summary.Violations = len(violations)
	report.Statistics.UniqueUsers = len(users)
	report.Statistics.UniquePatients = len(patients)
	if report.Summary.TotalEvents > 0 {
		report.Statistics.AverageRisk = float64(riskTotal) / float64(report.Summary.TotalEvents)
	}
	report.Recommendations = s.recommendations(report)

	if includeDetails {
		report.Events = entries
		report.ViolationList = violations
	}
	return report, nil
}

// recommendations derives textual guidance from the same thresholds used for
// review flagging.
func (s *AuditTrailService) recommendations(report *ComplianceReport) []string {
	recommendations := []string{}
	total := report.Summary.TotalEvents
	if total == 0 {
		return recommendations
	}

	if report.Summary.UnauthorizedAttempts > 0 {
		recommendations = append(recommendations, fmt.Sprintf(
			"%d unauthorized access attempt(s) detected; review access controls and user permissions",
			report.Summary.UnauthorizedAttempts,
		))
	}
	if report.Summary.Violations > 0 {
		recommendations = append(recommendations, fmt.Sprintf(
			"%d compliance violation(s) recorded; investigate and document resolution",
			report.Summary.Violations,
		))
	}
	if failureRate := float64(report.Summary.FailedEvents) / float64(total); failureRate > 0.1 {
		recommendations = append(recommendations, fmt.Sprintf(
			"failure rate %.0f%% exceeds 10%%; review failing workflows",
			failureRate*100,
		))
	}
	if report.Statistics.AverageRisk >= float64(s.highRiskThreshold) {
		recommendations = append(recommendations,
			"average risk score is at or above the review threshold; audit high-risk activity",
		)
	}
	return recommendations
}

func (s *AuditTrailService) ListOpenViolations(ctx context.Context) ([]*auditDomain.Violation, error) {
	return s.violations.ListUnresolved(ctx)
}

func (s *AuditTrailService) ResolveViolation(ctx context.Context, violationID uuid.UUID) error {
	if err := s.violations.Resolve(ctx, violationID); err != nil {
		return apperrors.Wrapf(err, "failed to resolve violation %s", violationID)
	}
	return nil
}

func (s *AuditTrailService) CleanupExpired(
	ctx context.Context,
	retention time.Duration,
) (int64, error) {
	cutoff := s.clock.Now().UTC().Add(-retention)

	var removedLogs, removedViolations int64
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		removedLogs, err = s.auditLogs.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return err
		}
		removedViolations, err = s.violations.DeleteOlderThan(ctx, cutoff)
		return err
	})
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to clean up expired audit logs")
	}

	if removedLogs > 0 || removedViolations > 0 {
		s.logger.Info("removed expired audit data",
			"audit_logs", removedLogs,
			"violations", removedViolations,
			"cutoff", cutoff,
		)
	}
	return removedLogs, nil
}
