package service

import (
	auditDomain "github.com/medguard/compliance/internal/audit/domain"
)

// ViolationDetector evaluates independent compliance rules against each
// logged event. Stateless; an event may trigger zero, one, or several
// violations.
type ViolationDetector struct {
	policy auditDomain.BusinessHoursPolicy
}

// NewViolationDetector creates a ViolationDetector with the given
// business-hours policy.
func NewViolationDetector(policy auditDomain.BusinessHoursPolicy) *ViolationDetector {
	return &ViolationDetector{policy: policy}
}

// Detect runs all rules against the entry and returns the violations found.
// In-hours access and emergency-flagged after-hours access yield none.
func (d *ViolationDetector) Detect(entry *auditDomain.AuditLog) []auditDomain.Violation {
	var violations []auditDomain.Violation

	if entry.EventType == auditDomain.EventUnauthorizedAccess {
		violations = append(violations, d.newViolation(entry,
			auditDomain.ViolationUnauthorizedAccess,
			auditDomain.ViolationSeverityHigh,
			"unauthorized access attempt",
			true,
		))
	}

	if entry.PHIAccessed && !d.policy.Within(entry.Timestamp) && !entry.EmergencyAccess() {
		violations = append(violations, d.newViolation(entry,
			auditDomain.ViolationAfterHoursAccess,
			auditDomain.ViolationSeverityMedium,
			"PHI accessed outside business hours without emergency justification",
			false,
		))
	}

	isExport := entry.EventType == auditDomain.EventDataExport ||
		entry.EventType == auditDomain.EventBulkExport
	if isExport && entry.PHIAccessed {
		violations = append(violations, d.newViolation(entry,
			auditDomain.ViolationBulkExport,
			auditDomain.ViolationSeverityHigh,
			"bulk export of PHI data",
			true,
		))
	}

	return violations
}

func (d *ViolationDetector) newViolation(
	entry *auditDomain.AuditLog,
	violationType auditDomain.ViolationType,
	severity auditDomain.ViolationSeverity,
	description string,
	notify bool,
) auditDomain.Violation {
	var resources []string
	if entry.ResourceID != "" {
		resources = append(resources, entry.ResourceType+":"+entry.ResourceID)
	}
	return auditDomain.Violation{
		ViolationID:          auditDomain.NewEventID(),
		EventID:              entry.EventID,
		Timestamp:            entry.Timestamp,
		ViolationType:        violationType,
		Severity:             severity,
		Description:          description,
		AffectedResources:    resources,
		UserID:               entry.UserID,
		RequiresNotification: notify,
	}
}
