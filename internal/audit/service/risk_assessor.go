// Package service implements risk scoring and compliance violation detection
// over audit events.
package service

import (
	auditDomain "github.com/medguard/compliance/internal/audit/domain"
)

// Risk score weights. Each factor contributes independently; the final score
// is clamped to [0, 100].
const (
	riskBase            = 10
	riskPHIAccess       = 25
	riskFailure         = 20
	riskEmergencyAccess = 15
	riskAfterHours      = 15
	riskHighRiskEvent   = 25
	riskMax             = 100
)

// RiskAssessor scores audit events by their compliance risk.
type RiskAssessor struct {
	policy auditDomain.BusinessHoursPolicy
}

// NewRiskAssessor creates a RiskAssessor with the given business-hours policy.
func NewRiskAssessor(policy auditDomain.BusinessHoursPolicy) *RiskAssessor {
	return &RiskAssessor{policy: policy}
}

// Score computes the risk score of an event. Each present risk factor
// strictly increases the score until the cap.
func (r *RiskAssessor) Score(entry *auditDomain.AuditLog) int {
	score := riskBase
	if entry.PHIAccessed {
		score += riskPHIAccess
	}
	if entry.Outcome == auditDomain.OutcomeFailure {
		score += riskFailure
	}
	if entry.EmergencyAccess() {
		score += riskEmergencyAccess
	}
	if !r.policy.Within(entry.Timestamp) {
		score += riskAfterHours
	}
	if entry.EventType.HighRisk() {
		score += riskHighRiskEvent
	}
	if score > riskMax {
		score = riskMax
	}
	return score
}
