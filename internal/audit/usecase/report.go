package usecase

import (
	"time"

	auditDomain "github.com/medguard/compliance/internal/audit/domain"
)

// ReportSummary holds the headline counts of a compliance report.
type ReportSummary struct {
	TotalEvents          int `json:"totalEvents"`
	PHIAccesses          int `json:"phiAccesses"`
	Violations           int `json:"violations"`
	UnauthorizedAttempts int `json:"unauthorizedAttempts"`
	FailedEvents         int `json:"failedEvents"`
	HighRiskEvents       int `json:"highRiskEvents"`
}

// ReportStatistics holds the distribution figures of a compliance report.
type ReportStatistics struct {
	EventsByType   map[auditDomain.EventType]int `json:"eventsByType"`
	UniqueUsers    int                           `json:"uniqueUsers"`
	UniquePatients int                           `json:"uniquePatients"`
	AverageRisk    float64                       `json:"averageRisk"`
}

// ComplianceReport summarizes the audit trail over a reporting window.
type ComplianceReport struct {
	From            time.Time                `json:"from"`
	To              time.Time                `json:"to"`
	GeneratedAt     time.Time                `json:"generatedAt"`
	Summary         ReportSummary            `json:"summary"`
	Statistics      ReportStatistics         `json:"statistics"`
	Recommendations []string                 `json:"recommendations"`
	Events          []*auditDomain.AuditLog  `json:"events,omitempty"`
	ViolationList   []*auditDomain.Violation `json:"violationList,omitempty"`
}
