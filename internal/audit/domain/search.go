package domain

import "time"

// SearchCriteria is the multi-field audit log query. Zero-valued fields are
// ignored; nil bounds mean unbounded.
type SearchCriteria struct {
	UserID       string
	PatientID    string
	EventType    EventType
	Outcome      Outcome
	MinRiskScore *int
	MaxRiskScore *int
	From         *time.Time
	To           *time.Time
	Limit        int
}

// Matches reports whether the entry satisfies every set criterion.
func (c SearchCriteria) Matches(entry *AuditLog) bool {
	if c.UserID != "" && entry.UserID != c.UserID {
		return false
	}
	if c.PatientID != "" && entry.PatientID() != c.PatientID {
		return false
	}
	if c.EventType != "" && entry.EventType != c.EventType {
		return false
	}
	if c.Outcome != "" && entry.Outcome != c.Outcome {
		return false
	}
	if c.MinRiskScore != nil && entry.RiskScore < *c.MinRiskScore {
		return false
	}
	if c.MaxRiskScore != nil && entry.RiskScore > *c.MaxRiskScore {
		return false
	}
	if c.From != nil && entry.Timestamp.Before(*c.From) {
		return false
	}
	if c.To != nil && entry.Timestamp.After(*c.To) {
		return false
	}
	return true
}
