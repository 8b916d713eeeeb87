package service

import (
	"regexp"

	sanitizeDomain "github.com/medguard/compliance/internal/sanitize/domain"
)

// threatPattern pairs a detection regexp with the finding it produces.
type threatPattern struct {
	re          *regexp.Regexp
	threatType  sanitizeDomain.ThreatType
	severity    sanitizeDomain.Severity
	description string
}

// Detection patterns are tuned against clinical prose: diagnoses, medication
// names, and vitals readings must never match, so each pattern anchors on
// syntax that has no legitimate use in form input.
var threatPatterns = []threatPattern{
	{
		re:          regexp.MustCompile(`(?i)<\s*script\b|<\s*iframe\b|<\s*svg\b[^>]*\bon`),
		threatType:  sanitizeDomain.ThreatXSS,
		severity:    sanitizeDomain.SeverityHigh,
		description: "script or active content injection",
	},
	{
		re:          regexp.MustCompile(`(?i)javascript\s*:|\bon(error|load|click|mouseover)\s*=`),
		threatType:  sanitizeDomain.ThreatXSS,
		severity:    sanitizeDomain.SeverityMedium,
		description: "javascript URI or event handler injection",
	},
	{
		re:          regexp.MustCompile(`(?i)('|")\s*(or|and)\s*('|")?\s*\d*\s*('|")?\s*=|union\s+select|insert\s+into|drop\s+table|delete\s+from`),
		threatType:  sanitizeDomain.ThreatSQLInjection,
		severity:    sanitizeDomain.SeverityHigh,
		description: "SQL injection pattern",
	},
	{
		re:          regexp.MustCompile(`(?i)'\s*--|;\s*(select|update|drop|delete)\b`),
		threatType:  sanitizeDomain.ThreatSQLInjection,
		severity:    sanitizeDomain.SeverityMedium,
		description: "SQL comment or stacked query",
	},
	{
		re:          regexp.MustCompile(`(?i)\.\.[/\\]|%2e%2e|/etc/(passwd|shadow)|\\windows\\system32`),
		threatType:  sanitizeDomain.ThreatPathTraversal,
		severity:    sanitizeDomain.SeverityHigh,
		description: "path traversal sequence",
	},
	{
		re:          regexp.MustCompile("`[^`]*`" + `|\$\([^)]*\)`),
		threatType:  sanitizeDomain.ThreatCommandInjection,
		severity:    sanitizeDomain.SeverityHigh,
		description: "shell command substitution",
	},
	{
		re:          regexp.MustCompile(`(?i)[;&|]\s*(rm|cat|wget|curl|nc|bash|sh|powershell)\b`),
		threatType:  sanitizeDomain.ThreatCommandInjection,
		severity:    sanitizeDomain.SeverityHigh,
		description: "chained shell command",
	},
}

// DetectThreats scans the input against all threat patterns. Each threat type
// is reported at most once, at the highest severity that matched.
func (s *SanitizerService) DetectThreats(input string) *sanitizeDomain.ThreatReport {
	report := &sanitizeDomain.ThreatReport{Threats: []sanitizeDomain.ThreatFinding{}}
	seen := make(map[sanitizeDomain.ThreatType]bool)

	for _, pattern := range threatPatterns {
		if seen[pattern.threatType] || !pattern.re.MatchString(input) {
			continue
		}
		seen[pattern.threatType] = true
		report.Threats = append(report.Threats, sanitizeDomain.ThreatFinding{
			Type:        pattern.threatType,
			Severity:    pattern.severity,
			Description: pattern.description,
		})
	}

	report.HasThreats = len(report.Threats) > 0
	return report
}
