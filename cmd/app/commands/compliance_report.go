package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	auditUsecase "github.com/medguard/compliance/internal/audit/usecase"
)

// RunComplianceReport generates a compliance report over the given window and
// writes it in the requested format. With includeDetails the report carries
// the individual audit entries and violations instead of just the aggregates.
func RunComplianceReport(
	ctx context.Context,
	auditTrail auditUsecase.AuditTrailUseCase,
	logger *slog.Logger,
	w io.Writer,
	from, to time.Time,
	includeDetails bool,
	format string,
) error {
	if !to.After(from) {
		return fmt.Errorf("report window is empty: from %s to %s", from, to)
	}

	logger.Info("generating compliance report",
		slog.Time("from", from),
		slog.Time("to", to),
		slog.Bool("details", includeDetails),
	)

	report, err := auditTrail.GenerateComplianceReport(ctx, from, to, includeDetails)
	if err != nil {
		return fmt.Errorf("failed to generate compliance report: %w", err)
	}

	if format == "json" {
		encoded, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal compliance report: %w", err)
		}
		fmt.Fprintln(w, string(encoded))
		return nil
	}

	fmt.Fprintf(w, "Compliance report %s to %s\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
	fmt.Fprintf(w, "  Total events:          %d\n", report.Summary.TotalEvents)
	fmt.Fprintf(w, "  PHI accesses:          %d\n", report.Summary.PHIAccesses)
	fmt.Fprintf(w, "  Violations:            %d\n", report.Summary.Violations)
	fmt.Fprintf(w, "  Unauthorized attempts: %d\n", report.Summary.UnauthorizedAttempts)
	fmt.Fprintf(w, "  Failed events:         %d\n", report.Summary.FailedEvents)
	fmt.Fprintf(w, "  High risk events:      %d\n", report.Summary.HighRiskEvents)
	fmt.Fprintf(w, "  Unique users:          %d\n", report.Statistics.UniqueUsers)
	fmt.Fprintf(w, "  Unique patients:       %d\n", report.Statistics.UniquePatients)
	fmt.Fprintf(w, "  Average risk score:    %.1f\n", report.Statistics.AverageRisk)
	for _, recommendation := range report.Recommendations {
		fmt.Fprintf(w, "  - %s\n", recommendation)
	}

	return nil
}
