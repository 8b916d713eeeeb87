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

// RunCleanAuditLogs deletes audit logs and resolved violations older than the
// specified number of days. Supports text and JSON output formats.
func RunCleanAuditLogs(
	ctx context.Context,
	auditTrail auditUsecase.AuditTrailUseCase,
	logger *slog.Logger,
	w io.Writer,
	days int,
	format string,
) error {
	if days <= 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	logger.Info("cleaning audit logs", slog.Int("days", days))

	count, err := auditTrail.CleanupExpired(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		return fmt.Errorf("failed to delete audit logs: %w", err)
	}

	if format == "json" {
		result := map[string]interface{}{
			"count": count,
			"days":  days,
		}
		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Fprintln(w, string(encoded))
	} else {
		fmt.Fprintf(w, "Successfully deleted %d audit log(s) older than %d day(s)\n", count, days)
	}

	logger.Info("cleanup completed",
		slog.Int64("count", count),
		slog.Int("days", days),
	)

	return nil
}
