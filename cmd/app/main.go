// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/medguard/compliance/cmd/app/commands"
	"github.com/medguard/compliance/internal/app"
	"github.com/medguard/compliance/internal/config"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "compliance",
		Usage:   "Healthcare compliance core: field encryption, input sanitization, audit trails",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "metrics-server",
				Usage: "Start the metrics HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMetricsServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations()
				},
			},
			{
				Name:  "create-master-secret",
				Usage: "Generate a new master secret for key derivation",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "kms-provider",
						Usage: "KMS provider used to wrap the secret (gcpkms, awskms, azurekeyvault, hashivault, localsecrets)",
					},
					&cli.StringFlag{
						Name:  "kms-key-uri",
						Usage: "URI of the KMS wrapping key (e.g., base64key://... for localsecrets)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCreateMasterSecret(
						ctx,
						os.Stdout,
						cmd.String("kms-provider"),
						cmd.String("kms-key-uri"),
					)
				},
			},
			{
				Name:  "rotate-key",
				Usage: "Rotate the managed key stored under a key id",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "key-id",
						Aliases:  []string{"k"},
						Required: true,
						Usage:    "Identifier of the key to rotate",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					container, logger := setup()
					defer commands.CloseContainer(container, logger)

					keyManager, err := container.KeyManager()
					if err != nil {
						return fmt.Errorf("failed to initialize key manager: %w", err)
					}
					return commands.RunRotateKey(keyManager, logger, os.Stdout, cmd.String("key-id"))
				},
			},
			{
				Name:  "compliance-report",
				Usage: "Generate a compliance report over a date window",
				Flags: []cli.Flag{
					&cli.TimestampFlag{
						Name:     "from",
						Required: true,
						Usage:    "Window start (YYYY-MM-DD)",
						Config:   cli.TimestampConfig{Layouts: []string{"2006-01-02"}},
					},
					&cli.TimestampFlag{
						Name:     "to",
						Required: true,
						Usage:    "Window end (YYYY-MM-DD, exclusive of midnight)",
						Config:   cli.TimestampConfig{Layouts: []string{"2006-01-02"}},
					},
					&cli.BoolFlag{
						Name:  "details",
						Usage: "Include individual audit entries and violations",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					container, logger := setup()
					defer commands.CloseContainer(container, logger)

					auditTrail, err := container.AuditTrailUseCase()
					if err != nil {
						return fmt.Errorf("failed to initialize audit trail: %w", err)
					}
					return commands.RunComplianceReport(
						ctx,
						auditTrail,
						logger,
						os.Stdout,
						cmd.Timestamp("from"),
						cmd.Timestamp("to").Add(24*time.Hour),
						cmd.Bool("details"),
						cmd.String("format"),
					)
				},
			},
			{
				Name:  "clean-audit-logs",
				Usage: "Delete audit logs older than specified days",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "days",
						Aliases:  []string{"d"},
						Required: true,
						Usage:    "Delete audit logs older than this many days",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					container, logger := setup()
					defer commands.CloseContainer(container, logger)

					auditTrail, err := container.AuditTrailUseCase()
					if err != nil {
						return fmt.Errorf("failed to initialize audit trail: %w", err)
					}
					return commands.RunCleanAuditLogs(
						ctx,
						auditTrail,
						logger,
						os.Stdout,
						cmd.Int("days"),
						cmd.String("format"),
					)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}

// setup loads configuration and creates the DI container.
func setup() (*app.Container, *slog.Logger) {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	return container, container.Logger()
}
