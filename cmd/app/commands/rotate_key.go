package commands

import (
	"fmt"
	"io"
	"log/slog"

	cryptoService "github.com/medguard/compliance/internal/crypto/service"
)

// RunRotateKey replaces the key material stored under keyID with a freshly
// derived key. Values encrypted before rotation carry their own salt and stay
// decryptable; new encryptions for the id use the new key.
func RunRotateKey(keyManager cryptoService.KeyManager, logger *slog.Logger, w io.Writer, keyID string) error {
	if keyID == "" {
		return fmt.Errorf("key id is required")
	}

	record, err := keyManager.RotateKey(keyID)
	if err != nil {
		return fmt.Errorf("failed to rotate key: %w", err)
	}

	logger.Info("rotated key",
		slog.String("key_id", record.KeyID),
		slog.Time("created_at", record.CreatedAt),
	)

	fmt.Fprintf(w, "Rotated key %q at %s\n", record.KeyID, record.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}
