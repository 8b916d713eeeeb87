package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	cryptoService "github.com/medguard/compliance/internal/crypto/service"
)

// RunCreateMasterSecret generates a cryptographically secure 32-byte master
// secret for key derivation. Secret material is zeroed from memory after
// encoding.
//
// When a KMS provider is given the secret is encrypted with KMS before output
// and the printed MASTER_SECRET holds the wrapped ciphertext. Without KMS the
// raw base64 secret is printed, which is only acceptable for development.
//
// For local development, use kmsProvider="localsecrets" with
// kmsKeyURI="base64key://...". Production setups should use cloud KMS
// providers (gcpkms, awskms, azurekeyvault, hashivault).
func RunCreateMasterSecret(ctx context.Context, w io.Writer, kmsProvider, kmsKeyURI string) error {
	if kmsProvider != "" && kmsKeyURI == "" {
		return fmt.Errorf("--kms-key-uri is required when --kms-provider is set")
	}

	// Generate a cryptographically secure 32-byte master secret
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return fmt.Errorf("failed to generate master secret: %w", err)
	}
	defer func() {
		for i := range secret {
			secret[i] = 0
		}
	}()

	if kmsProvider == "" {
		fmt.Fprintln(w, "# Master Secret Configuration (plaintext mode)")
		fmt.Fprintln(w, "# WARNING: without KMS the secret is stored unwrapped; use a KMS provider in production")
		fmt.Fprintln(w)
		fmt.Fprintf(w, "MASTER_SECRET=%q\n", base64.StdEncoding.EncodeToString(secret))
		return nil
	}

	keeper, err := cryptoService.NewKMSService().OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() {
		if closeErr := keeper.Close(); closeErr != nil {
			fmt.Fprintf(w, "# Warning: failed to close KMS keeper: %v\n", closeErr)
		}
	}()

	ciphertext, err := keeper.Encrypt(ctx, secret)
	if err != nil {
		return fmt.Errorf("failed to encrypt master secret with KMS: %w", err)
	}

	fmt.Fprintln(w, "# Master Secret Configuration (KMS mode)")
	fmt.Fprintln(w, "# Copy these environment variables to your .env file or secrets manager")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "KMS_PROVIDER=%q\n", kmsProvider)
	fmt.Fprintf(w, "KMS_KEY_URI=%q\n", kmsKeyURI)
	fmt.Fprintf(w, "MASTER_SECRET=%q\n", base64.StdEncoding.EncodeToString(ciphertext))

	return nil
}
