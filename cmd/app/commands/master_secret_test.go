package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCreateMasterSecret(t *testing.T) {
	ctx := context.Background()

	t.Run("plaintext mode", func(t *testing.T) {
		var out bytes.Buffer
		err := RunCreateMasterSecret(ctx, &out, "", "")

		require.NoError(t, err)
		require.Contains(t, out.String(), "MASTER_SECRET=")
		require.Contains(t, out.String(), "WARNING")
	})

	t.Run("kms mode with local keeper", func(t *testing.T) {
		var out bytes.Buffer
		keyURI := "base64key://smGbjm71Nxd1Ig5FS0wj9SlbzAIrnolCz9bQQ6uAhl4="
		err := RunCreateMasterSecret(ctx, &out, "localsecrets", keyURI)

		require.NoError(t, err)
		require.Contains(t, out.String(), `KMS_PROVIDER="localsecrets"`)
		require.Contains(t, out.String(), "MASTER_SECRET=")
	})

	t.Run("kms provider without key uri fails", func(t *testing.T) {
		err := RunCreateMasterSecret(ctx, &bytes.Buffer{}, "localsecrets", "")

		require.Error(t, err)
		require.Contains(t, err.Error(), "--kms-key-uri is required")
	})
}
