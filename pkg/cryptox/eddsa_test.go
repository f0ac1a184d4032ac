package cryptox_test

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/aussiebroadwan/dailydigest/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestGenerateEd25519Key(t *testing.T) {
	pemBytes, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	require.NotEmpty(t, pemBytes)

	// Verify it's valid PEM
	block, _ := pem.Decode(pemBytes)
	require.NotNil(t, block)
	require.Equal(t, "PRIVATE KEY", block.Type)

	// Verify it's a valid Ed25519 key in PKCS8 format
	keyInterface, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	require.NoError(t, err)

	key, ok := keyInterface.(ed25519.PrivateKey)
	require.True(t, ok)
	require.Equal(t, ed25519.PrivateKeySize, len(key))
}

func TestParseEd25519PrivateKey(t *testing.T) {
	pemBytes, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	t.Run("parses generated key", func(t *testing.T) {
		key, err := cryptox.ParseEd25519PrivateKey(pemBytes)
		require.NoError(t, err)
		require.Len(t, key, ed25519.PrivateKeySize)
	})

	t.Run("accepts escaped newlines from env secrets", func(t *testing.T) {
		flattened := strings.ReplaceAll(string(pemBytes), "\n", `\n`)
		key, err := cryptox.ParseEd25519PrivateKey([]byte(flattened))
		require.NoError(t, err)
		require.Len(t, key, ed25519.PrivateKeySize)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := cryptox.ParseEd25519PrivateKey([]byte("not-a-pem-key"))
		require.ErrorIs(t, err, cryptox.ErrInvalidPEM)
	})

	t.Run("rejects non PKCS8 blocks", func(t *testing.T) {
		block := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: []byte{1, 2, 3}})
		_, err := cryptox.ParseEd25519PrivateKey(block)
		require.Error(t, err)
		require.Contains(t, err.Error(), "PKCS8")
	})
}

func TestPublicKeyPEM(t *testing.T) {
	pemBytes, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	pubPEM, err := cryptox.PublicKeyPEM(pemBytes)
	require.NoError(t, err)

	block, _ := pem.Decode(pubPEM)
	require.NotNil(t, block)
	require.Equal(t, "PUBLIC KEY", block.Type)

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(t, err)

	priv, err := cryptox.ParseEd25519PrivateKey(pemBytes)
	require.NoError(t, err)
	require.Equal(t, priv.Public(), pub)
}
