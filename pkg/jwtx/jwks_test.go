package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJWK_PEM_Ed25519(t *testing.T) {
	publicKey, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	jwk := NewEd25519JWK("test-key-id", "sig", "EdDSA", publicKey)

	pemStr, err := jwk.PEM()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(pemStr, "-----BEGIN PUBLIC KEY-----"))
	require.True(t, strings.HasSuffix(strings.TrimSpace(pemStr), "-----END PUBLIC KEY-----"))

	// Parse the PEM back to verify it's valid
	block, _ := pem.Decode([]byte(pemStr))
	require.NotNil(t, block, "PEM block should be valid")
	require.Equal(t, "PUBLIC KEY", block.Type)

	parsedKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(t, err)

	ed25519PubKey, ok := parsedKey.(ed25519.PublicKey)
	require.True(t, ok, "Parsed key should be an Ed25519 public key")
	require.Equal(t, publicKey, ed25519PubKey)
}

func TestJWK_PublicKeyRejectsOtherKeyTypes(t *testing.T) {
	_, err := JWK{Kty: "RSA"}.PublicKey()
	require.Error(t, err)

	_, err = JWK{Kty: "OKP", Crv: "X25519"}.PublicKey()
	require.Error(t, err)

	_, err = JWK{Kty: "OKP", Crv: "Ed25519", X: "c2hvcnQ"}.PublicKey()
	require.Error(t, err)
}

func TestKeySetGet(t *testing.T) {
	publicKey, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	ks := NewKeySet()
	require.NoError(t, ks.AddJWK(NewEd25519JWK("k1", "sig", "EdDSA", publicKey)))

	got, err := ks.Get("k1")
	require.NoError(t, err)
	require.Equal(t, publicKey, got)

	_, err = ks.Get("missing")
	require.ErrorIs(t, err, ErrNoKey)

	require.Len(t, ks.PublicJWKS().Keys, 1)
}
