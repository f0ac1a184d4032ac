package cryptox

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidPEM = errors.New("cryptox: invalid PEM for Ed25519 key")
	ErrNotEd25519 = errors.New("cryptox: not an Ed25519 private key")
)

// GenerateEd25519Key generates a new Ed25519 private key.
// Ed25519 keys are always 256 bits (32 bytes) and don't require a size parameter.
// Returns the private key in PEM format (PKCS8).
func GenerateEd25519Key() ([]byte, error) {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate Ed25519 key: %w", err)
	}

	// Ed25519 keys are always marshaled as PKCS8
	privateKeyBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to marshal PKCS8 key: %w", err)
	}

	privateKeyPEM := &pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: privateKeyBytes,
	}

	return pem.EncodeToMemory(privateKeyPEM), nil
}

// ParseEd25519PrivateKey loads a PKCS8 PEM Ed25519 private key.
//
// Keys pasted into CI secrets tend to lose their newlines, so literal "\n"
// sequences are expanded before decoding.
func ParseEd25519PrivateKey(pemKey []byte) (ed25519.PrivateKey, error) {
	if !strings.Contains(string(pemKey), "\n") {
		pemKey = []byte(strings.ReplaceAll(string(pemKey), `\n`, "\n"))
	}

	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, ErrInvalidPEM
	}

	if block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("cryptox: expected PRIVATE KEY, got %q (Ed25519 requires PKCS8)", block.Type)
	}

	priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("cryptox: parse PKCS8: %w", err)
	}

	key, ok := priv.(ed25519.PrivateKey)
	if !ok {
		return nil, ErrNotEd25519
	}

	return key, nil
}

// PublicKeyPEM derives the PKIX "PUBLIC KEY" PEM for an Ed25519 private key.
// This is the format the weather provider console asks for when registering a
// signing credential.
func PublicKeyPEM(pemKey []byte) ([]byte, error) {
	key, err := ParseEd25519PrivateKey(pemKey)
	if err != nil {
		return nil, err
	}

	der, err := x509.MarshalPKIXPublicKey(key.Public())
	if err != nil {
		return nil, fmt.Errorf("cryptox: marshal public key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}
