package jwtx

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// Verifier validates a provider JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (ProviderClaims, error)
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrSubject      = errors.New("jwtx: subject mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// Header is the decoded protected header of a provider token.
type Header struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
}

// Inspect decodes the header and payload of a compact token WITHOUT checking
// the signature. Only use it for diagnostics.
func Inspect(token string) (Header, ProviderClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Header{}, ProviderClaims{}, ErrMalformed
	}

	var h Header
	if err := decodeSegment(parts[0], &h); err != nil {
		return Header{}, ProviderClaims{}, err
	}

	var c ProviderClaims
	if err := decodeSegment(parts[1], &c); err != nil {
		return Header{}, ProviderClaims{}, err
	}

	return h, c, nil
}

func decodeSegment(seg string, v any) error {
	raw, err := base64.RawURLEncoding.DecodeString(seg)
	if err != nil {
		return ErrMalformed
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return ErrMalformed
	}
	return nil
}
