package jwtx

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// EdDSAVerifier validates provider JWTs signed using EdDSA (Ed25519).
type EdDSAVerifier struct {
	keys    *KeySet
	subject string

	// Now is the clock used for expiry checks, defaults to time.Now.
	Now func() time.Time
}

// NewVerifierEdDSA creates a verifier using a KeySet of Ed25519 public keys.
// An empty subject means any project is accepted.
func NewVerifierEdDSA(keys *KeySet, subject string) *EdDSAVerifier {
	return &EdDSAVerifier{keys: keys, subject: subject}
}

// Verify validates the JWT string and returns its parsed claims.
func (v *EdDSAVerifier) Verify(tokenStr string) (ProviderClaims, error) {
	// Expiry is checked below against our own clock so tests can pin it
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := &ProviderClaims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		// Need the kid to know which key to use
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("jwtx: missing kid")
		}

		pub, err := v.keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrUnknownKID, kid, err)
		}

		return keyFor(pub)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownKID):
			return ProviderClaims{}, err
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return ProviderClaims{}, ErrInvalidSig
		case errors.Is(err, jwt.ErrTokenMalformed):
			return ProviderClaims{}, ErrMalformed
		case errors.Is(err, jwt.ErrTokenUnverifiable), errors.Is(err, jwt.ErrSignatureInvalid):
			return ProviderClaims{}, fmt.Errorf("%w: %w", ErrAlgMismatch, err)
		}
		return ProviderClaims{}, fmt.Errorf("jwtx: parse or verify: %w", err)
	}

	if !token.Valid {
		return ProviderClaims{}, ErrInvalidClaim
	}

	if err := claims.ValidateSubject(v.subject); err != nil {
		return ProviderClaims{}, err
	}
	if err := claims.ValidateExpiryAt(v.now()); err != nil {
		return ProviderClaims{}, err
	}

	return *claims, nil
}

func (v *EdDSAVerifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// keyFor returns an Ed25519 public key, checked for type.
func keyFor(k any) (ed25519.PublicKey, error) {
	pub, ok := k.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("jwtx: invalid Ed25519 key type")
	}
	return pub, nil
}
