package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Provider token timing. The weather provider rejects tokens that live longer
// than ProviderTokenTTL, and validates iat against its own clock.
const (
	// ProviderTokenTTL is the fixed lifetime of a provider token (exp - iat).
	ProviderTokenTTL = 900 * time.Second

	// ClockSkew is how far iat is backdated so a slightly fast provider
	// clock doesn't see the token as issued in the future.
	ClockSkew = 30 * time.Second
)

// ProviderClaims is the payload the weather provider expects. It only takes
// sub, iat and exp, so we don't embed jwt.RegisteredClaims (its omitempty
// fields would still be fine, but this keeps the payload exactly as signed).
type ProviderClaims struct {
	Subject   string           `json:"sub"`
	IssuedAt  *jwt.NumericDate `json:"iat"`
	ExpiresAt *jwt.NumericDate `json:"exp"`
}

// NewProviderClaims builds claims for subject at now, applying the clock skew
// and the fixed lifetime.
func NewProviderClaims(subject string, now time.Time) ProviderClaims {
	iat := now.Add(-ClockSkew).Truncate(time.Second)
	return ProviderClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(iat),
		ExpiresAt: jwt.NewNumericDate(iat.Add(ProviderTokenTTL)),
	}
}

// IssuedAtUnix returns iat as Unix seconds, 0 when unset.
func (c ProviderClaims) IssuedAtUnix() int64 {
	if c.IssuedAt == nil {
		return 0
	}
	return c.IssuedAt.Unix()
}

// ExpiresAtUnix returns exp as Unix seconds, 0 when unset.
func (c ProviderClaims) ExpiresAtUnix() int64 {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Unix()
}

/* jwt.Claims */

func (c ProviderClaims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }
func (c ProviderClaims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt, nil }
func (c ProviderClaims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c ProviderClaims) GetIssuer() (string, error)                   { return "", nil }
func (c ProviderClaims) GetSubject() (string, error)                  { return c.Subject, nil }
func (c ProviderClaims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

// ValidateSubject checks the subject matches the expected project.
func (c *ProviderClaims) ValidateSubject(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Subject != expected {
		return ErrSubject
	}

	return nil
}

// ValidateExpiryAt ensures the token hasn't expired at now. It also rejects
// tokens whose lifetime isn't the fixed provider TTL, since the provider does.
func (c *ProviderClaims) ValidateExpiryAt(now time.Time) error {
	if c.ExpiresAt == nil || c.IssuedAt == nil {
		return ErrInvalidClaim
	}

	if c.ExpiresAt.Sub(c.IssuedAt.Time) != ProviderTokenTTL {
		return ErrInvalidClaim
	}

	if now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	return nil
}
