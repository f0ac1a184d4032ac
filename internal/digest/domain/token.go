package domain

import "time"

// Provider token timing, mandated by the weather provider.
const (
	// TokenLifetime is exp - iat for every provider token.
	TokenLifetime = 900 * time.Second

	// RefreshMargin is how long before expiry a cached token stops being
	// handed out.
	RefreshMargin = 300 * time.Second

	// ClockSkew backdates iat against provider clock drift.
	ClockSkew = 30 * time.Second
)

// TokenHeader is the protected header a token was signed with.
type TokenHeader struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
}

// TokenPayload is the claim set a token was signed with.
type TokenPayload struct {
	Sub string `json:"sub"`
	Iat int64  `json:"iat"`
	Exp int64  `json:"exp"`
}

// CachedToken is the persisted record of the most recently generated
// provider token. GeneratedAt and ExpiresAt are Unix seconds and mirror the
// iat/exp claims.
type CachedToken struct {
	Token       string       `json:"token"`
	GeneratedAt int64        `json:"generated_at"`
	ExpiresAt   int64        `json:"expires_at"`
	CreatedAt   time.Time    `json:"created_at"`
	Header      TokenHeader  `json:"header"`
	Payload     TokenPayload `json:"payload"`
}

// Usable reports whether the token can be handed out at now, i.e. it has a
// value and stays valid for longer than margin.
func (t CachedToken) Usable(now time.Time, margin time.Duration) bool {
	if t.Token == "" || t.ExpiresAt == 0 {
		return false
	}
	return t.ExpiresAt-int64(margin/time.Second) > now.Unix()
}

// HasToken reports whether there is any token value at all, expired or not.
func (t CachedToken) HasToken() bool {
	return t.Token != ""
}

// Expiry returns ExpiresAt as a time.Time.
func (t CachedToken) Expiry() time.Time {
	return time.Unix(t.ExpiresAt, 0)
}
