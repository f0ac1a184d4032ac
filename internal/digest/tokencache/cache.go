package tokencache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/dailydigest/internal/digest/domain"
	"github.com/aussiebroadwan/dailydigest/internal/digest/store"
	"github.com/aussiebroadwan/dailydigest/pkg/jwtx"
)

// Credentials identify us to the weather provider.
type Credentials struct {
	PrivateKey string // Ed25519 PKCS8 PEM
	KeyID      string
	ProjectID  string
}

// Validate reports every missing field at once.
func (c Credentials) Validate() error {
	var missing []string
	if strings.TrimSpace(c.PrivateKey) == "" {
		missing = append(missing, "private key")
	}
	if strings.TrimSpace(c.KeyID) == "" {
		missing = append(missing, "key id")
	}
	if strings.TrimSpace(c.ProjectID) == "" {
		missing = append(missing, "project id")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// Signer produces a compact EdDSA JWS over claims.
type Signer interface {
	Sign(pemKey []byte, kid string, claims jwtx.ProviderClaims) (string, error)
}

// SignerFunc adapts a function to Signer.
type SignerFunc func(pemKey []byte, kid string, claims jwtx.ProviderClaims) (string, error)

func (f SignerFunc) Sign(pemKey []byte, kid string, claims jwtx.ProviderClaims) (string, error) {
	return f(pemKey, kid, claims)
}

// DefaultSigner signs with golang-jwt.
var DefaultSigner Signer = SignerFunc(jwtx.SignEdDSA)

// Source says where an acquired token came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceFresh    Source = "fresh"
	SourceFallback Source = "fallback"
)

// Acquisition is a token plus how it was obtained.
type Acquisition struct {
	Token     string
	Source    Source
	ExpiresAt time.Time
}

// Degraded reports whether the token is a stale fallback.
func (a Acquisition) Degraded() bool { return a.Source == SourceFallback }

type lookupState int

const (
	lookupFound lookupState = iota
	lookupMissing
	lookupFailed
)

// lookup is the tagged result of a store read.
type lookup struct {
	state lookupState
	token domain.CachedToken
	err   error
}

// Cache hands out provider tokens, reusing the persisted one while it is
// outside the refresh margin and regenerating otherwise.
type Cache struct {
	Store       store.TokenStore
	Signer      Signer
	Credentials Credentials
	Logger      *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// New returns a Cache using DefaultSigner and the wall clock.
func New(s store.TokenStore, creds Credentials, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		Store:       s,
		Signer:      DefaultSigner,
		Credentials: creds,
		Logger:      logger,
		Now:         time.Now,
	}
}

// GetValidToken returns a token to use as a bearer credential.
func (c *Cache) GetValidToken(ctx context.Context) (string, error) {
	a, err := c.Acquire(ctx)
	if err != nil {
		return "", err
	}
	return a.Token, nil
}

// Acquire runs the cache algorithm: a usable stored token wins, otherwise a
// fresh one is generated and persisted, and if that fails the stored token
// is returned even when expired. Only *ConfigurationError and
// *ExhaustedFallbackError are returned.
func (c *Cache) Acquire(ctx context.Context) (Acquisition, error) {
	now := c.now()
	log := c.logger()

	cached := c.lookup(ctx)
	switch cached.state {
	case lookupFound:
		if cached.token.Usable(now, domain.RefreshMargin) {
			log.Debug("provider token cache hit", "expires_at", cached.token.ExpiresAt)
			return Acquisition{Token: cached.token.Token, Source: SourceCache, ExpiresAt: cached.token.Expiry()}, nil
		}
		log.Info("provider token stale, regenerating",
			"expires_at", cached.token.ExpiresAt,
			"remaining_s", cached.token.ExpiresAt-now.Unix(),
		)
	case lookupMissing:
		log.Info("no cached provider token, regenerating")
	case lookupFailed:
		log.Warn("provider token cache unreadable, regenerating", "error", cached.err)
	}

	fresh, err := c.Regenerate(ctx)
	if err == nil {
		if werr := c.Store.Write(ctx, fresh); werr != nil {
			log.Warn("provider token not persisted", "error", &StoreWriteError{Err: werr})
		}
		log.Info("provider token generated", "expires_at", fresh.ExpiresAt)
		return Acquisition{Token: fresh.Token, Source: SourceFresh, ExpiresAt: fresh.Expiry()}, nil
	}

	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		log.Error("provider credentials incomplete", "missing", cfgErr.Missing)
		return Acquisition{}, cfgErr
	}

	log.Error("provider token regeneration failed, trying fallback", "error", err)

	fallback := c.lookup(ctx)
	switch {
	case fallback.state == lookupFound && fallback.token.HasToken():
		log.Warn("using stale provider token",
			"expires_at", fallback.token.ExpiresAt,
			"expired", fallback.token.ExpiresAt <= now.Unix(),
		)
		return Acquisition{Token: fallback.token.Token, Source: SourceFallback, ExpiresAt: fallback.token.Expiry()}, nil
	case fallback.state == lookupFailed:
		log.Error("fallback lookup failed", "error", fallback.err)
		return Acquisition{}, &ExhaustedFallbackError{Cause: err, Lookup: fallback.err}
	default:
		return Acquisition{}, &ExhaustedFallbackError{Cause: err}
	}
}

// Regenerate signs a new token. It returns *ConfigurationError when a
// credential is missing (before touching any key material) and
// *SigningError when the key can't be imported or used.
func (c *Cache) Regenerate(_ context.Context) (domain.CachedToken, error) {
	if err := c.Credentials.Validate(); err != nil {
		return domain.CachedToken{}, err
	}

	now := c.now()
	claims := jwtx.NewProviderClaims(c.Credentials.ProjectID, now)

	signer := c.Signer
	if signer == nil {
		signer = DefaultSigner
	}

	token, err := signer.Sign([]byte(c.Credentials.PrivateKey), c.Credentials.KeyID, claims)
	if err != nil {
		return domain.CachedToken{}, &SigningError{Err: err}
	}

	iat, exp := claims.IssuedAtUnix(), claims.ExpiresAtUnix()
	return domain.CachedToken{
		Token:       token,
		GeneratedAt: iat,
		ExpiresAt:   exp,
		CreatedAt:   now.UTC(),
		Header:      domain.TokenHeader{Alg: jwtx.AlgorithmEdDSA, Kid: c.Credentials.KeyID},
		Payload:     domain.TokenPayload{Sub: c.Credentials.ProjectID, Iat: iat, Exp: exp},
	}, nil
}

func (c *Cache) lookup(ctx context.Context) lookup {
	t, err := c.Store.Read(ctx)
	switch {
	case err == nil:
		return lookup{state: lookupFound, token: t}
	case errors.Is(err, store.ErrNotFound):
		return lookup{state: lookupMissing}
	default:
		return lookup{state: lookupFailed, err: &StoreReadError{Err: err}}
	}
}

func (c *Cache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Cache) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
