package auth

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sessionkit/cookie-session/internal/config"
)

// RejectHook receives the server-side reason a request was rejected.
type RejectHook func(c *fiber.Ctx, cookieName string, err error)

// Sessions issues, verifies and revokes signed session cookies.
type Sessions struct {
	tokens   *TokenManager
	signer   *CookieSigner
	domain   string
	denylist Denylist
	logger   *zap.Logger
	onReject RejectHook
	now      func() time.Time
}

// Option customizes Sessions.
type Option func(*Sessions)

// WithDenylist enables rejection of revoked token IDs.
func WithDenylist(d Denylist) Option {
	return func(s *Sessions) { s.denylist = d }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Sessions) { s.logger = logger }
}

func WithRejectHook(hook RejectHook) Option {
	return func(s *Sessions) { s.onReject = hook }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Sessions) { s.now = now }
}

// NewSessions builds the credential issuer, verifier and revoker. It refuses
// configs with empty secrets or cookie domain.
func NewSessions(cfg *config.Config, opts ...Option) (*Sessions, error) {
	switch {
	case cfg.Auth.JWTSecret == "":
		return nil, fmt.Errorf("%w: %s is empty", ErrInsecureConfig, config.KeyJWTSecret)
	case cfg.Auth.CookieSecret == "":
		return nil, fmt.Errorf("%w: %s is empty", ErrInsecureConfig, config.KeyCookieSecret)
	case cfg.Frontend.Domain == "":
		return nil, fmt.Errorf("%w: %s is empty", ErrInsecureConfig, config.KeyFrontendDomain)
	}

	s := &Sessions{
		signer: NewCookieSigner(cfg.Auth.CookieSecret),
		domain: cfg.Frontend.Domain,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tokens = NewTokenManager(cfg.Auth.JWTSecret, s.now)
	return s, nil
}

// cookie returns the attribute set shared by Issue and Revoke.
func (s *Sessions) cookie(name string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Path:     "/",
		Domain:   s.domain,
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteNoneMode,
	}
}

// Issue signs payload and writes it to the response as a signed cookie.
// Nothing is written when the options are invalid.
func (s *Sessions) Issue(c *fiber.Ctx, payload map[string]any, cookieName string, opts SignOptions) (time.Time, error) {
	token, expiresAt, err := s.tokens.GenerateToken(payload, opts)
	if err != nil {
		return time.Time{}, err
	}

	value, err := s.signer.Sign(token)
	if err != nil {
		return time.Time{}, err
	}

	cookie := s.cookie(cookieName)
	cookie.Value = value
	cookie.Expires = expiresAt
	c.Cookie(cookie)
	return expiresAt, nil
}

// Revoke instructs the client to drop the cookie. Safe to call repeatedly.
func (s *Sessions) Revoke(c *fiber.Ctx, cookieName string) {
	cookie := s.cookie(cookieName)
	cookie.Expires = time.Unix(0, 0).UTC()
	c.Cookie(cookie)
}
