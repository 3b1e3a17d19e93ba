package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// PayloadKey is the request local holding verified claims.
const PayloadKey = "jwtData"

// Verify reads the signed cookie named cookieName and validates the token in
// it. Errors wrap either ErrMissingCredential or ErrInvalidCredential.
func (s *Sessions) Verify(c *fiber.Ctx, cookieName string) (Claims, error) {
	raw := c.Cookies(cookieName)
	if strings.TrimSpace(raw) == "" {
		return nil, ErrMissingCredential
	}

	// A wrapper that fails its own signature is treated like an absent cookie.
	token, err := s.signer.Unsign(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingCredential, err)
	}
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingCredential
	}

	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	if s.denylist != nil {
		if jti, _ := claims["jti"].(string); jti != "" {
			revoked, err := s.denylist.IsRevoked(c.UserContext(), jti)
			if err != nil {
				return nil, fmt.Errorf("%w: denylist lookup: %w", ErrInvalidCredential, err)
			}
			if revoked {
				return nil, fmt.Errorf("%w: %w", ErrInvalidCredential, ErrTokenRevoked)
			}
		}
	}
	return claims, nil
}

// Middleware guards a route with the cookie named cookieName. On success the
// claims are stored under PayloadKey and the chain continues; otherwise a 401
// is returned and the chain stops.
func (s *Sessions) Middleware(cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := s.Verify(c, cookieName)
		if err != nil {
			s.logger.Debug("credential rejected",
				zap.String("cookie", cookieName),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			if s.onReject != nil {
				s.onReject(c, cookieName, err)
			}
			return RejectionFor(err)
		}

		c.Locals(PayloadKey, claims)
		return c.Next()
	}
}

// PayloadFromContext returns the claims stored by Middleware.
func PayloadFromContext(c *fiber.Ctx) (Claims, bool) {
	val := c.Locals(PayloadKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(Claims)
	return claims, ok
}

// BindPayload decodes the verified claims into out using json tags.
func BindPayload(c *fiber.Ctx, out any) error {
	claims, ok := PayloadFromContext(c)
	if !ok {
		return errors.New("no verified payload on request")
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(map[string]interface{}(claims))
}
