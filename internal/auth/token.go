package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded token payload.
type Claims = jwt.MapClaims

// SignOptions controls how a payload is turned into a token. ExpiresIn is required.
type SignOptions struct {
	ExpiresIn string
	NotBefore string
	Algorithm string
	Issuer    string
	Subject   string
	Audience  []string
	JWTID     string
	KeyID     string
}

var validMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, now func() time.Time) *TokenManager {
	if now == nil {
		now = time.Now
	}
	return &TokenManager{secret: []byte(secret), now: now}
}

// GenerateToken signs payload and returns the token with its absolute expiry.
func (tm *TokenManager) GenerateToken(payload map[string]any, opts SignOptions) (string, time.Time, error) {
	if opts.ExpiresIn == "" {
		return "", time.Time{}, &MisuseError{Op: "sign", Reason: "ExpiresIn is required"}
	}
	ttl, err := ParseDuration(opts.ExpiresIn)
	if err != nil || ttl <= 0 {
		return "", time.Time{}, &MisuseError{Op: "sign", Reason: "ExpiresIn must be a positive duration, got " + opts.ExpiresIn}
	}
	if _, ok := payload["exp"]; ok {
		return "", time.Time{}, &MisuseError{Op: "sign", Reason: "payload already has an exp claim"}
	}

	method := signingMethod(opts.Algorithm)
	if method == nil {
		return "", time.Time{}, &MisuseError{Op: "sign", Reason: "unsupported algorithm " + opts.Algorithm}
	}

	now := tm.now()
	expiresAt := now.Add(ttl)

	claims := make(jwt.MapClaims, len(payload)+4)
	for k, v := range payload {
		claims[k] = v
	}
	if _, ok := claims["iat"]; !ok {
		claims["iat"] = jwt.NewNumericDate(now)
	}
	claims["exp"] = jwt.NewNumericDate(expiresAt)

	if opts.NotBefore != "" {
		delay, err := ParseDuration(opts.NotBefore)
		if err != nil {
			return "", time.Time{}, &MisuseError{Op: "sign", Reason: "NotBefore is not a duration: " + opts.NotBefore}
		}
		claims["nbf"] = jwt.NewNumericDate(now.Add(delay))
	}
	if opts.Issuer != "" {
		claims["iss"] = opts.Issuer
	}
	if opts.Subject != "" {
		claims["sub"] = opts.Subject
	}
	if len(opts.Audience) > 0 {
		claims["aud"] = jwt.ClaimStrings(opts.Audience)
	}
	if opts.JWTID != "" {
		claims["jti"] = opts.JWTID
	}

	token := jwt.NewWithClaims(method, claims)
	if opts.KeyID != "" {
		token.Header["kid"] = opts.KeyID
	}

	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates signature and expiry and returns the claims.
func (tm *TokenManager) ParseToken(tokenStr string) (Claims, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods(validMethods),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func signingMethod(alg string) jwt.SigningMethod {
	switch alg {
	case "", jwt.SigningMethodHS256.Alg():
		return jwt.SigningMethodHS256
	case jwt.SigningMethodHS384.Alg():
		return jwt.SigningMethodHS384
	case jwt.SigningMethodHS512.Alg():
		return jwt.SigningMethodHS512
	default:
		return nil
	}
}
