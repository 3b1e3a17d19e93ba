package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "1d", want: 24 * time.Hour},
		{in: "15m", want: 15 * time.Minute},
		{in: "2h", want: 2 * time.Hour},
		{in: "1w", want: 7 * 24 * time.Hour},
		{in: "30s", want: 30 * time.Second},
		{in: "1500", want: 1500 * time.Millisecond},
		{in: "2h30m", want: 150 * time.Minute},
		{in: "1.5h", want: 90 * time.Minute},
		{in: "2 days", want: 48 * time.Hour},
		{in: "1 day", want: 24 * time.Hour},
		{in: "90 minutes", want: 90 * time.Minute},
		{in: "10 secs", want: 10 * time.Second},
		{in: "250ms", want: 250 * time.Millisecond},
		{in: "3 Hours", want: 3 * time.Hour},
		{in: ".5s", want: 500 * time.Millisecond},
		{in: "1 fortnight", wantErr: true},
		{in: "", wantErr: true},
		{in: "soon", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenManager_RoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tm := NewTokenManager("secret", func() time.Time { return now })

	token, expiresAt, err := tm.GenerateToken(map[string]any{"role": "admin"}, SignOptions{
		ExpiresIn: "1d",
		Issuer:    "cookie-session",
		Subject:   "user-1",
		Audience:  []string{"web"},
		JWTID:     "jti-1",
		KeyID:     "k1",
	})
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), expiresAt)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims["role"])
	assert.Equal(t, "user-1", claims["sub"])
	assert.Equal(t, "jti-1", claims["jti"])
	assert.Equal(t, "cookie-session", claims["iss"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.Equal(t, expiresAt.Unix(), exp.Unix())

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	require.NoError(t, err)
	assert.Equal(t, "k1", parsed.Header["kid"])
	assert.Equal(t, "HS256", parsed.Method.Alg())
}

func TestTokenManager_Algorithms(t *testing.T) {
	tm := NewTokenManager("secret", nil)
	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		t.Run(alg, func(t *testing.T) {
			token, _, err := tm.GenerateToken(map[string]any{}, SignOptions{ExpiresIn: "1h", Algorithm: alg})
			require.NoError(t, err)
			_, err = tm.ParseToken(token)
			assert.NoError(t, err)
		})
	}
}

func TestTokenManager_Misuse(t *testing.T) {
	tm := NewTokenManager("secret", nil)
	tests := []struct {
		name    string
		payload map[string]any
		opts    SignOptions
	}{
		{name: "missing expiry", opts: SignOptions{}},
		{name: "unparseable expiry", opts: SignOptions{ExpiresIn: "later"}},
		{name: "zero expiry", opts: SignOptions{ExpiresIn: "0"}},
		{name: "exp in payload", payload: map[string]any{"exp": 1}, opts: SignOptions{ExpiresIn: "1h"}},
		{name: "asymmetric algorithm", opts: SignOptions{ExpiresIn: "1h", Algorithm: "RS256"}},
		{name: "bad not before", opts: SignOptions{ExpiresIn: "1h", NotBefore: "eventually"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _, err := tm.GenerateToken(tt.payload, tt.opts)
			var misuse *MisuseError
			assert.True(t, errors.As(err, &misuse), "got %v", err)
			assert.Empty(t, token)
		})
	}
}

func TestTokenManager_Rejects(t *testing.T) {
	now := time.Now()
	issuer := NewTokenManager("secret", func() time.Time { return now.Add(-48 * time.Hour) })
	expired, _, err := issuer.GenerateToken(map[string]any{}, SignOptions{ExpiresIn: "1d"})
	require.NoError(t, err)

	other := NewTokenManager("other", nil)
	foreign, _, err := other.GenerateToken(map[string]any{}, SignOptions{ExpiresIn: "1d"})
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tm := NewTokenManager("secret", nil)
	for name, token := range map[string]string{
		"expired":     expired,
		"foreign key": foreign,
		"no exp":      noExp,
		"malformed":   "not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tm.ParseToken(token)
			assert.Error(t, err)
		})
	}

	_, err = tm.ParseToken(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenManager_NotBefore(t *testing.T) {
	tm := NewTokenManager("secret", nil)
	token, _, err := tm.GenerateToken(map[string]any{}, SignOptions{ExpiresIn: "1d", NotBefore: "1h"})
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenNotValidYet)
}

func TestCookieSigner(t *testing.T) {
	signer := NewCookieSigner("cookie-secret")
	signed, err := signer.Sign("a.b.c")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(signed, "s:"))
	assert.NotContains(t, signed, "a.b.c")

	again, err := signer.Sign("a.b.c")
	require.NoError(t, err)
	assert.NotEqual(t, signed, again)

	value, err := signer.Unsign(signed)
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", value)

	_, err = NewCookieSigner("other").Unsign(signed)
	assert.ErrorIs(t, err, ErrBadCookieSignature)

	_, err = signer.Unsign("a.b.c")
	assert.ErrorIs(t, err, ErrUnsignedCookie)

	_, err = signer.Unsign("s:not base64!")
	assert.ErrorIs(t, err, ErrBadCookieSignature)

	_, err = signer.Unsign("s:c2hvcnQ=")
	assert.ErrorIs(t, err, ErrBadCookieSignature)

	last := "A"
	if signed[len(signed)-1] == 'A' {
		last = "B"
	}
	_, err = signer.Unsign(signed[:len(signed)-1] + last)
	assert.ErrorIs(t, err, ErrBadCookieSignature)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("pw", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "pw"))
	assert.Error(t, ComparePassword(hash, "nope"))
}
