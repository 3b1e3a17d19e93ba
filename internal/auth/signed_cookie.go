package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"golang.org/x/crypto/hkdf"
)

const (
	signedCookiePrefix = "s:"
	cookieKeyInfo      = "cookie-session/auth-cookie"
)

// CookieSigner seals cookie values with AES-GCM so a value that was not
// produced with the same secret is rejected before it is interpreted.
type CookieSigner struct {
	key string
}

// NewCookieSigner derives a 256-bit key from secret.
func NewCookieSigner(secret string) *CookieSigner {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(cookieKeyInfo)), key); err != nil {
		panic(fmt.Sprintf("derive cookie key: %v", err))
	}
	return &CookieSigner{key: base64.StdEncoding.EncodeToString(key)}
}

// Sign returns "s:<sealed value>".
func (s *CookieSigner) Sign(value string) (string, error) {
	sealed, err := encryptcookie.EncryptCookie(value, s.key)
	if err != nil {
		return "", fmt.Errorf("seal cookie: %w", err)
	}
	return signedCookiePrefix + sealed, nil
}

// Unsign checks the wrapper and returns the original value.
func (s *CookieSigner) Unsign(signed string) (string, error) {
	if !strings.HasPrefix(signed, signedCookiePrefix) {
		return "", ErrUnsignedCookie
	}
	value, err := encryptcookie.DecryptCookie(strings.TrimPrefix(signed, signedCookiePrefix), s.key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBadCookieSignature, err)
	}
	return value, nil
}
