package auth

import (
	"errors"
	"fmt"

	apperrors "github.com/sessionkit/cookie-session/pkg/util"
)

// Client facing rejection messages. The underlying reason is never sent.
const (
	MessageMissingCredential = "Auth Error, Cookies not found"
	MessageInvalidCredential = "Auth Error, Invalid token"
)

var (
	ErrMissingCredential  = errors.New("auth: credential cookie not found")
	ErrInvalidCredential  = errors.New("auth: invalid credential")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrUnsignedCookie     = errors.New("cookie is not signed")
	ErrBadCookieSignature = errors.New("cookie signature mismatch")
	ErrInsecureConfig     = errors.New("auth: refusing to start with incomplete secrets")
)

// MisuseError reports a programming error at a call site, such as minting a
// token without an expiry.
type MisuseError struct {
	Op     string
	Reason string
}

func (e *MisuseError) Error() string {
	return fmt.Sprintf("auth: %s: %s", e.Op, e.Reason)
}

// RejectionFor maps a verification failure onto the 401 sent to the client.
func RejectionFor(err error) error {
	if errors.Is(err, ErrMissingCredential) {
		return apperrors.NewUnauthorized(MessageMissingCredential)
	}
	return apperrors.NewUnauthorized(MessageInvalidCredential)
}
