// Package lkstoken decodes the two session tokens the LKS portal hands out
// after a CAS login: the JWT "login" token and the base64 JSON "info" token.
//
// Signatures are not verified. The tokens were just received from the
// issuing server over TLS, and only that server can vouch for them.
package lkstoken

import (
	"time"
)

// Logical token names, used in errors and logs.
const (
	NameLogin = "login"
	NameInfo  = "info"
)

// Encoding identifies how a raw token is encoded.
type Encoding int

const (
	EncodingUnknown Encoding = iota
	EncodingJWT
	EncodingBase64JSON
)

func (e Encoding) String() string {
	switch e {
	case EncodingJWT:
		return "jwt"
	case EncodingBase64JSON:
		return "base64-json"
	default:
		return "unknown"
	}
}

// RawToken is a token value as read from its cookie.
type RawToken struct {
	// Name is the logical token name ("login" or "info").
	Name string

	// Value is the cookie value, untouched.
	Value string

	Encoding Encoding
}

// Login wraps a login cookie value.
func Login(value string) RawToken {
	return RawToken{Name: NameLogin, Value: value, Encoding: EncodingJWT}
}

// Info wraps an info cookie value.
func Info(value string) RawToken {
	return RawToken{Name: NameInfo, Value: value, Encoding: EncodingBase64JSON}
}

// TokenInfo is a decoded and validated token.
type TokenInfo struct {
	// Source is the logical token name the info was decoded from.
	Source string

	// Name is the user's display name, if the token carries one.
	Name string

	// Expiration is the absolute expiry instant, in UTC.
	Expiration time.Time

	// StudentID and Group are only carried by the login token.
	StudentID string
	Group     string

	// Raw is the original token string.
	Raw string

	// Claims is the full decoded payload.
	Claims map[string]any
}

// Expired reports whether the token is expired at now. A token expiring
// exactly at now counts as expired.
func (t TokenInfo) Expired(now time.Time) bool {
	return !now.Before(t.Expiration)
}

// ExpiresIn returns the time left before expiry, zero once expired.
func (t TokenInfo) ExpiresIn(now time.Time) time.Duration {
	if t.Expired(now) {
		return 0
	}
	return t.Expiration.Sub(now)
}
