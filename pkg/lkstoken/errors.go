package lkstoken

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrMalformed       = errors.New("lkstoken: malformed token")
	ErrMissingClaim    = errors.New("lkstoken: missing claim")
	ErrExpired         = errors.New("lkstoken: token expired")
	ErrUnknownEncoding = errors.New("lkstoken: unknown token encoding")
)

// Error describes why a token was rejected. Err is always one of the
// package sentinels, so callers can match with errors.Is.
type Error struct {
	// Token is the logical token name.
	Token string

	// Claim is the offending claim, if any.
	Claim string

	// Expiration is set for ErrExpired.
	Expiration time.Time

	Err   error
	Cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	fmt.Fprintf(&b, ": %s token", e.Token)
	if e.Claim != "" {
		fmt.Fprintf(&b, ": claim %q", e.Claim)
	}
	if !e.Expiration.IsZero() {
		fmt.Fprintf(&b, ": expired at %s", e.Expiration.Format(time.RFC3339))
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func malformed(token, claim string, cause error) *Error {
	return &Error{Token: token, Claim: claim, Err: ErrMalformed, Cause: cause}
}

func missingClaim(token, claim string) *Error {
	return &Error{Token: token, Claim: claim, Err: ErrMissingClaim}
}
