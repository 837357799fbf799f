package lksauth

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a login failure.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindFormNotFound
	KindAuthenticationFailed
	KindMalformedToken
	KindMissingClaim
	KindExpiredToken
)

var (
	ErrNetwork              = errors.New("lksauth: network error")
	ErrFormNotFound         = errors.New("lksauth: login form not found")
	ErrAuthenticationFailed = errors.New("lksauth: authentication failed")
	ErrMalformedToken       = errors.New("lksauth: malformed token")
	ErrMissingClaim         = errors.New("lksauth: missing claim")
	ErrExpiredToken         = errors.New("lksauth: token expired")
)

var kindSentinels = map[Kind]error{
	KindNetwork:              ErrNetwork,
	KindFormNotFound:         ErrFormNotFound,
	KindAuthenticationFailed: ErrAuthenticationFailed,
	KindMalformedToken:       ErrMalformedToken,
	KindMissingClaim:         ErrMissingClaim,
	KindExpiredToken:         ErrExpiredToken,
}

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindFormNotFound:
		return "form_not_found"
	case KindAuthenticationFailed:
		return "authentication_failed"
	case KindMalformedToken:
		return "malformed_token"
	case KindMissingClaim:
		return "missing_claim"
	case KindExpiredToken:
		return "expired_token"
	default:
		return "unknown"
	}
}

// Step names the login state a failure happened in.
type Step string

const (
	StepFetchPage     Step = "fetch_page"
	StepScrapeForm    Step = "scrape_form"
	StepSubmit        Step = "submit"
	StepExtractTokens Step = "extract_tokens"
	StepDecode        Step = "decode"
)

// LoginError is the only error type Login returns.
type LoginError struct {
	Kind Kind
	Step Step

	// Token is the logical token name for token related failures.
	Token string

	// Status and URL describe the last response seen, when there was one.
	// URL has its query stripped.
	Status int
	URL    string

	Err error
}

func (e *LoginError) Error() string {
	var b strings.Builder
	if sentinel, ok := kindSentinels[e.Kind]; ok {
		b.WriteString(sentinel.Error())
	} else {
		b.WriteString("lksauth: login failed")
	}
	fmt.Fprintf(&b, ": %s", e.Step)
	if e.Token != "" {
		fmt.Fprintf(&b, ": %s token", e.Token)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.URL != "" {
		fmt.Fprintf(&b, " at %s", e.URL)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *LoginError) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *LoginError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && target == sentinel
}
