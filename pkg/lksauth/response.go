package lksauth

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/lkslogin/pkg/lkstoken"
)

// LoginResponse is the result of a successful login. Both tokens have been
// decoded and were valid at the client's clock.
type LoginResponse struct {
	LoginToken lkstoken.TokenInfo
	InfoToken  lkstoken.TokenInfo

	// StudentID and Group come from the login token.
	StudentID string
	Group     string

	cookieNames CookieNames
}

// ExpiresAt returns when the first of the two tokens expires.
func (r *LoginResponse) ExpiresAt() time.Time {
	if r.InfoToken.Expiration.Before(r.LoginToken.Expiration) {
		return r.InfoToken.Expiration
	}
	return r.LoginToken.Expiration
}

// Cookies returns the tokens as cookies for later portal requests.
func (r *LoginResponse) Cookies() []*http.Cookie {
	names := r.cookieNames
	if names.Login == "" {
		names = DefaultCookieNames
	}
	return []*http.Cookie{
		{Name: names.Login, Value: r.LoginToken.Raw, Expires: r.LoginToken.Expiration},
		{Name: names.Info, Value: r.InfoToken.Raw, Expires: r.InfoToken.Expiration},
	}
}
