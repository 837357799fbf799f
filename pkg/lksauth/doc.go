/*
Package lksauth logs a student into the BMSTU LKS portal through its CAS
gateway and returns the two decoded session tokens.

# Overview

The portal has no API for password login. Client replays what a browser
does:

 1. GET the portal login page, following redirects to the CAS login page.
 2. Scrape the login form: every hidden field, in order, and its action.
 3. POST the hidden fields plus the credentials, following the redirect
    chain back to the portal.
 4. Read the "login" and "info" token cookies set along the chain.
 5. Decode both tokens and check they have not expired.

A login either returns a fully populated LoginResponse or a *LoginError.
Nothing is retried and nothing is kept between calls: each Login owns a
fresh cookie jar that is dropped when it returns.

# Usage

	client := lksauth.NewClient("https://lks.bmstu.ru")

	resp, err := client.Login(ctx, username, password)
	if errors.Is(err, lksauth.ErrAuthenticationFailed) {
		// wrong username or password
	}

	fmt.Println(resp.StudentID, resp.Group, resp.ExpiresAt())

	// Reuse the tokens for later portal requests.
	for _, c := range resp.Cookies() {
		req.AddCookie(c)
	}

Clients can also be built from the environment:

	client := lksauth.NewClientFromConfig(lksauth.LoadConfig())

# Time

Expiration checks read the client's Clock once per Login. NewClientAt pins
the clock to a fixed instant, which makes "already expired" tokens
reproducible in tests. A token expiring exactly at now is expired.

# Errors

Every failure is a *LoginError carrying a Kind and the Step it happened in.
Each Kind has a sentinel for errors.Is:

	ErrNetwork               transport failure, non-200 login page, too many redirects
	ErrFormNotFound          the login page has no usable form
	ErrAuthenticationFailed  token cookies missing after submit, or a 401
	ErrMalformedToken        a token could not be decoded
	ErrMissingClaim          a token has no expiration
	ErrExpiredToken          a token is already expired

The underlying cause stays reachable through errors.Is and errors.As, for
example lkstoken.ErrExpired or a *url.Error.

Missing token cookies are the only signal of rejected credentials besides
a 401. Lockouts and CAPTCHA pages look the same as a wrong password; the
error carries the final status and URL to tell them apart by hand.

# Logging

Login logs through Client.Logger, or the logger carried in ctx when it is
nil. Every line of one attempt shares a login_id. Credentials, token values
and query strings are never logged.
*/
package lksauth
