package lksauth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/lkslogin/pkg/casform"
	"github.com/aussiebroadwan/lkslogin/pkg/idx"
	"github.com/aussiebroadwan/lkslogin/pkg/lkstoken"
	"github.com/aussiebroadwan/lkslogin/pkg/slogx"
)

// maxPageSize bounds how much of the login page is read.
const maxPageSize = 4 << 20

var errInvalidCredentials = errors.New("portal rejected the credentials")

// loginPage is the CAS login page as served after the redirect chain.
type loginPage struct {
	body   []byte
	url    *url.URL
	status int
}

// Login exchanges username and password for the portal's session tokens.
// It makes one attempt and never retries. On failure the error is always a
// *LoginError and the response is nil.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	logger := c.Logger
	if logger == nil {
		logger = slogx.FromContext(ctx)
	}
	ctx = slogx.WithLoginID(slogx.WithContext(ctx, logger), idx.New().String())
	logger = slogx.FromContext(ctx)

	logger.Info("login started", "portal", c.BaseURL)

	resp, err := c.login(ctx, username, password)
	if err != nil {
		var loginErr *LoginError
		if errors.As(err, &loginErr) {
			logger.Warn("login failed",
				"kind", loginErr.Kind.String(),
				"step", string(loginErr.Step),
				"token", loginErr.Token,
				"status", loginErr.Status,
			)
		}
		return nil, err
	}

	logger.Info("login succeeded", "expires_at", resp.ExpiresAt())
	return resp, nil
}

func (c *Client) login(ctx context.Context, username, password string) (*LoginResponse, error) {
	logger := slogx.FromContext(ctx)

	sess, err := c.newSession()
	if err != nil {
		return nil, &LoginError{Kind: KindNetwork, Step: StepFetchPage, Err: err}
	}

	page, err := c.fetchPage(ctx, sess)
	if err != nil {
		return nil, err
	}
	logger.Info("login page fetched", "status", page.status, "url", redact(page.url))

	form, err := casform.Extract(bytes.NewReader(page.body), page.url)
	if err == nil && form.Method != http.MethodPost {
		err = fmt.Errorf("%w: form method is %s", casform.ErrFormNotFound, form.Method)
	}
	if err != nil {
		return nil, &LoginError{
			Kind:   KindFormNotFound,
			Step:   StepScrapeForm,
			Status: page.status,
			URL:    redact(page.url),
			Err:    err,
		}
	}

	final, err := c.submit(ctx, sess, page, form, username, password)
	if err != nil {
		return nil, err
	}

	names := c.cookieNames()
	loginValue, ok := sess.jar.value(names.Login)
	if !ok {
		return nil, missingCookie(lkstoken.NameLogin, names.Login, final)
	}
	infoValue, ok := sess.jar.value(names.Info)
	if !ok {
		return nil, missingCookie(lkstoken.NameInfo, names.Info, final)
	}

	now := c.now()
	loginToken, err := lkstoken.Decode(lkstoken.Login(loginValue), now)
	if err != nil {
		return nil, decodeError(lkstoken.NameLogin, err)
	}
	infoToken, err := lkstoken.Decode(lkstoken.Info(infoValue), now)
	if err != nil {
		return nil, decodeError(lkstoken.NameInfo, err)
	}

	return &LoginResponse{
		LoginToken:  loginToken,
		InfoToken:   infoToken,
		StudentID:   loginToken.StudentID,
		Group:       loginToken.Group,
		cookieNames: names,
	}, nil
}

func (c *Client) fetchPage(ctx context.Context, sess *session) (*loginPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.LoginURL(), nil)
	if err != nil {
		return nil, &LoginError{
			Kind: KindNetwork,
			Step: StepFetchPage,
			Err:  fmt.Errorf("failed to create request: %w", err),
		}
	}

	resp, _, err := sess.do(req)
	if err != nil {
		return nil, &LoginError{
			Kind: KindNetwork,
			Step: StepFetchPage,
			Err:  fmt.Errorf("failed to send request: %w", err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageSize))
		return nil, &LoginError{
			Kind:   KindNetwork,
			Step:   StepFetchPage,
			Status: resp.StatusCode,
			URL:    redact(resp.Request.URL),
			Err:    fmt.Errorf("login page returned status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, &LoginError{
			Kind:   KindNetwork,
			Step:   StepFetchPage,
			Status: resp.StatusCode,
			URL:    redact(resp.Request.URL),
			Err:    fmt.Errorf("failed to read response body: %w", err),
		}
	}

	return &loginPage{body: body, url: resp.Request.URL, status: resp.StatusCode}, nil
}

// finalResponse is what is left of the last submit response once its body
// has been drained.
type finalResponse struct {
	status int
	url    *url.URL
}

func (c *Client) submit(
	ctx context.Context,
	sess *session,
	page *loginPage,
	form *casform.Form,
	username, password string,
) (*finalResponse, error) {
	fields := c.credentialFields()
	extra := []casform.Field{
		{Name: fields.Username, Value: username},
		{Name: fields.Password, Value: password},
	}
	if fields.Submit != "" {
		extra = append(extra, casform.Field{Name: fields.Submit, Value: fields.SubmitValue})
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		form.Action.String(),
		strings.NewReader(form.Encode(extra...)),
	)
	if err != nil {
		return nil, &LoginError{
			Kind: KindNetwork,
			Step: StepSubmit,
			Err:  fmt.Errorf("failed to create request: %w", err),
		}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", page.url.String())
	req.Header.Set("Origin", page.url.Scheme+"://"+page.url.Host)

	resp, redirects, err := sess.do(req)
	if err != nil {
		return nil, &LoginError{
			Kind: KindNetwork,
			Step: StepSubmit,
			URL:  redact(form.Action),
			Err:  fmt.Errorf("failed to send request: %w", err),
		}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageSize))

	final := &finalResponse{status: resp.StatusCode, url: resp.Request.URL}
	slogx.FromContext(ctx).Info("credentials submitted",
		"status", final.status,
		"redirects", redirects,
	)

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &LoginError{
			Kind:   KindAuthenticationFailed,
			Step:   StepSubmit,
			Status: final.status,
			URL:    redact(final.url),
			Err:    errInvalidCredentials,
		}
	}

	return final, nil
}

func missingCookie(token, cookie string, final *finalResponse) *LoginError {
	return &LoginError{
		Kind:   KindAuthenticationFailed,
		Step:   StepExtractTokens,
		Token:  token,
		Status: final.status,
		URL:    redact(final.url),
		Err:    fmt.Errorf("cookie %q not set", cookie),
	}
}

func decodeError(token string, err error) *LoginError {
	kind := KindMalformedToken
	switch {
	case errors.Is(err, lkstoken.ErrExpired):
		kind = KindExpiredToken
	case errors.Is(err, lkstoken.ErrMissingClaim):
		kind = KindMissingClaim
	}
	return &LoginError{Kind: kind, Step: StepDecode, Token: token, Err: err}
}
