package lksauth

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/lkslogin/pkg/httpx"
)

const (
	DefaultBaseURL      = "https://lks.bmstu.ru"
	DefaultLoginPath    = "/login"
	DefaultBackPath     = "/profile"
	DefaultTimeout      = 10 * time.Second
	DefaultMaxRedirects = 10
)

// CookieNames are the cookies the portal stores the two tokens in.
type CookieNames struct {
	Login string
	Info  string
}

// DefaultCookieNames are the LKS portal's token cookies.
var DefaultCookieNames = CookieNames{
	Login: "__portal3_login",
	Info:  "__portal3_info",
}

// CredentialFields are the form field names the credentials are posted
// under. Submit is optional; leave it empty to send no submit button field.
type CredentialFields struct {
	Username    string
	Password    string
	Submit      string
	SubmitValue string
}

// DefaultCredentialFields match the CAS login form the portal uses.
var DefaultCredentialFields = CredentialFields{
	Username:    "username",
	Password:    "password",
	Submit:      "submit",
	SubmitValue: "LOGIN",
}

// Client logs users into the LKS portal. Its fields must not change once
// Login is in use; concurrent logins on one Client are safe.
type Client struct {
	BaseURL   string
	LoginPath string

	// BackPath is the portal page the login redirects back to.
	BackPath string

	// HTTPClient supplies the Transport and Timeout for every login. Its Jar
	// and CheckRedirect are ignored: each login has its own.
	HTTPClient *http.Client

	Clock Clock

	// Logger defaults to the logger in the Login context.
	Logger *slog.Logger

	CookieNames      CookieNames
	CredentialFields CredentialFields

	// MaxRedirects caps the redirects followed per request. Zero means
	// DefaultMaxRedirects.
	MaxRedirects int
}

// NewClient creates a portal client that checks tokens against the wall
// clock.
func NewClient(baseURL string) *Client {
	return newClient(baseURL, SystemClock{}, httpx.Chain(
		http.DefaultTransport,
		httpx.DefaultHeaders(httpx.BrowserHeaders("")),
		httpx.Logging(),
	))
}

// NewClientAt creates a portal client that checks every token against now
// for its whole lifetime.
func NewClientAt(baseURL string, now time.Time) *Client {
	c := NewClient(baseURL)
	c.Clock = FixedClock(now)
	return c
}

// NewClientFromConfig creates a portal client from cfg, including its
// logger and outbound rate limit.
func NewClientFromConfig(cfg Config) *Client {
	var clock Clock = SystemClock{}
	if !cfg.FixedTime.IsZero() {
		clock = FixedClock(cfg.FixedTime)
	}

	c := newClient(cfg.BaseURL, clock, httpx.Chain(
		http.DefaultTransport,
		httpx.DefaultHeaders(httpx.BrowserHeaders(cfg.UserAgent)),
		httpx.RateLimit(cfg.RateLimit),
		httpx.Logging(),
	))

	if cfg.LoginPath != "" {
		c.LoginPath = cfg.LoginPath
	}
	if cfg.BackPath != "" {
		c.BackPath = cfg.BackPath
	}
	if cfg.Timeout > 0 {
		c.HTTPClient.Timeout = cfg.Timeout
	}
	if cfg.MaxRedirects > 0 {
		c.MaxRedirects = cfg.MaxRedirects
	}
	c.Logger = cfg.Logger()

	return c
}

func newClient(baseURL string, clock Clock, transport http.RoundTripper) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
		LoginPath: DefaultLoginPath,
		BackPath:  DefaultBackPath,
		HTTPClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
		},
		Clock:            clock,
		CookieNames:      DefaultCookieNames,
		CredentialFields: DefaultCredentialFields,
		MaxRedirects:     DefaultMaxRedirects,
	}
}

// LoginURL is the portal page a login starts from. The back parameter
// tells the portal where to land once CAS is done.
func (c *Client) LoginURL() string {
	return c.BaseURL + c.LoginPath + "?back=" + url.QueryEscape(c.BaseURL+c.BackPath)
}

func (c *Client) now() time.Time {
	if c.Clock == nil {
		return time.Now()
	}
	return c.Clock.Now()
}

func (c *Client) cookieNames() CookieNames {
	names := c.CookieNames
	if names.Login == "" {
		names.Login = DefaultCookieNames.Login
	}
	if names.Info == "" {
		names.Info = DefaultCookieNames.Info
	}
	return names
}

// credentialFields fills unset field names from DefaultCredentialFields.
// An unset Submit is left alone: it disables the submit field.
func (c *Client) credentialFields() CredentialFields {
	fields := c.CredentialFields
	if fields.Username == "" {
		fields.Username = DefaultCredentialFields.Username
	}
	if fields.Password == "" {
		fields.Password = DefaultCredentialFields.Password
	}
	return fields
}

func (c *Client) maxRedirects() int {
	if c.MaxRedirects <= 0 {
		return DefaultMaxRedirects
	}
	return c.MaxRedirects
}
