package lksauth

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"golang.org/x/net/publicsuffix"
)

var errTooManyRedirects = errors.New("too many redirects")

// recordingJar is a cookie jar that also remembers the last value of every
// cookie set on the chain, whatever its domain or path. http.Client hides
// intermediate redirect responses, so this is the only place the token
// cookies can be seen.
type recordingJar struct {
	http.CookieJar
	seen map[string]string
}

func (j *recordingJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	for _, c := range cookies {
		if c.MaxAge < 0 {
			delete(j.seen, c.Name)
			continue
		}
		j.seen[c.Name] = c.Value
	}
	j.CookieJar.SetCookies(u, cookies)
}

func (j *recordingJar) value(name string) (string, bool) {
	v, ok := j.seen[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// session is the state of one Login call. It is never shared.
type session struct {
	jar          *recordingJar
	client       *http.Client
	maxRedirects int

	// visited lists every URL requested, redirects included.
	visited []*url.URL
}

func (c *Client) newSession() (*session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	s := &session{
		jar:          &recordingJar{CookieJar: jar, seen: make(map[string]string)},
		maxRedirects: c.maxRedirects(),
	}

	template := c.HTTPClient
	if template == nil {
		template = &http.Client{}
	}
	s.client = &http.Client{
		Transport:     template.Transport,
		Timeout:       template.Timeout,
		Jar:           s.jar,
		CheckRedirect: s.checkRedirect,
	}
	return s, nil
}

func (s *session) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) > s.maxRedirects {
		return fmt.Errorf("%w: stopped after %d", errTooManyRedirects, s.maxRedirects)
	}
	s.visited = append(s.visited, req.URL)
	return nil
}

// do sends req and returns the number of redirects it followed.
func (s *session) do(req *http.Request) (*http.Response, int, error) {
	s.visited = append(s.visited, req.URL)
	before := len(s.visited)

	resp, err := s.client.Do(req)
	return resp, len(s.visited) - before, err
}

// redact drops the query and fragment of u. CAS carries tickets in the
// query string.
func redact(u *url.URL) string {
	if u == nil {
		return ""
	}
	clean := *u
	clean.RawQuery = ""
	clean.ForceQuery = false
	clean.Fragment = ""
	clean.RawFragment = ""
	clean.User = nil
	return clean.String()
}
