package lksauth_test

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/lkslogin/pkg/lksauth"
)

var testNow = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

const casFormHTML = `<!DOCTYPE html>
<html><body>
<form id="fm1" action="/cas/login?service=%s" method="post">
  <input type="hidden" name="csrf" value="abc">
  <input type="hidden" name="lt" value="LT-1">
  <input type="text" name="username">
  <input type="password" name="password">
  <input type="submit" name="submit" value="LOGIN">
</form>
</body></html>`

// submission is what the mock CAS saw on the credential POST.
type submission struct {
	body        string
	contentType string
	referer     string
	origin      string
	userAgent   string
	casSession  string
}

// mockPortal mimics the LKS portal and its CAS gateway on one server:
//
//	GET  /login?back=...      302 -> /cas/login?service=...
//	GET  /cas/login           200 login form, sets the CAS session cookie
//	POST /cas/login           302 -> /portal3/login1?ticket=... on success
//	GET  /portal3/login1      sets the token cookies, 302 -> /profile
//	GET  /profile             200
type mockPortal struct {
	srv *httptest.Server

	username string
	password string

	loginCookie string
	infoCookie  string
	loginToken  string
	infoToken   string

	// pageHTML overrides the CAS login page.
	pageHTML string
	// pageStatus overrides the CAS login page status.
	pageStatus int
	// rejectStatus is the status for bad credentials, 200 by default.
	rejectStatus int

	mu          sync.Mutex
	back        string
	submissions []submission
}

func newMockPortal(t *testing.T) *mockPortal {
	t.Helper()

	exp := testNow.Add(time.Hour)
	p := &mockPortal{
		username:    "ivan",
		password:    "hunter2",
		loginCookie: "__portal3_login",
		infoCookie:  "__portal3_info",
		loginToken:  signLogin(t, exp),
		infoToken:   encodeInfo(t, exp),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /login", p.handlePortalLogin)
	mux.HandleFunc("GET /cas/login", p.handleCASPage)
	mux.HandleFunc("POST /cas/login", p.handleCASSubmit)
	mux.HandleFunc("GET /portal3/login1", p.handleTicket)
	mux.HandleFunc("GET /profile", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html><body>profile</body></html>")
	})

	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *mockPortal) service() string {
	return p.srv.URL + "/portal3/login1"
}

func (p *mockPortal) handlePortalLogin(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.back = r.URL.Query().Get("back")
	p.mu.Unlock()

	http.Redirect(w, r, "/cas/login?service="+url.QueryEscape(p.service()), http.StatusFound)
}

func (p *mockPortal) handleCASPage(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "cas-session-1", Path: "/cas"})

	if p.pageStatus != 0 {
		w.WriteHeader(p.pageStatus)
		return
	}

	page := p.pageHTML
	if page == "" {
		page = fmt.Sprintf(casFormHTML, url.QueryEscape(p.service()))
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, page)
}

func (p *mockPortal) handleCASSubmit(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	sub := submission{
		body:        string(body),
		contentType: r.Header.Get("Content-Type"),
		referer:     r.Header.Get("Referer"),
		origin:      r.Header.Get("Origin"),
		userAgent:   r.Header.Get("User-Agent"),
	}
	if c, err := r.Cookie("JSESSIONID"); err == nil {
		sub.casSession = c.Value
	}

	p.mu.Lock()
	p.submissions = append(p.submissions, sub)
	p.mu.Unlock()

	form, err := url.ParseQuery(sub.body)
	if err != nil ||
		form.Get("username") != p.username ||
		form.Get("password") != p.password ||
		sub.casSession == "" {
		status := p.rejectStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, casFormHTML, url.QueryEscape(p.service()))
		return
	}

	http.Redirect(w, r, p.service()+"?ticket=ST-1-secret-ticket", http.StatusFound)
}

func (p *mockPortal) handleTicket(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("ticket") == "" {
		http.Error(w, "missing ticket", http.StatusBadRequest)
		return
	}
	if p.loginToken != "" {
		http.SetCookie(w, &http.Cookie{Name: p.loginCookie, Value: p.loginToken, Path: "/"})
	}
	if p.infoToken != "" {
		http.SetCookie(w, &http.Cookie{Name: p.infoCookie, Value: p.infoToken, Path: "/"})
	}
	http.Redirect(w, r, "/profile", http.StatusFound)
}

func (p *mockPortal) lastSubmission(t *testing.T) submission {
	t.Helper()

	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.submissions)
	return p.submissions[len(p.submissions)-1]
}

func signLogin(t *testing.T, exp time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"usr": map[string]any{
			"name":  "Ivan Petrov",
			"id":    12345,
			"alias": "IU7-61B",
		},
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("portal-secret"))
	require.NoError(t, err)
	return signed
}

func encodeInfo(t *testing.T, exp time.Time) string {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"name":   "Ivan Petrov",
		"expire": exp.Unix(),
	})
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(payload)
}

func (p *mockPortal) client() *lksauth.Client {
	return lksauth.NewClientAt(p.srv.URL, testNow)
}

func (p *mockPortal) backURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.back
}
