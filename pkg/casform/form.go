// Package casform pulls the login form out of a CAS login page: every
// hidden field in document order and the absolute submission URL.
package casform

import (
	"errors"
	"net/url"
	"strings"
)

// ErrFormNotFound means the page has no login form. Usually the portal
// markup changed or the session was already authenticated.
var ErrFormNotFound = errors.New("casform: login form not found")

// Field is a single form name/value pair.
type Field struct {
	Name  string
	Value string
}

// Form is a scraped login form.
type Form struct {
	// Action is the absolute submission URL.
	Action *url.URL

	// Method is the upper-cased form method, POST when unspecified.
	Method string

	// Fields holds the hidden inputs in document order. Duplicated names
	// are kept; CAS deployments rotate their anti-forgery field names, so
	// nothing is filtered.
	Fields []Field
}

// Encode renders the form as an application/x-www-form-urlencoded body.
// The hidden fields keep their order. An extra field replaces the value of
// a hidden field with the same name in place; the rest are appended.
//
// url.Values.Encode sorts by key, which is why the body is built by hand.
func (f *Form) Encode(extra ...Field) string {
	fields := make([]Field, len(f.Fields), len(f.Fields)+len(extra))
	copy(fields, f.Fields)

	for _, e := range extra {
		replaced := false
		for i := range fields {
			if fields[i].Name == e.Name {
				fields[i].Value = e.Value
				replaced = true
			}
		}
		if !replaced {
			fields = append(fields, e)
		}
	}

	var b strings.Builder
	for i, field := range fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(field.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(field.Value))
	}
	return b.String()
}
