package casform

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// scannedForm is a <form> as seen in the token stream.
type scannedForm struct {
	attrs       []html.Attribute
	hasPassword bool
}

type scannedInput struct {
	attrs []html.Attribute
	// owner is the index of the enclosing form, -1 outside any form.
	owner int
}

// Extract parses the login page read from r. pageURL is the URL the page
// was served from and is the base for a relative action.
//
// The login form is the first <form> holding a password input; failing
// that, the first <form> in the document.
//
// The page is scanned as a token stream rather than a DOM. The HTML5 tree
// builder moves inputs out of forms that sit inside tables, while browsers
// still submit them with the form.
func Extract(r io.Reader, pageURL *url.URL) (*Form, error) {
	forms, inputs, err := scan(r)
	if err != nil {
		return nil, err
	}
	if len(forms) == 0 {
		return nil, ErrFormNotFound
	}

	chosen := 0
	for i, f := range forms {
		if f.hasPassword {
			chosen = i
			break
		}
	}
	node := forms[chosen]

	action, err := resolveAction(pageURL, attr(node.attrs, "action"))
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(strings.TrimSpace(attr(node.attrs, "method")))
	if method == "" {
		method = http.MethodPost
	}

	id := attr(node.attrs, "id")
	form := &Form{Action: action, Method: method}
	for _, input := range inputs {
		if !belongsTo(input, chosen, id) {
			continue
		}
		if !strings.EqualFold(attr(input.attrs, "type"), "hidden") {
			continue
		}
		name := attr(input.attrs, "name")
		if name == "" {
			continue
		}
		form.Fields = append(form.Fields, Field{Name: name, Value: attr(input.attrs, "value")})
	}

	return form, nil
}

// belongsTo reports whether input is submitted with form index. An explicit
// form attribute wins over the enclosing form.
func belongsTo(input scannedInput, index int, id string) bool {
	if owner := attr(input.attrs, "form"); owner != "" {
		return id != "" && owner == id
	}
	return input.owner == index
}

// scan walks the token stream collecting every form and every input in
// source order. Forms do not nest: a <form> inside an open form is ignored,
// as browsers do.
func scan(r io.Reader) ([]scannedForm, []scannedInput, error) {
	var (
		forms  []scannedForm
		inputs []scannedInput
		open   = -1
	)

	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return forms, inputs, nil
			}
			return nil, nil, fmt.Errorf("casform: parse html: %w", z.Err())

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.Form:
				if open >= 0 {
					continue
				}
				forms = append(forms, scannedForm{attrs: tok.Attr})
				open = len(forms) - 1
			case atom.Input:
				inputs = append(inputs, scannedInput{attrs: tok.Attr, owner: open})
				if open >= 0 && strings.EqualFold(attr(tok.Attr, "type"), "password") {
					forms[open].hasPassword = true
				}
			}

		case html.EndTagToken:
			tok := z.Token()
			if tok.DataAtom == atom.Form {
				open = -1
			}
		}
	}
}

func resolveAction(pageURL *url.URL, action string) (*url.URL, error) {
	base := pageURL
	if base == nil {
		base = &url.URL{}
	}

	// An empty action submits back to the page itself.
	ref, err := url.Parse(strings.TrimSpace(action))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid action %q: %v", ErrFormNotFound, action, err)
	}

	resolved := base.ResolveReference(ref)
	if !resolved.IsAbs() {
		return nil, fmt.Errorf("%w: action %q does not resolve to an absolute url", ErrFormNotFound, action)
	}
	return resolved, nil
}

func attr(attrs []html.Attribute, key string) string {
	for _, a := range attrs {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}
