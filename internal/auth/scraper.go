package auth

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	xhtml "golang.org/x/net/html"
)

// loginForm returns the hidden inputs of the page's login form, which
// carry the CSRF token.
func loginForm(r io.Reader) (url.Values, error) {
	vals := url.Values{}
	inForm := false
	z := xhtml.NewTokenizer(r)
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return vals, nil
			}
			return nil, fmt.Errorf("parse login page: %w", z.Err())
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			t := z.Token()
			switch t.Data {
			case "form":
				action := attr(t, "action")
				inForm = action == "" || strings.Contains(action, "login")
			case "input":
				if inForm && strings.EqualFold(attr(t, "type"), "hidden") {
					if name := attr(t, "name"); name != "" {
						vals.Set(name, attr(t, "value"))
					}
				}
			}
		case xhtml.EndTagToken:
			if t := z.Token(); t.Data == "form" {
				inForm = false
			}
		}
	}
}

// hasLogout reports whether the page links to or posts to the logout
// view, which is only offered to signed in users.
func hasLogout(r io.Reader) bool {
	z := xhtml.NewTokenizer(r)
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return false
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			t := z.Token()
			var target string
			switch t.Data {
			case "a":
				target = attr(t, "href")
			case "form":
				target = attr(t, "action")
			default:
				continue
			}
			if strings.Contains(target, "/accounts/logout") {
				return true
			}
		}
	}
}

func attr(t xhtml.Token, key string) string {
	for _, a := range t.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
