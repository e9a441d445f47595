package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fragmede/threadview/internal/logging"
)

const (
	loginPath       = "/accounts/login/"
	sessionCookie   = "sessionid"
	csrfCookie      = "csrftoken"
	csrfFormField   = "csrfmiddlewaretoken"
	userAgent       = "threadview/1.0"
	maxLoginPageLen = 2 << 20
)

// ErrLoginFailed is returned when the server does not hand out a session.
var ErrLoginFailed = errors.New("login failed: check username and password")

// Session manages the cookie based login of one adhocracy site.
type Session struct {
	client   *http.Client
	jar      *cookiejar.Jar
	base     *url.URL
	log      zerolog.Logger
	Username string
	LoggedIn bool
}

// NewSession creates a logged out session for the site at baseURL.
func NewSession(baseURL string) (*Session, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	jar, _ := cookiejar.New(nil)
	return &Session{
		client: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		jar:  jar,
		base: base,
		log:  logging.Component("auth"),
	}, nil
}

// Host returns the site's host name.
func (s *Session) Host() string {
	return s.base.Host
}

// HTTPClient returns the client carrying the session cookies.
func (s *Session) HTTPClient() *http.Client {
	return s.client
}

func (s *Session) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base.String()+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	return s.client.Do(req)
}

// Login signs in with username and password. The login form's CSRF token
// is scraped first; the server answers a good login with a session cookie.
func (s *Session) Login(ctx context.Context, username, password string) error {
	resp, err := s.get(ctx, loginPath)
	if err != nil {
		return fmt.Errorf("fetch login page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch login page: status %d", resp.StatusCode)
	}

	data, err := loginForm(io.LimitReader(resp.Body, maxLoginPageLen))
	if err != nil {
		return err
	}
	if data.Get(csrfFormField) == "" {
		// Some sites only set the cookie.
		data.Set(csrfFormField, s.cookie(csrfCookie))
	}
	data.Set("login", username)
	data.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base.String()+loginPath, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", s.base.String()+loginPath)
	req.Header.Set("User-Agent", userAgent)

	resp2, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp2.Body.Close()
	_, _ = io.Copy(io.Discard, resp2.Body)

	if s.cookie(sessionCookie) == "" {
		s.log.Warn().Int("status", resp2.StatusCode).Str("user", username).Msg("login did not return a session")
		return ErrLoginFailed
	}

	s.Username = username
	s.LoggedIn = true
	s.log.Info().Str("user", username).Msg("logged in")
	return nil
}

func (s *Session) cookie(name string) string {
	for _, c := range s.jar.Cookies(s.base) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// savedSession is the JSON structure written to disk.
type savedSession struct {
	Username string        `json:"username"`
	BaseURL  string        `json:"base_url"`
	Cookies  []savedCookie `json:"cookies"`
	SavedAt  time.Time     `json:"saved_at"`
}

type savedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain"`
	Path     string    `json:"path"`
	Expires  time.Time `json:"expires"`
	Secure   bool      `json:"secure"`
	HttpOnly bool      `json:"http_only"`
}

// Save persists the session cookies to a file readable only by the user.
func (s *Session) Save(path string) error {
	if !s.LoggedIn {
		return nil
	}

	cookies := s.jar.Cookies(s.base)
	sc := make([]savedCookie, len(cookies))
	for i, c := range cookies {
		sc[i] = savedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
	}

	data, err := json.MarshalIndent(savedSession{
		Username: s.Username,
		BaseURL:  s.base.String(),
		Cookies:  sc,
		SavedAt:  time.Now(),
	}, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Load restores a session from a file and checks it is still accepted by
// the server. A stale session file is removed.
func (s *Session) Load(ctx context.Context, path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	var saved savedSession
	if err := json.Unmarshal(data, &saved); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("unreadable session file")
		return false
	}
	if saved.Username == "" || len(saved.Cookies) == 0 {
		return false
	}
	if saved.BaseURL != "" && saved.BaseURL != s.base.String() {
		// Session of another site.
		return false
	}

	cookies := make([]*http.Cookie, len(saved.Cookies))
	for i, sc := range saved.Cookies {
		cookies[i] = &http.Cookie{
			Name:     sc.Name,
			Value:    sc.Value,
			Domain:   sc.Domain,
			Path:     sc.Path,
			Expires:  sc.Expires,
			Secure:   sc.Secure,
			HttpOnly: sc.HttpOnly,
		}
	}
	s.jar.SetCookies(s.base, cookies)

	if err := s.validate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("stale session, removing")
		_ = os.Remove(path)
		return false
	}

	s.Username = saved.Username
	s.LoggedIn = true
	return true
}

// validate checks that the home page offers a logout, i.e. the session
// cookie is still good.
func (s *Session) validate(ctx context.Context) error {
	resp, err := s.get(ctx, "/")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !hasLogout(io.LimitReader(resp.Body, maxLoginPageLen)) {
		return fmt.Errorf("authentication failed: no logout link found")
	}
	return nil
}

// Logout forgets the session and removes its file.
func (s *Session) Logout(path string) error {
	jar, _ := cookiejar.New(nil)
	s.jar = jar
	s.client.Jar = jar
	s.Username = ""
	s.LoggedIn = false
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
