package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	xhtml "golang.org/x/net/html"
)

const widgetName = "comment_async"

// FetchWidget loads a participation page and extracts the attributes of
// its comment widget.
func (c *Client) FetchWidget(ctx context.Context, pageURL string) (*Widget, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, errorFromResponse(resp.StatusCode, body)
	}

	w, err := ParseWidget(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pageURL, err)
	}
	c.log.Debug().
		Str("page", pageURL).
		Str("subject", w.Subject().String()).
		Bool("read_only", w.IsReadOnly).
		Msg("found widget")
	return w, nil
}

// ParseWidget scans an HTML document for the element carrying
// data-a4-widget="comment_async" and decodes its data-attributes JSON.
func ParseWidget(r io.Reader) (*Widget, error) {
	z := xhtml.NewTokenizer(r)
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			if z.Err() == io.EOF {
				return nil, ErrNoWidget
			}
			return nil, fmt.Errorf("parse html: %w", z.Err())

		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			t := z.Token()
			if attr(t, "data-a4-widget") != widgetName {
				continue
			}
			raw := attr(t, "data-attributes")
			if strings.TrimSpace(raw) == "" {
				return nil, fmt.Errorf("widget has no data-attributes")
			}
			var w Widget
			if err := json.Unmarshal([]byte(raw), &w); err != nil {
				return nil, fmt.Errorf("decode widget attributes: %w", err)
			}
			if w.SubjectType == 0 || w.SubjectID == "" {
				return nil, fmt.Errorf("widget attributes missing subject")
			}
			return &w, nil
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
