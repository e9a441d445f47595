package commands

import (
	"fmt"

	"github.com/muesli/termenv"

	"github.com/fragmede/threadview/internal/api"
	"github.com/fragmede/threadview/internal/auth"
	"github.com/fragmede/threadview/internal/cache"
	"github.com/fragmede/threadview/internal/config"
	"github.com/fragmede/threadview/internal/thread"
	"github.com/fragmede/threadview/internal/ui/commentview"
	"github.com/fragmede/threadview/internal/ui/threadview"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// page bundles everything needed to show the comments of one page.
type page struct {
	url      string
	resolved config.Resolved
	session  *auth.Session
	client   *api.Client
	db       *cache.DB
}

// openPage resolves the site of pageURL and connects to it. The caller
// closes the returned page.
func (f *Flags) openPage(pageURL string) (*page, error) {
	if pageURL == "" {
		return nil, fmt.Errorf("missing page url")
	}
	resolved, err := f.Config.ForPage(pageURL)
	if err != nil {
		return nil, err
	}

	session, err := auth.NewSession(resolved.BaseURL)
	if err != nil {
		return nil, err
	}
	client, err := api.NewClient(resolved.BaseURL,
		api.WithHTTPClient(session.HTTPClient()),
		api.WithPaging(f.Config.PageSize, f.Config.MaxConcurrentPages),
	)
	if err != nil {
		return nil, err
	}
	db, err := cache.Open(f.Config.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	return &page{
		url:      pageURL,
		resolved: resolved,
		session:  session,
		client:   client,
		db:       db,
	}, nil
}

func (p *page) Close() error {
	return p.db.Close()
}

// options builds the thread view settings for the page.
func (p *page) options(cfg *config.Config, anchorID int, r *commentview.Renderer) threadview.Options {
	cats := make([]thread.Category, 0, len(p.resolved.Categories))
	for _, c := range p.resolved.Categories {
		cats = append(cats, thread.Category{Key: c.Key, Label: c.Label})
	}
	return threadview.Options{
		PageURL:        p.url,
		AnchorID:       anchorID,
		Client:         p.client,
		Cache:          p.db,
		Renderer:       r,
		WithCategories: p.resolved.WithCategories,
		Categories:     cats,
		CommentTTL:     cfg.CommentTTL,
		WidgetTTL:      cfg.WidgetTTL,
		DateLayout:     cfg.DateFormat,
	}
}

func newRenderer(cfg *config.Config, profile termenv.Profile) (*commentview.Renderer, error) {
	r, err := commentview.NewRenderer(cfg.Theme, profile)
	if err != nil {
		return nil, fmt.Errorf("theme %q: %w", cfg.Theme, err)
	}
	return r, nil
}
