package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/threadview/internal/config"
	"github.com/fragmede/threadview/internal/thread"
)

func testFlags(t *testing.T) *Flags {
	t.Helper()
	yes := true
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Categories = []config.Category{{Key: "q", Label: "Question"}}
	cfg.Sites = []config.Site{{
		Pattern:        "meinberlin.example/projects/**",
		BaseURL:        "https://api.meinberlin.example",
		WithCategories: &yes,
	}}
	return &Flags{Config: &cfg}
}

func TestOpenPage(t *testing.T) {
	f := testFlags(t)
	p, err := f.openPage("https://meinberlin.example/projects/p/ideas/7/")
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	assert.Equal(t, "https://api.meinberlin.example", p.client.BaseURL())
	assert.Equal(t, "api.meinberlin.example", p.session.Host())

	opts := p.options(f.Config, 42, nil)
	assert.Equal(t, "https://meinberlin.example/projects/p/ideas/7/", opts.PageURL)
	assert.Equal(t, 42, opts.AnchorID)
	require.NotNil(t, opts.WithCategories)
	assert.True(t, *opts.WithCategories)
	assert.Equal(t, []thread.Category{{Key: "q", Label: "Question"}}, opts.Categories)
	assert.Equal(t, 2*time.Minute, opts.CommentTTL)
	assert.Same(t, p.db, opts.Cache)
}

func TestOpenPage_Invalid(t *testing.T) {
	f := testFlags(t)
	_, err := f.openPage("")
	assert.Error(t, err)
	_, err = f.openPage("/relative/path")
	assert.Error(t, err)
}
