package threadview

import (
	"context"
	"strings"

	"github.com/fragmede/threadview/internal/thread"
	"github.com/fragmede/threadview/internal/ui/commentview"
)

// Load fetches the thread of opts.PageURL once, the way the interactive
// view does, and returns the store with an env describing the page.
func Load(ctx context.Context, opts Options) (*thread.Store, *commentview.Env, error) {
	msg := fetchThread(ctx, opts.Client, opts.Cache, opts, false)
	if msg.Thread == nil {
		return nil, nil, msg.Err
	}
	store := thread.NewIngester().Build(msg.Thread)
	env := &commentview.Env{
		Store:      store,
		Viewer:     opts.Viewer,
		ReadOnly:   true,
		PageURL:    opts.PageURL,
		DateLayout: opts.DateLayout,
	}
	if opts.AnchorID != 0 {
		env.Anchor = store.AnchorContext(opts.AnchorID)
	}
	return store, env, nil
}

// Print renders every comment of the store with all replies shown and
// full bodies. The anchored comment, if any, is highlighted.
func Print(env *commentview.Env, r *commentview.Renderer, width int) string {
	var sb strings.Builder
	env.Store.Walk(func(c *thread.Comment, depth int) bool {
		st := commentview.State{
			ChildrenExpanded: true,
			AnchorTarget:     env.Anchor.Targets(c.ID),
		}
		v := commentview.Snapshot(c, st, env, len(env.Store.Children(c.ID)))
		// Nothing to press on paper.
		v.ReadMore = ""
		v.Actions = commentview.ActionsView{}
		sb.WriteString(r.Comment(&v, depth, width, false))
		sb.WriteString("\n")
		return true
	})
	return sb.String()
}
