package commentview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/fragmede/threadview/internal/render"
	"github.com/fragmede/threadview/internal/ui/rating"
)

var (
	depthColors = []lipgloss.Color{
		"#2D9CDB", "#828282", "#00BFFF", "#32CD32", "#FFD700", "#FF69B4", "#9370DB", "#20B2AA",
	}

	authorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#2D9CDB")).Bold(true)
	deletedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555")).Italic(true)
	metaStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	moderatorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#000")).Background(lipgloss.Color("#2D9CDB")).Bold(true)
	ownStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#000")).Background(lipgloss.Color("#828282"))
	bannerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#32CD32")).Bold(true)
	badgeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#444444")).Padding(0, 1)
	actionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282"))
	keyStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#2D9CDB"))
	noticeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282")).Italic(true)
	selectedStyle    = lipgloss.NewStyle().Background(lipgloss.Color("#333333"))
	highlightBar     = lipgloss.Color("#FFD700")
	selectedBarColor = lipgloss.Color("#FF6600")
)

// Cache bounds. Resizes and edits leave stale entries behind, so a full
// cache starts over.
const (
	maxCachedBodies    = 512
	maxCachedRenderers = 16
)

// Renderer draws views as terminal text. Rendered bodies are cached per
// width.
type Renderer struct {
	style   string
	profile termenv.Profile
	mds     map[int]*render.Markdown
	bodies  map[bodyKey]string
}

type bodyKey struct {
	width int
	body  string
}

// NewRenderer checks style and returns a renderer.
func NewRenderer(style string, profile termenv.Profile) (*Renderer, error) {
	if _, err := render.NewMarkdown(render.MarkdownOptions{Width: 80, Style: style, Profile: profile}); err != nil {
		return nil, err
	}
	return &Renderer{
		style:   style,
		profile: profile,
		mds:     make(map[int]*render.Markdown),
		bodies:  make(map[bodyKey]string),
	}, nil
}

func (r *Renderer) markdown(body string, width int) string {
	key := bodyKey{width: width, body: body}
	if out, ok := r.bodies[key]; ok {
		return out
	}
	md, ok := r.mds[width]
	if !ok {
		if len(r.mds) >= maxCachedRenderers {
			clear(r.mds)
		}
		var err error
		md, err = render.NewMarkdown(render.MarkdownOptions{Width: width, Style: r.style, Profile: r.profile})
		if err != nil {
			return body
		}
		r.mds[width] = md
	}
	out, err := md.Render(body)
	if err != nil {
		out = body
	}
	if len(r.bodies) >= maxCachedBodies {
		clear(r.bodies)
	}
	r.bodies[key] = out
	return out
}

func indentFor(depth int) int {
	return min(depth*2, 30)
}

func bodyWidth(width, depth int) int {
	return max(width-indentFor(depth)-4, 20)
}

// gutter prefixes every line with the indent and the depth bar.
func gutter(lines []string, depth int, bar lipgloss.Color, selected bool) string {
	prefix := strings.Repeat(" ", indentFor(depth)) + lipgloss.NewStyle().Foreground(bar).Render("│") + " "
	var sb strings.Builder
	for _, line := range lines {
		out := prefix + line
		if selected {
			out = selectedStyle.Render(out)
		}
		sb.WriteString(out)
		sb.WriteString("\n")
	}
	return sb.String()
}

func barColor(depth int, highlighted, selected bool) lipgloss.Color {
	switch {
	case selected:
		return selectedBarColor
	case highlighted:
		return highlightBar
	default:
		return depthColors[depth%len(depthColors)]
	}
}

// Comment renders v without its children or reply area.
func (r *Renderer) Comment(v *View, depth, width int, selected bool) string {
	var lines []string

	if v.Banner != "" {
		lines = append(lines, bannerStyle.Render("✓ "+v.Banner))
	}

	var header string
	if v.Author.Deleted {
		header = deletedStyle.Render(v.Author.Name)
	} else {
		header = authorStyle.Render(v.Author.Name)
	}
	if v.Author.Moderator {
		header += " " + moderatorStyle.Render(" "+ModeratorLabel+" ")
	}
	if v.Own {
		header += " " + ownStyle.Render(" you ")
	}
	header += " " + metaStyle.Render(v.DateLabel)
	lines = append(lines, header)

	if len(v.Categories) > 0 {
		badges := make([]string, 0, len(v.Categories))
		for _, c := range v.Categories {
			badges = append(badges, badgeStyle.Render(c.Label))
		}
		lines = append(lines, strings.Join(badges, " "))
	}

	switch {
	case v.Editing:
		lines = append(lines, strings.Split(v.EditForm, "\n")...)
	case v.Body != "":
		body := r.markdown(v.Body, bodyWidth(width, depth))
		if v.Status.Deleted() {
			body = deletedStyle.Render(body)
		}
		lines = append(lines, strings.Split(body, "\n")...)
	}

	if v.ReadMore != "" && !v.Editing {
		lines = append(lines, keyStyle.Render("[m]")+" "+actionStyle.Render(v.ReadMore))
	}

	if bar := actionBar(v); bar != "" {
		lines = append(lines, bar)
	}

	out := gutter(lines, depth, barColor(depth, v.Highlighted, selected), selected)
	return out + "\n"
}

func actionBar(v *View) string {
	var parts []string
	if v.Rating != nil {
		parts = append(parts, rating.View(*v.Rating))
	}
	a := v.Actions
	add := func(key, label string) {
		parts = append(parts, keyStyle.Render("["+key+"]")+" "+actionStyle.Render(label))
	}
	if a.Reply {
		add("space", a.ReplyLabel)
	}
	if a.Share {
		add("s", ShareLabel)
	}
	if a.Report {
		add("x", ReportLabel)
	}
	if a.Edit && !v.Editing {
		add("e", "Edit")
	}
	if a.Delete {
		add("d", DeleteLabel)
	}
	if a.Pending {
		parts = append(parts, noticeStyle.Render("saving..."))
	}
	return strings.Join(parts, "  ")
}

// Reply renders the reply area under an open comment. depth is the depth
// of the replies.
func (r *Renderer) Reply(rv *ReplyView, depth, width int, selected bool) string {
	var lines []string
	if rv.Notice != "" {
		lines = append(lines, noticeStyle.Render(rv.Notice))
	} else if rv.Focused || selected {
		lines = append(lines, strings.Split(rv.Form, "\n")...)
	} else {
		lines = append(lines, noticeStyle.Render("[r] "+ReplyPlaceholder))
	}
	return gutter(lines, depth, barColor(depth, false, selected), selected) + "\n"
}
