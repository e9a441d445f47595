package render

import (
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// parse runs the same parser pipeline as NewMarkdown and returns the AST.
func parse(t *testing.T, src string) (ast.Node, []byte) {
	t.Helper()
	md := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.TaskList, extension.Linkify),
		goldmark.WithParserOptions(
			parser.WithInlineParsers(util.Prioritized(doubleTildeParser{}, 500)),
			parser.WithASTTransformers(util.Prioritized(restrictTransformer{}, 100)),
		),
	)
	source := []byte(src)
	return md.Parser().Parse(text.NewReader(source)), source
}

func countKind(n ast.Node, kind ast.NodeKind) int {
	count := 0
	_ = ast.Walk(n, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == kind {
			count++
		}
		return ast.WalkContinue, nil
	})
	return count
}

func TestRestrict_Headings(t *testing.T) {
	doc, _ := parse(t, "# one\n\n## two\n\n#### four\n\n##### five\n")

	assert.Equal(t, 1, countKind(doc, ast.KindHeading), "only level 5 survives")
	assert.Equal(t, 3, countKind(doc, ast.KindParagraph))
}

func TestRestrict_TableUnwrapped(t *testing.T) {
	doc, source := parse(t, "| a | b |\n|---|---|\n| c | d |\n")

	assert.Zero(t, countKind(doc, east.KindTable))
	require.Equal(t, 2, countKind(doc, ast.KindParagraph))

	first := doc.FirstChild()
	assert.Equal(t, "a b", string(first.Text(source)))
	assert.Equal(t, "c d", string(first.NextSibling().Text(source)))
}

func TestRestrict_InputsDropped(t *testing.T) {
	doc, _ := parse(t, "- [x] done\n- [ ] todo\n\ntext <input type=\"text\"> more\n")

	assert.Zero(t, countKind(doc, east.KindTaskCheckBox))
	assert.Zero(t, countKind(doc, ast.KindRawHTML))
}

func TestStrikethrough(t *testing.T) {
	doc, _ := parse(t, "~~gone~~ and ~kept~\n")
	assert.Equal(t, 1, countKind(doc, east.KindStrikethrough))

	doc, _ = parse(t, "~single~\n")
	assert.Zero(t, countKind(doc, east.KindStrikethrough))

	doc, _ = parse(t, "~~~three~~~\n")
	assert.Zero(t, countKind(doc, east.KindStrikethrough))
}

func TestMarkdownRender(t *testing.T) {
	md, err := NewMarkdown(MarkdownOptions{Width: 40, Style: "ascii", Profile: termenv.Ascii})
	require.NoError(t, err)

	out, err := md.Render("# Title\n\nSome **bold** text.")
	require.NoError(t, err)

	// The ascii profile emits no escape sequences.
	assert.Contains(t, out, "Title")
	assert.NotContains(t, out, "#")
	assert.Contains(t, out, "bold")
}

func TestNewMarkdown_UnknownStyle(t *testing.T) {
	_, err := NewMarkdown(MarkdownOptions{Style: "neon"})
	assert.Error(t, err)
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 0, 0, time.Local)
	assert.Equal(t, "09.03.2024 14:05", FormatDate(ts, ""))
	assert.Equal(t, "2024-03-09", FormatDate(ts, "2006-01-02"))
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{4 * 24 * time.Hour, "4d ago"},
		{90 * 24 * time.Hour, "3mo ago"},
		{800 * 24 * time.Hour, "2y ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, timeAgo(now.Add(-tt.ago), now))
	}
}
