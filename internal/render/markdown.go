package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Markdown renders user supplied comment text for the terminal.
//
// Comments may use GitHub flavored markdown with a few restrictions:
// headings of level 1-4 render as plain paragraphs, tables are unwrapped
// into one line of text per row, form inputs (task list boxes and raw
// <input> tags) are dropped, and only double tildes strike through.
type Markdown struct {
	md goldmark.Markdown
}

// MarkdownOptions configures a Markdown renderer.
type MarkdownOptions struct {
	Width int
	// Style is a glamour style name ("dark", "light", "ascii", ...).
	Style   string
	Profile termenv.Profile
}

// NewMarkdown builds a renderer. Unknown style names are an error.
func NewMarkdown(opts MarkdownOptions) (*Markdown, error) {
	style, ok := styles.DefaultStyles[opts.Style]
	if !ok {
		return nil, fmt.Errorf("unknown markdown style %q", opts.Style)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.TaskList,
			extension.Linkify,
		),
		goldmark.WithParserOptions(
			parser.WithInlineParsers(
				util.Prioritized(doubleTildeParser{}, 500),
			),
			parser.WithASTTransformers(
				util.Prioritized(restrictTransformer{}, 100),
			),
		),
	)
	md.SetRenderer(renderer.NewRenderer(
		renderer.WithNodeRenderers(
			util.Prioritized(ansi.NewRenderer(ansi.Options{
				WordWrap:     opts.Width,
				ColorProfile: opts.Profile,
				Styles:       *style,
			}), 1000),
		),
	))
	return &Markdown{md: md}, nil
}

// Render converts markdown source to ANSI text.
func (m *Markdown) Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.Trim(buf.String(), "\n"), nil
}

// doubleTildeParser recognizes ~~strike~~ but leaves single tildes alone.
type doubleTildeParser struct{}

type tildeDelimiter struct{}

func (tildeDelimiter) IsDelimiter(b byte) bool { return b == '~' }

func (tildeDelimiter) CanOpenCloser(opener, closer *parser.Delimiter) bool {
	return opener.Char == closer.Char && opener.OriginalLength == closer.OriginalLength
}

func (tildeDelimiter) OnMatch(consumes int) ast.Node {
	return east.NewStrikethrough()
}

func (doubleTildeParser) Trigger() []byte {
	return []byte{'~'}
}

func (doubleTildeParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	before := block.PrecendingCharacter()
	line, segment := block.PeekLine()
	node := parser.ScanDelimiter(line, before, 2, tildeDelimiter{})
	if node == nil || node.OriginalLength != 2 || before == '~' {
		return nil
	}
	node.Segment = segment.WithStop(segment.Start + node.OriginalLength)
	block.Advance(node.OriginalLength)
	pc.PushDelimiter(node)
	return node
}

func (doubleTildeParser) CloseBlock(parent ast.Node, pc parser.Context) {}

// restrictTransformer rewrites the parsed document so disallowed elements
// render as their plain content.
type restrictTransformer struct{}

func (restrictTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var headings, tables, inputs []ast.Node
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading:
			if n.(*ast.Heading).Level <= 4 {
				headings = append(headings, n)
			}
		case east.KindTable:
			tables = append(tables, n)
			return ast.WalkSkipChildren, nil
		case east.KindTaskCheckBox:
			inputs = append(inputs, n)
		case ast.KindRawHTML:
			if isInputTag(rawHTML(n.(*ast.RawHTML), source)) {
				inputs = append(inputs, n)
			}
		case ast.KindHTMLBlock:
			if isInputTag(blockText(n, source)) {
				inputs = append(inputs, n)
			}
		}
		return ast.WalkContinue, nil
	})

	for _, h := range headings {
		p := ast.NewParagraph()
		moveChildren(p, h)
		h.Parent().ReplaceChild(h.Parent(), h, p)
	}
	for _, t := range tables {
		unwrapTable(t)
	}
	for _, n := range inputs {
		if parent := n.Parent(); parent != nil {
			parent.RemoveChild(parent, n)
		}
	}
}

// unwrapTable replaces a table by one paragraph per header or body row,
// cells separated by a space.
func unwrapTable(table ast.Node) {
	parent := table.Parent()
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		p := ast.NewParagraph()
		first := true
		for cell := row.FirstChild(); cell != nil; {
			next := cell.NextSibling()
			if cell.HasChildren() {
				if !first {
					p.AppendChild(p, ast.NewString([]byte(" ")))
				}
				moveChildren(p, cell)
				first = false
			}
			cell = next
		}
		if p.HasChildren() {
			parent.InsertBefore(parent, table, p)
		}
	}
	parent.RemoveChild(parent, table)
}

func moveChildren(dst, src ast.Node) {
	for c := src.FirstChild(); c != nil; {
		next := c.NextSibling()
		dst.AppendChild(dst, c)
		c = next
	}
}

func rawHTML(n *ast.RawHTML, source []byte) string {
	var sb strings.Builder
	for i := 0; i < n.Segments.Len(); i++ {
		seg := n.Segments.At(i)
		sb.Write(seg.Value(source))
	}
	return sb.String()
}

func blockText(n ast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return sb.String()
}

func isInputTag(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "<input")
}
