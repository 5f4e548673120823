package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"

	"github.com/bull/knowledge-pad/internal/domain"
)

// MarkdownExtractor splits a markdown document at H1 and H2 boundaries. Each
// section becomes one page whose text starts with its header path, so a hit
// on a nested section still shows which chapter it came from.
type MarkdownExtractor struct {
	md goldmark.Markdown
}

// NewMarkdownExtractor creates a markdown extractor configured with goldmark.
func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{
		md: goldmark.New(
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}
}

type section struct {
	heading *ast.Heading // nil for text before the first heading
	setext  bool
	start   int
	end     int
}

// Extract returns one page per section. Text before the first heading is its
// own page; a document without H1/H2 headings is a single page.
func (e *MarkdownExtractor) Extract(ctx context.Context, data []byte) ([]domain.Page, error) {
	doc := e.md.Parser().Parse(text.NewReader(data))

	tree, err := toc.Inspect(doc, data,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: inspect headings: %v", domain.ErrExtraction, err)
	}
	paths := make(map[string]string)
	collectPaths(tree.Items, nil, paths)

	var pages []domain.Page
	for _, s := range splitSections(doc, data) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body := strings.TrimSpace(string(data[s.start:s.end]))
		if s.heading == nil {
			if body != "" {
				pages = append(pages, domain.Page{Number: len(pages) + 1, Text: body})
			}
			continue
		}

		if s.setext {
			body = stripUnderline(body)
		}
		title := paths[headingID(s.heading)]
		if title == "" {
			title = strings.Repeat("#", s.heading.Level) + " " + string(headingText(s.heading, data))
		}
		pageText := title
		if body != "" {
			pageText = title + "\n\n" + body
		}
		pages = append(pages, domain.Page{Number: len(pages) + 1, Text: pageText})
	}

	if len(pages) == 0 {
		pages = append(pages, domain.Page{Number: 1, Text: strings.TrimSpace(string(data))})
	}
	return pages, nil
}

// splitSections walks the top-level blocks and cuts at every H1/H2. A
// section's body runs from the end of its heading to the next cut.
func splitSections(doc ast.Node, source []byte) []section {
	var sections []section
	current := section{start: 0}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level > 2 || h.Lines().Len() == 0 {
			continue
		}
		first := h.Lines().At(0)
		last := h.Lines().At(h.Lines().Len() - 1)

		begin := lineStart(source, first.Start)
		current.end = begin
		sections = append(sections, current)
		current = section{heading: h, setext: !isATX(source[begin:]), start: last.Stop}
	}
	current.end = len(source)
	sections = append(sections, current)

	return sections
}

// collectPaths maps each heading ID to its hierarchy string.
// Example: ["Installation", "Prerequisites"] -> "# Installation > ## Prerequisites"
func collectPaths(items toc.Items, ancestors []string, out map[string]string) {
	for _, item := range items {
		path := append(append([]string(nil), ancestors...), string(item.Title))
		out[string(item.ID)] = formatHeaderPath(path)
		if len(item.Items) > 0 {
			collectPaths(item.Items, path, out)
		}
	}
}

func formatHeaderPath(path []string) string {
	parts := make([]string, 0, len(path))
	for i, segment := range path {
		parts = append(parts, strings.Repeat("#", i+1)+" "+segment)
	}
	return strings.Join(parts, " > ")
}

func headingID(h *ast.Heading) string {
	v, ok := h.AttributeString("id")
	if !ok {
		return ""
	}
	b, ok := v.([]byte)
	if !ok {
		return ""
	}
	return string(b)
}

func headingText(h *ast.Heading, source []byte) []byte {
	var out []byte
	for i := 0; i < h.Lines().Len(); i++ {
		seg := h.Lines().At(i)
		out = append(out, seg.Value(source)...)
	}
	return out
}

// lineStart moves back from pos to the beginning of its line so that the
// "#" markers of an ATX heading stay out of the previous section.
func lineStart(source []byte, pos int) int {
	for pos > 0 && source[pos-1] != '\n' {
		pos--
	}
	return pos
}

func isATX(line []byte) bool {
	for _, c := range line {
		if c != ' ' {
			return c == '#'
		}
	}
	return false
}

// stripUnderline drops the "===" or "---" line of a setext heading.
func stripUnderline(body string) string {
	line, rest, _ := strings.Cut(body, "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return body
	}
	if strings.Trim(line, "=") == "" || strings.Trim(line, "-") == "" {
		return strings.TrimSpace(rest)
	}
	return body
}
