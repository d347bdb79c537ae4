// Package markdown splits markdown documents into titled sections.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driven"
)

// Ensure Sectioner implements the interface.
var _ driven.Sectioner = (*Sectioner)(nil)

// maxHeadingLevel is the deepest heading that starts a section.
const maxHeadingLevel = 3

// Sectioner splits markdown on level 1-3 headings.
//
// Each heading opens a section whose content starts with the heading text
// and continues with every top-level paragraph up to the next heading.
// Paragraphs before the first heading are not emitted on their own; they
// are merged into the first heading's section, after its heading text.
// A document without headings yields no sections.
type Sectioner struct {
	md goldmark.Markdown
}

// NewSectioner creates a CommonMark sectioner.
func NewSectioner() *Sectioner {
	return &Sectioner{md: goldmark.New()}
}

// Section returns the sections of markdown in document order.
func (s *Sectioner) Section(markdown string) []domain.Section {
	src := []byte(markdown)
	doc := s.md.Parser().Parse(text.NewReader(src))

	var (
		sections []domain.Section
		current  domain.Section
		started  bool
		preamble []string
	)

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if node.Level > maxHeadingLevel {
				continue
			}
			if !current.IsEmpty() {
				sections = append(sections, current)
			}
			heading := nodeText(node, src)
			current = domain.Section{Title: heading, Content: heading}
			if !started {
				started = true
				for _, p := range preamble {
					appendLine(&current, p)
				}
				preamble = nil
			}

		case *ast.Paragraph:
			para := nodeText(node, src)
			if para == "" {
				continue
			}
			if !started {
				preamble = append(preamble, para)
				continue
			}
			appendLine(&current, para)
		}
	}

	if started && !current.IsEmpty() {
		sections = append(sections, current)
	}
	return sections
}

func appendLine(s *domain.Section, line string) {
	if s.Content == "" {
		s.Content = line
		return
	}
	s.Content += "\n" + line
}

// nodeText returns the visible text of an inline tree. Images and raw
// HTML are dropped; soft and hard line breaks become newlines. Entity
// references and backslash escapes are decoded outside code spans.
func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			value := t.Segment.Value(src)
			if _, code := t.Parent().(*ast.CodeSpan); !code {
				value = decode(value)
			}
			b.Write(value)
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.AutoLink:
			b.Write(t.Label(src))
			return ast.WalkSkipChildren, nil
		case *ast.Image, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func decode(b []byte) []byte {
	return util.UnescapePunctuations(util.ResolveNumericReferences(util.ResolveEntityReferences(b)))
}
