package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

func TestSection(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []domain.Section
	}{
		{
			name:  "widgets readme",
			input: "# Widgets\nA tool.\n## Install\npip install widgets",
			expected: []domain.Section{
				{Title: "Widgets", Content: "Widgets\nA tool."},
				{Title: "Install", Content: "Install\npip install widgets"},
			},
		},
		{
			name:     "no headings yields nothing",
			input:    "Just a paragraph.\n\nAnd another.",
			expected: nil,
		},
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
		{
			name:  "multiple paragraphs under one heading",
			input: "# Usage\n\nFirst step.\n\nSecond step.",
			expected: []domain.Section{
				{Title: "Usage", Content: "Usage\nFirst step.\nSecond step."},
			},
		},
		{
			name:  "heading without body is still a section",
			input: "# One\n## Two\nBody.",
			expected: []domain.Section{
				{Title: "One", Content: "One"},
				{Title: "Two", Content: "Two\nBody."},
			},
		},
		{
			name:  "preamble merges into first heading",
			input: "Intro text.\n\n# Widgets\nA tool.",
			expected: []domain.Section{
				{Title: "Widgets", Content: "Widgets\nIntro text.\nA tool."},
			},
		},
		{
			name:  "level four headings do not split",
			input: "### Config\nSet it.\n#### Advanced\nTune it.",
			expected: []domain.Section{
				{Title: "Config", Content: "Config\nSet it.\nTune it."},
			},
		},
		{
			name:  "setext headings",
			input: "Widgets\n=======\n\nA tool.",
			expected: []domain.Section{
				{Title: "Widgets", Content: "Widgets\nA tool."},
			},
		},
		{
			name:  "inline formatting is flattened",
			input: "# The *fast* `widgets`\nSee [docs](https://example.com) and <https://acme.dev>.",
			expected: []domain.Section{
				{Title: "The fast widgets", Content: "The fast widgets\nSee docs and https://acme.dev."},
			},
		},
		{
			name:  "code blocks and lists are not paragraphs",
			input: "# Install\n\n```sh\npip install widgets\n```\n\n- item\n\nDone.",
			expected: []domain.Section{
				{Title: "Install", Content: "Install\nDone."},
			},
		},
		{
			name:  "images are dropped",
			input: "# Widgets\n![build](https://ci/badge.svg)\n\nA tool.",
			expected: []domain.Section{
				{Title: "Widgets", Content: "Widgets\nA tool."},
			},
		},
		{
			name:  "soft line breaks become newlines",
			input: "# Notes\nline one\nline two",
			expected: []domain.Section{
				{Title: "Notes", Content: "Notes\nline one\nline two"},
			},
		},
		{
			name:  "entities and escapes are decoded",
			input: "# A &amp; B\nTom &amp; Jerry &copy; 1\\. not a list \\*star\\* &#35;",
			expected: []domain.Section{
				{Title: "A & B", Content: "A & B\nTom & Jerry © 1. not a list *star* #"},
			},
		},
		{
			name:  "code spans keep entities verbatim",
			input: "# Usage\nRun `a &amp;&amp; b`.",
			expected: []domain.Section{
				{Title: "Usage", Content: "Usage\nRun a &amp;&amp; b."},
			},
		},
		{
			name:     "empty heading with no body is dropped",
			input:    "#\n",
			expected: nil,
		},
	}

	s := NewSectioner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.Section(tt.input))
		})
	}
}

func TestSection_OnePerHeadingInOrder(t *testing.T) {
	input := "# A\nalpha\n## B\nbeta\n### C\ngamma\n# D\ndelta"

	sections := NewSectioner().Section(input)

	require.Len(t, sections, 4)
	for i, title := range []string{"A", "B", "C", "D"} {
		assert.Equal(t, title, sections[i].Title)
		assert.True(t, len(sections[i].Content) > len(title))
		assert.Equal(t, title, sections[i].Content[:len(title)])
	}
}

func TestSection_Deterministic(t *testing.T) {
	input := "# Widgets\nA tool.\n## Install\npip install widgets"
	s := NewSectioner()

	assert.Equal(t, s.Section(input), s.Section(input))
}
