// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

// Item is a single row: a title, a link line and a preview.
type Item struct {
	Title   string
	Link    string
	Preview string
}

// FromSources converts answer citations into list items.
func FromSources(sources []domain.Source) []Item {
	items := make([]Item, 0, len(sources))
	for _, s := range sources {
		items = append(items, Item{Title: s.Title, Link: s.URL, Preview: s.Content})
	}
	return items
}

// FromProjects converts projects into list items.
func FromProjects(projects []domain.Project) []Item {
	items := make([]Item, 0, len(projects))
	for _, p := range projects {
		items = append(items, Item{Title: p.Name, Link: p.ReadmeURL, Preview: p.Description})
	}
	return items
}

// List displays items in a navigable list.
type List struct {
	title    string
	empty    string
	items    []Item
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// New creates a list headed by title; empty is shown when there are no items.
func New(s *styles.Styles, title, empty string) *List {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &List{
		title:  title,
		empty:  empty,
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (l *List) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *List) Update(msg tea.Msg) (*List, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the list.
func (l *List) View() string {
	if len(l.items) == 0 {
		return l.styles.Muted.Render(l.empty)
	}

	lines := make([]string, 0, len(l.items)+2)
	header := l.styles.Subtitle.Render(fmt.Sprintf("%s (%d)", l.title, len(l.items)))
	lines = append(lines, header, "")

	// Each item takes three lines
	visibleCount := (l.height - 2) / 3
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if l.selected >= visibleCount {
		start = l.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(l.items) {
		end = len(l.items)
	}

	for i := start; i < end; i++ {
		lines = append(lines, l.renderItem(i, l.items[i]))
	}

	return strings.Join(lines, "\n")
}

func (l *List) renderItem(index int, item Item) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	title := item.Title
	if title == "" {
		title = "(Untitled)"
	}
	title = truncate(title, l.width-4)

	var titleLine string
	if index == l.selected {
		titleLine = l.styles.Selected.Render(indicator + title)
	} else {
		titleLine = l.styles.Normal.Render(indicator + title)
	}

	link := l.styles.Citation.Render("    " + truncate(item.Link, l.width-6))
	preview := strings.Join(strings.Fields(item.Preview), " ")
	previewLine := l.styles.Muted.Render("    " + truncate(preview, l.width-6))

	return titleLine + "\n" + link + "\n" + previewLine
}

// truncate shortens s to max runes, ending in an ellipsis.
func truncate(s string, limit int) string {
	if limit < 10 {
		limit = 10
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// SetItems replaces the list contents and resets the selection.
func (l *List) SetItems(items []Item) {
	l.items = items
	l.selected = 0
}

// Items returns the current items.
func (l *List) Items() []Item {
	return l.items
}

// Selected returns the index of the selected item.
func (l *List) Selected() int {
	return l.selected
}

// SelectedItem returns the currently selected item, or nil if none.
func (l *List) SelectedItem() *Item {
	if l.selected < 0 || l.selected >= len(l.items) {
		return nil
	}
	return &l.items[l.selected]
}

// MoveUp moves selection up.
func (l *List) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *List) MoveDown() {
	if l.selected < len(l.items)-1 {
		l.selected++
	}
}

// SetTitle changes the list header.
func (l *List) SetTitle(title string) {
	l.title = title
}

// SetDimensions sets the component dimensions.
func (l *List) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of items.
func (l *List) Count() int {
	return len(l.items)
}
