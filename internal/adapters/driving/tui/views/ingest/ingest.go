// Package ingest provides the repository ingestion view for the TUI.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driving"
)

// ErrNoIngestService indicates that no ingest service was provided.
var ErrNoIngestService = errors.New("ingest service is required")

// View takes one or more repository URLs and ingests their READMEs.
type View struct {
	styles        *styles.Styles
	keymap        *keymap.KeyMap
	input         *input.Prompt
	ingestService driving.IngestService
	ctx           context.Context

	replace bool
	running bool
	results []domain.IngestResult
	err     error
	width   int
	height  int
	ready   bool
}

// NewView creates a new ingest view.
func NewView(s *styles.Styles, km *keymap.KeyMap, ingestService driving.IngestService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewURLInput(s),
		ingestService: ingestService,
		ctx:           context.Background(),
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// SplitURLs splits user input on commas and whitespace.
func SplitURLs(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

// Update handles messages for the ingest view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.IngestCompleted:
		v.running = false
		v.results = msg.Results
		return v, nil

	case messages.ErrorOccurred:
		v.running = false
		v.err = msg.Err
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()
	switch {
	case keymap.Matches(keyStr, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case v.running:
		return v, nil
	case keymap.Matches(keyStr, v.keymap.Replace):
		v.replace = !v.replace
		return v, nil
	case msg.Type == tea.KeyEnter:
		return v, v.submit()
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) submit() tea.Cmd {
	urls := SplitURLs(v.input.Value())
	if len(urls) == 0 {
		return nil
	}

	v.running = true
	v.err = nil
	v.results = nil
	opts := domain.IngestOptions{ReplaceExisting: v.replace}

	return func() tea.Msg {
		if v.ingestService == nil {
			return messages.ErrorOccurred{Err: ErrNoIngestService}
		}
		return messages.IngestCompleted{Results: v.ingestService.IngestBatch(v.ctx, urls, opts)}
	}
}

// View renders the ingest view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	replace := "off"
	if v.replace {
		replace = "on"
	}

	sections := []string{
		v.styles.Title.Render("Ingest READMEs"), "",
		v.input.View(),
		v.styles.Muted.Render("Replace existing records: " + replace), "",
	}

	switch {
	case v.running:
		sections = append(sections, v.styles.Muted.Render("Ingesting..."))
	case v.err != nil:
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()))
	case len(v.results) > 0:
		sections = append(sections, v.renderResults())
	}

	sections = append(sections, "", v.styles.Help.Render("[enter] Ingest  [ctrl+r] Toggle replace  [esc] Back"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderResults() string {
	ok := 0
	lines := make([]string, 0, len(v.results)+1)
	for _, r := range v.results {
		if r.Success {
			ok++
			lines = append(lines, v.styles.Success.Render("✓ "+r.URL))
			continue
		}
		lines = append(lines, v.styles.Error.Render("✗ "+r.URL+": "+r.Message))
	}
	header := v.styles.Subtitle.Render(fmt.Sprintf("%d of %d succeeded", ok, len(v.results)))
	return header + "\n" + strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
}

// SetURL prefills the URL prompt.
func (v *View) SetURL(url string) {
	v.input.SetValue(url)
}

// Reset clears input and results.
func (v *View) Reset() {
	v.input.Reset()
	v.input.Focus()
	v.results = nil
	v.err = nil
	v.running = false
}

// Replace reports whether existing records are replaced.
func (v *View) Replace() bool {
	return v.replace
}

// Results returns the last batch results.
func (v *View) Results() []domain.IngestResult {
	return v.results
}

// Running reports whether an ingest is in progress.
func (v *View) Running() bool {
	return v.running
}
