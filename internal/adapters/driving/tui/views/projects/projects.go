// Package projects provides the project browser view for the TUI.
package projects

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driving"
)

// ErrNoProjectService indicates that no project service was provided.
var ErrNoProjectService = errors.New("project service is required")

const (
	registeredTitle = "Registered projects"
	discoveredTitle = "Discovered in vector store"
)

// View lists registered projects, or projects discovered from stored records.
type View struct {
	styles         *styles.Styles
	keymap         *keymap.KeyMap
	list           *list.List
	projectService driving.ProjectService
	ctx            context.Context

	discovered bool
	loading    bool
	err        error
	width      int
	height     int
	ready      bool
}

// NewView creates a new projects view.
func NewView(s *styles.Styles, km *keymap.KeyMap, projectService driving.ProjectService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:         s,
		keymap:         km,
		list:           list.New(s, registeredTitle, "No projects yet. Ingest a repository first."),
		projectService: projectService,
		ctx:            context.Background(),
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the current project list.
func (v *View) Init() tea.Cmd {
	return v.load()
}

func (v *View) load() tea.Cmd {
	v.loading = true
	discovered := v.discovered
	return func() tea.Msg {
		if v.projectService == nil {
			return messages.ProjectsLoaded{Discovered: discovered, Err: ErrNoProjectService}
		}
		var msg messages.ProjectsLoaded
		msg.Discovered = discovered
		if discovered {
			msg.Projects, msg.Err = v.projectService.Discover(v.ctx)
		} else {
			msg.Projects, msg.Err = v.projectService.List(v.ctx)
		}
		return msg
	}
}

// Update handles messages for the projects view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.ProjectsLoaded:
		// Drop results of a toggle the user already moved past
		if msg.Discovered != v.discovered {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.list.SetItems(list.FromProjects(msg.Projects))
		}
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()
	switch {
	case keymap.Matches(keyStr, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}

	case keymap.Matches(keyStr, v.keymap.Toggle):
		v.discovered = !v.discovered
		if v.discovered {
			v.list.SetTitle(discoveredTitle)
		} else {
			v.list.SetTitle(registeredTitle)
		}
		v.list.SetItems(nil)
		return v, v.load()

	case keymap.Matches(keyStr, v.keymap.Ingest):
		item := v.list.SelectedItem()
		if item == nil || item.Link == "" {
			return v, nil
		}
		url := item.Link
		return v, func() tea.Msg {
			return messages.IngestRequested{RepoURL: url}
		}
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

// View renders the projects view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{v.styles.Title.Render("Projects"), ""}
	switch {
	case v.loading:
		sections = append(sections, v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()))
	default:
		sections = append(sections, v.list.View())
	}

	sections = append(sections, "", v.styles.Help.Render("[j/k] Navigate  [tab] Registered/Discovered  [i] Ingest  [esc] Back"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.list.SetDimensions(width, height-6)
}

// Discovered reports whether the view shows discovered projects.
func (v *View) Discovered() bool {
	return v.discovered
}

// Count returns the number of listed projects.
func (v *View) Count() int {
	return v.list.Count()
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
