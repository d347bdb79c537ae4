package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/views/ingest"
	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/views/projects"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menuView     *menu.View
	chatView     *chat.View
	projectsView *projects.View
	ingestView   *ingest.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
// Menu entries for optional ports are hidden when the port is nil.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	items := make([]menu.Item, 0, len(menu.DefaultItems()))
	for _, item := range menu.DefaultItems() {
		if item.View == messages.ViewProjects && ports.Project == nil {
			continue
		}
		if item.View == messages.ViewIngest && ports.Ingest == nil {
			continue
		}
		items = append(items, item)
	}

	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		menuView:     menu.NewView(s, items),
		chatView:     chat.NewView(s, km, ports.Answer),
		projectsView: projects.NewView(s, km, ports.Project),
		ingestView:   ingest.NewView(s, km, ports.Ingest),
		currentView:  messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	a.projectsView.WithContext(ctx)
	a.ingestView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("docs-agent"),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
			return a, nil
		}

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewChat:
			return a, a.chatView.Init()
		case messages.ViewProjects:
			return a, a.projectsView.Init()
		case messages.ViewIngest:
			a.ingestView.Reset()
			return a, a.ingestView.Init()
		case messages.ViewMenu, messages.ViewHelp:
			// Nothing to load
		}
		return a, nil

	case messages.IngestRequested:
		if a.ports.Ingest == nil {
			return a, nil
		}
		a.currentView = messages.ViewIngest
		a.ingestView.Reset()
		a.ingestView.SetURL(msg.RepoURL)
		return a, a.ingestView.Init()

	case messages.ErrorOccurred:
		a.err = msg.Err

	case messages.Quit:
		return a, tea.Quit
	}

	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewProjects:
		a.projectsView, cmd = a.projectsView.Update(msg)
	case messages.ViewIngest:
		a.ingestView, cmd = a.ingestView.Update(msg)
	case messages.ViewHelp:
		// Help view doesn't need to handle other messages
	}

	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewChat:
		return a.chatView.View()
	case messages.ViewProjects:
		return a.projectsView.View()
	case messages.ViewIngest:
		return a.ingestView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewMenu:
		return a.menuView.View()
	default:
		return a.menuView.View()
	}
}

func (a *App) viewHelp() string {
	return `Help

Navigation:
  esc         Back to Menu
  ctrl+c      Quit

Ask:
  (type)      Enter a question
  enter       Ask
  n           New question
  ↑/↓, pgup   Scroll the transcript

Projects:
  j/k, ↑/↓    Navigate projects
  tab         Registered / discovered
  i           Ingest selected project

Ingest:
  (type)      Repository URLs, comma separated
  ctrl+r      Toggle replace existing
  enter       Ingest

[esc] back to menu`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.chatView.SetDimensions(width, height)
	a.projectsView.SetDimensions(width, height)
	a.ingestView.SetDimensions(width, height)
}
