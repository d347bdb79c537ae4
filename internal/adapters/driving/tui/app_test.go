package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

func newTestPorts() *Ports {
	return &Ports{
		Answer:  &MockAnswerService{},
		Ingest:  &MockIngestService{},
		Project: &MockProjectService{},
	}
}

func newReadyApp(t *testing.T, ports *Ports) *App {
	t.Helper()
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return app
}

func TestNewApp(t *testing.T) {
	app, err := NewApp(newTestPorts())

	require.NoError(t, err)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
	assert.NotNil(t, app.Init())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{})

	assert.ErrorIs(t, err, ErrMissingAnswerService)
	assert.Nil(t, app)
}

func TestNewApp_HidesOptionalViews(t *testing.T) {
	app := newReadyApp(t, &Ports{Answer: &MockAnswerService{}})

	view := app.View()
	assert.Contains(t, view, "Ask")
	assert.NotContains(t, view, "Projects")
	assert.NotContains(t, view, "Ingest")

	app.Update(messages.IngestRequested{RepoURL: "https://github.com/acme/widgets"})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_WithContext(t *testing.T) {
	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	app, _ := NewApp(newTestPorts())
	assert.Same(t, app, app.WithContext(ctx))
}

func TestApp_Navigation(t *testing.T) {
	tests := []struct {
		view messages.ViewType
		want string
	}{
		{messages.ViewChat, "Ask a question"},
		{messages.ViewProjects, "Projects"},
		{messages.ViewIngest, "Ingest READMEs"},
		{messages.ViewHelp, "Help"},
	}

	for _, tt := range tests {
		t.Run(tt.view.String(), func(t *testing.T) {
			app := newReadyApp(t, newTestPorts())

			app.Update(messages.ViewChanged{View: tt.view})

			assert.Equal(t, tt.view, app.CurrentView())
			assert.Contains(t, app.View(), tt.want)
		})
	}
}

func TestApp_MenuSelectsChat(t *testing.T) {
	app := newReadyApp(t, newTestPorts())

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, messages.ViewChat, app.CurrentView())
}

func TestApp_AskRoundTrip(t *testing.T) {
	var asked string
	ports := newTestPorts()
	ports.Answer = &MockAnswerService{
		AnswerFunc: func(_ context.Context, q string) domain.QueryResult {
			asked = q
			return domain.QueryResult{Status: domain.QueryStatusSuccess, Answer: "Widgets is a tool."}
		},
	}
	app := newReadyApp(t, ports)
	app.Update(messages.ViewChanged{View: messages.ViewChat})

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("what?")})
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if done, ok := c().(messages.AnswerCompleted); ok {
			app.Update(done)
		}
	}

	assert.Equal(t, "what?", asked)
	assert.Contains(t, app.View(), "Widgets is a tool.")
}

func TestApp_IngestRequested(t *testing.T) {
	app := newReadyApp(t, newTestPorts())
	app.Update(messages.ViewChanged{View: messages.ViewProjects})

	app.Update(messages.IngestRequested{RepoURL: "https://github.com/acme/widgets"})

	assert.Equal(t, messages.ViewIngest, app.CurrentView())
	assert.Contains(t, app.View(), "https://github.com/acme/widgets")
}

func TestApp_HelpEscReturnsToMenu(t *testing.T) {
	app := newReadyApp(t, newTestPorts())
	app.Update(messages.ViewChanged{View: messages.ViewHelp})

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_Quit(t *testing.T) {
	app := newReadyApp(t, newTestPorts())

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = app.Update(messages.Quit{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newReadyApp(t, newTestPorts())
	app.Update(messages.ViewChanged{View: messages.ViewChat})

	app.Update(messages.ErrorOccurred{Err: assert.AnError})

	assert.ErrorIs(t, app.Err(), assert.AnError)
}
