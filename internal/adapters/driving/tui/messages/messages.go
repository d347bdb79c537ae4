// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

// QuestionAsked is sent when the user submits a question.
type QuestionAsked struct {
	Question string
}

// AnswerCompleted carries the answer pipeline result back to the model.
// Failures arrive as a result with an error status, never as Err.
type AnswerCompleted struct {
	Question string
	Result   domain.QueryResult
}

// ProjectsLoaded carries registered or discovered projects.
type ProjectsLoaded struct {
	Projects   []domain.Project
	Discovered bool
	Err        error
}

// IngestRequested asks the ingest view to load a repository.
type IngestRequested struct {
	RepoURL string
}

// IngestCompleted carries per-URL ingestion results.
type IngestCompleted struct {
	Results []domain.IngestResult
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewChat is the question and answer view.
	ViewChat
	// ViewProjects lists registered and discovered projects.
	ViewProjects
	// ViewIngest loads repositories into the store.
	ViewIngest
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewChat:
		return "chat"
	case ViewProjects:
		return "projects"
	case ViewIngest:
		return "ingest"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
