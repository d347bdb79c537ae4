// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docs-agent/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driving"
)

// reservedRows is the height taken by the header, prompt and status bar.
const reservedRows = 8

// exchange is one question with its answer.
type exchange struct {
	question string
	result   domain.QueryResult
}

// View is the chat view: a prompt, a scrolling transcript and a status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.Prompt
	spinner   spinner.Model
	viewport  viewport.Model
	statusbar *status.Bar

	answerService driving.AnswerService
	ctx           context.Context

	history    []exchange
	pending    string
	thinking   bool
	focusInput bool

	width  int
	height int
	ready  bool
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, answerService driving.AnswerService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = s.Title

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewQuestionInput(s),
		spinner:       sp,
		viewport:      viewport.New(80, 24-reservedRows),
		statusbar:     status.NewBar(s, km),
		answerService: answerService,
		ctx:           context.Background(),
		focusInput:    true,
		width:         80,
		height:        24,
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

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerCompleted:
		v.handleAnswer(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.thinking = false
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil

	case spinner.TickMsg:
		if !v.thinking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.thinking {
		return v, nil
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			return v, v.submit()
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	if keymap.Matches(msg.String(), v.keymap.NewQuestion) {
		v.focusInput = true
		v.input.Reset()
		return v, v.input.Focus()
	}

	// Transcript mode: the viewport owns scrolling keys
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// submit starts answering the typed question.
func (v *View) submit() tea.Cmd {
	question := v.input.TrimmedValue()
	if question == "" {
		return nil
	}

	v.pending = question
	v.thinking = true
	v.focusInput = false
	v.input.Blur()
	v.statusbar.SetState(status.StateThinking)
	v.refresh()

	return tea.Batch(v.spinner.Tick, v.ask(question))
}

// ask runs the answer pipeline in a command.
func (v *View) ask(question string) tea.Cmd {
	return func() tea.Msg {
		if v.answerService == nil {
			return messages.ErrorOccurred{Err: ErrNoAnswerService}
		}
		return messages.AnswerCompleted{
			Question: question,
			Result:   v.answerService.Answer(v.ctx, question),
		}
	}
}

func (v *View) handleAnswer(msg messages.AnswerCompleted) {
	v.thinking = false
	v.pending = ""
	v.history = append(v.history, exchange{question: msg.Question, result: msg.Result})

	if msg.Result.IsSuccess() {
		v.statusbar.SetState(status.StateAnswered)
		v.statusbar.SetMessage("")
		v.statusbar.SetAnswer(len(msg.Result.Sources), msg.Result.Metadata.Model)
	} else {
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Result.Error)
	}

	v.refresh()
}

// refresh re-renders the transcript and scrolls to the newest entry.
func (v *View) refresh() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.history) == 0 && v.pending == "" {
		return v.styles.Muted.Render("Ask a question about the ingested READMEs.")
	}

	wrap := v.styles.Answer.Width(v.width - 4)
	blocks := make([]string, 0, len(v.history)+1)
	for _, ex := range v.history {
		var b strings.Builder
		b.WriteString(v.styles.Question.Render("> " + ex.question))
		b.WriteString("\n\n")
		if ex.result.IsSuccess() {
			b.WriteString(wrap.Render(ex.result.Answer))
		} else {
			b.WriteString(v.styles.Error.Render(ex.result.Answer))
		}
		if len(ex.result.Sources) > 0 {
			sources := list.New(v.styles, "Sources", "")
			sources.SetDimensions(v.width, 3*len(ex.result.Sources)+2)
			sources.SetItems(list.FromSources(ex.result.Sources))
			b.WriteString("\n\n")
			b.WriteString(sources.View())
		}
		blocks = append(blocks, b.String())
	}

	if v.pending != "" {
		blocks = append(blocks, v.styles.Question.Render("> "+v.pending))
	}

	return strings.Join(blocks, "\n\n")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render("docs-agent"), "")
	sections = append(sections, v.viewport.View(), "")

	if v.thinking {
		sections = append(sections, v.spinner.View()+" "+v.styles.Muted.Render("Thinking..."))
	} else {
		sections = append(sections, v.input.View())
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.viewport.Width = width
	v.viewport.Height = max(3, height-reservedRows)
	v.refresh()
}

// Reset clears the transcript and focuses the prompt.
func (v *View) Reset() {
	v.history = nil
	v.pending = ""
	v.thinking = false
	v.focusInput = true
	v.input.Reset()
	v.input.Focus()
	v.statusbar.Clear()
	v.refresh()
}

// Thinking reports whether a question is being answered.
func (v *View) Thinking() bool {
	return v.thinking
}

// InputFocused returns whether the prompt has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Question returns the text currently in the prompt.
func (v *View) Question() string {
	return v.input.Value()
}

// SetQuestion sets the prompt text.
func (v *View) SetQuestion(q string) {
	v.input.SetValue(q)
}

// LastResult returns the most recent answer, if any.
func (v *View) LastResult() (domain.QueryResult, bool) {
	if len(v.history) == 0 {
		return domain.QueryResult{}, false
	}
	return v.history[len(v.history)-1].result, true
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Status returns the status bar state.
func (v *View) Status() status.State {
	return v.statusbar.State()
}
