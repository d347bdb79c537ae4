package driven

// PromptStore provides access to prompt templates.
type PromptStore interface {
	// Load returns the template for name, falling back to a built-in default.
	Load(name string) (string, error)

	// Reload clears cached templates so the next Load reads from disk.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswerSystem describes the assistant. No placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerInstructions lists answering rules, one per line.
	PromptAnswerInstructions = "answer_instructions"
)
