// Package llm holds the provider-neutral pieces shared by the generator
// adapters: prompt assembly, the search tool contract, the reference trail
// and error classification.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driven"
)

// Search tool contract exposed to models.
const (
	SearchToolName        = "search_knowledge_base"
	SearchToolDescription = "Search the indexed README documentation for passages relevant to a query."
	DefaultSearchLimit    = 5
	maxSearchLimit        = 20
)

// SearchToolSchema is the JSON schema of the search tool arguments.
func SearchToolSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "What to look for in the documentation.",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of passages to return.",
			},
		},
		"required": []string{"query"},
	}
}

// SearchArgs are the decoded search tool arguments.
type SearchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// ParseSearchArgs decodes and clamps tool arguments.
func ParseSearchArgs(raw []byte) (SearchArgs, error) {
	var args SearchArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return args, fmt.Errorf("invalid search arguments: %w", err)
	}
	args.Query = strings.TrimSpace(args.Query)
	if args.Query == "" {
		return args, errors.New("search query is required")
	}
	if args.Limit <= 0 {
		args.Limit = DefaultSearchLimit
	}
	args.Limit = min(args.Limit, maxSearchLimit)
	return args, nil
}

// SystemPrompt renders the system message: description, instructions and
// the grounding documents.
func SystemPrompt(req driven.GenerateRequest) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(req.System))

	if len(req.Instructions) > 0 {
		b.WriteString("\n\n")
		for _, line := range req.Instructions {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if len(req.Context) > 0 {
		b.WriteString("\n## Documentation\n")
		for _, ref := range req.Context {
			b.WriteString(formatReference(ref))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatReference(ref domain.Reference) string {
	title := ref.Title
	if title == "" {
		title = "Untitled section"
	}
	return fmt.Sprintf("\n### %s\nSource: %s\n\n%s\n", title, ref.URL, strings.TrimSpace(ref.Content))
}

// ToolResult renders search hits as the tool message content.
func ToolResult(refs []domain.Reference) string {
	if len(refs) == 0 {
		return "No matching documentation found."
	}
	var b strings.Builder
	for _, ref := range refs {
		b.WriteString(formatReference(ref))
	}
	return strings.TrimSpace(b.String())
}

// Trail accumulates the references an answer was grounded on, deduplicated
// and in first-seen order. It is safe for concurrent use.
type Trail struct {
	mu   sync.Mutex
	seen map[string]bool
	refs []domain.Reference
}

// NewTrail starts a trail seeded with refs.
func NewTrail(refs []domain.Reference) *Trail {
	t := &Trail{seen: make(map[string]bool)}
	t.Add(refs...)
	return t
}

// Add appends refs not already present.
func (t *Trail) Add(refs ...domain.Reference) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ref := range refs {
		key := ref.URL + "\x00" + ref.Title + "\x00" + ref.Content
		if t.seen[key] {
			continue
		}
		t.seen[key] = true
		t.refs = append(t.refs, ref)
	}
}

// References returns the trail, nil when empty.
func (t *Trail) References() []domain.Reference {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.refs) == 0 {
		return nil
	}
	return append([]domain.Reference(nil), t.refs...)
}

// RunSearch executes the search tool and records hits on the trail.
// Failures are returned as text so the model can recover.
func RunSearch(ctx context.Context, tools driven.Tools, trail *Trail, raw []byte) string {
	if !tools.HasSearch() {
		return "Search is unavailable."
	}
	args, err := ParseSearchArgs(raw)
	if err != nil {
		return "Search failed: " + err.Error()
	}
	refs, err := tools.Search(ctx, args.Query, args.Limit)
	if err != nil {
		return "Search failed: " + err.Error()
	}
	trail.Add(refs...)
	return ToolResult(refs)
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// WrapError classifies a transport failure from provider.
func WrapError(provider string, err error) error {
	if IsTimeout(err) {
		return fmt.Errorf("%w: %s: %w", domain.ErrGenerationTimeout, provider, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrGeneration, provider, err)
}

// StatusError builds the error for a non-2xx provider response.
func StatusError(provider string, status int, message string) error {
	message = strings.TrimSpace(message)
	if len(message) > 512 {
		message = message[:512]
	}
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w: %s returned status %d: %s",
			domain.ErrGeneration, domain.ErrRateLimited, provider, status, message)
	}
	return fmt.Errorf("%w: %s returned status %d: %s", domain.ErrGeneration, provider, status, message)
}
