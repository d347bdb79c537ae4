// Package anthropic provides a generator adapter using the Anthropic
// Messages API with tool use.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/docs-agent/internal/adapters/driven/llm"
	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driven"
	"github.com/custodia-labs/docs-agent/internal/logger"
)

// Ensure Generator implements the interface.
var _ driven.Generator = (*Generator)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-haiku-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 2048

	// anthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"

	provider = "anthropic"
)

// Config holds configuration for the Anthropic generator.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the model to use (default: claude-3-5-haiku-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Generator answers questions using the Anthropic Messages API.
type Generator struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// messagesRequest is the Anthropic /v1/messages request format.
type messagesRequest struct {
	Model     string            `json:"model"`
	Messages  []messagesMessage `json:"messages"`
	MaxTokens int               `json:"max_tokens"`
	System    string            `json:"system,omitempty"`
	Tools     []toolDefinition  `json:"tools,omitempty"`
}

// messagesMessage carries either a plain string or content blocks.
type messagesMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type toolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// messagesResponse is the Anthropic /v1/messages response format.
type messagesResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewGenerator creates a new Anthropic generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Generator{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Generate answers req.Question, running tool_use rounds while allowed.
func (g *Generator) Generate(ctx context.Context, req driven.GenerateRequest) (*driven.Generation, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	messages := []messagesMessage{{Role: "user", Content: req.Question}}
	trail := llm.NewTrail(req.Context)
	toolsEnabled := req.Tools.HasSearch() && req.MaxToolRounds > 0

	for round := 0; ; round++ {
		offerTools := toolsEnabled && round < req.MaxToolRounds

		body := messagesRequest{
			Model:     g.model,
			Messages:  messages,
			MaxTokens: maxTokens,
			System:    llm.SystemPrompt(req),
		}
		if offerTools {
			body.Tools = []toolDefinition{{
				Name:        llm.SearchToolName,
				Description: llm.SearchToolDescription,
				InputSchema: llm.SearchToolSchema(),
			}}
		}

		resp, err := g.messages(ctx, body)
		if err != nil {
			return nil, err
		}

		var uses []contentBlock
		for _, block := range resp.Content {
			if block.Type == "tool_use" {
				uses = append(uses, block)
			}
		}

		if !offerTools || resp.StopReason != "tool_use" || len(uses) == 0 {
			model := resp.Model
			if model == "" {
				model = g.model
			}
			return &driven.Generation{
				Content:    textOf(resp.Content),
				References: trail.References(),
				Model:      model,
				RunID:      resp.ID,
			}, nil
		}

		logger.Debug("anthropic: round %d: %d tool use(s)", round+1, len(uses))
		results := make([]contentBlock, 0, len(uses))
		for _, use := range uses {
			result := "Unknown tool: " + use.Name
			if use.Name == llm.SearchToolName {
				result = llm.RunSearch(ctx, req.Tools, trail, use.Input)
			}
			results = append(results, contentBlock{Type: "tool_result", ToolUseID: use.ID, Content: result})
		}
		messages = append(messages,
			messagesMessage{Role: "assistant", Content: resp.Content},
			messagesMessage{Role: "user", Content: results},
		)
	}
}

func textOf(blocks []contentBlock) string {
	var parts []string
	for _, block := range blocks {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func (g *Generator) messages(ctx context.Context, body messagesRequest) (*messagesResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %w", domain.ErrGeneration, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrGeneration, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, llm.WrapError(provider, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llm.WrapError(provider, err)
	}

	var msgResp messagesResponse
	decodeErr := json.Unmarshal(data, &msgResp)
	if resp.StatusCode != http.StatusOK {
		msg := string(data)
		if decodeErr == nil && msgResp.Error != nil {
			msg = msgResp.Error.Message
		}
		return nil, llm.StatusError(provider, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: anthropic: decode response: %w", domain.ErrGeneration, decodeErr)
	}
	if msgResp.Error != nil {
		return nil, fmt.Errorf("%w: anthropic error: %s", domain.ErrGeneration, msgResp.Error.Message)
	}
	return &msgResp, nil
}

// ModelName returns the name of the model being used.
func (g *Generator) ModelName() string {
	return g.model
}

// Ping validates the service is reachable by checking the /v1/models endpoint.
func (g *Generator) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("anthropic: failed to create ping request: %w", err)
	}
	req.Header.Set("x-api-key", g.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := g.client.Do(req)
	if err != nil {
		return llm.WrapError(provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return llm.StatusError(provider, resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (g *Generator) Close() error {
	g.client.CloseIdleConnections()
	return nil
}
