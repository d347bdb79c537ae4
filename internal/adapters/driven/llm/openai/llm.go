// Package openai provides a generator adapter for the OpenAI chat
// completions API and compatible gateways such as OpenRouter.
package openai

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
	DefaultBaseURL           = "https://api.openai.com/v1"
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel             = "gpt-4-turbo-preview"
	DefaultTimeout           = 120 * time.Second
)

// Config holds configuration for the OpenAI generator.
type Config struct {
	// APIKey is the provider API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Set to DefaultOpenRouterBaseURL for OpenRouter.
	BaseURL string

	// Model is the chat model to use (default: gpt-4-turbo-preview).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// Headers are added to every request, e.g. OpenRouter's
	// HTTP-Referer and X-Title.
	Headers map[string]string

	// Provider names the service in errors and logs (default: openai).
	Provider string
}

// Generator answers questions using chat completions with function calling.
// It is safe for concurrent use.
type Generator struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	model    string
	headers  map[string]string
	provider string
}

// chatMessage is the OpenAI chat message format.
type chatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type toolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type toolDefinition struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

// chatCompletionRequest is the /chat/completions request format.
type chatCompletionRequest struct {
	Model     string           `json:"model"`
	Messages  []chatMessage    `json:"messages"`
	Tools     []toolDefinition `json:"tools,omitempty"`
	MaxTokens int              `json:"max_tokens,omitempty"`
}

// chatCompletionResponse is the /chat/completions response format.
type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewGenerator creates a new OpenAI generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.Provider == "" {
		cfg.Provider = string(domain.AIProviderOpenAI)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: API key is required", cfg.Provider)
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
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		headers:  cfg.Headers,
		provider: cfg.Provider,
	}, nil
}

// Generate answers req.Question, calling the search tool while the model
// asks for it and rounds remain.
func (g *Generator) Generate(ctx context.Context, req driven.GenerateRequest) (*driven.Generation, error) {
	messages := []chatMessage{
		{Role: "system", Content: llm.SystemPrompt(req)},
		{Role: "user", Content: req.Question},
	}
	trail := llm.NewTrail(req.Context)
	toolsEnabled := req.Tools.HasSearch() && req.MaxToolRounds > 0

	for round := 0; ; round++ {
		offerTools := toolsEnabled && round < req.MaxToolRounds

		body := chatCompletionRequest{
			Model:     g.model,
			Messages:  messages,
			MaxTokens: req.MaxTokens,
		}
		if offerTools {
			body.Tools = []toolDefinition{searchTool()}
		}

		resp, err := g.chatCompletion(ctx, body)
		if err != nil {
			return nil, err
		}
		msg := resp.Choices[0].Message

		if !offerTools || len(msg.ToolCalls) == 0 {
			model := resp.Model
			if model == "" {
				model = g.model
			}
			return &driven.Generation{
				Content:    msg.Content,
				References: trail.References(),
				Model:      model,
				RunID:      resp.ID,
			}, nil
		}

		logger.Debug("%s: round %d: %d tool call(s)", g.provider, round+1, len(msg.ToolCalls))
		messages = append(messages, chatMessage{Role: "assistant", Content: msg.Content, ToolCalls: msg.ToolCalls})
		for _, call := range msg.ToolCalls {
			result := "Unknown tool: " + call.Function.Name
			if call.Function.Name == llm.SearchToolName {
				result = llm.RunSearch(ctx, req.Tools, trail, []byte(call.Function.Arguments))
			}
			messages = append(messages, chatMessage{Role: "tool", Content: result, ToolCallID: call.ID})
		}
	}
}

func searchTool() toolDefinition {
	var def toolDefinition
	def.Type = "function"
	def.Function.Name = llm.SearchToolName
	def.Function.Description = llm.SearchToolDescription
	def.Function.Parameters = llm.SearchToolSchema()
	return def
}

func (g *Generator) chatCompletion(ctx context.Context, body chatCompletionRequest) (*chatCompletionResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %w", domain.ErrGeneration, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrGeneration, err)
	}
	req.Header.Set("Content-Type", "application/json")
	g.authorize(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, llm.WrapError(g.provider, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llm.WrapError(g.provider, err)
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(data, &chatResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, llm.StatusError(g.provider, resp.StatusCode, string(data))
		}
		return nil, fmt.Errorf("%w: %s: decode response: %w", domain.ErrGeneration, g.provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(data)
		if chatResp.Error != nil {
			msg = chatResp.Error.Message
		}
		return nil, llm.StatusError(g.provider, resp.StatusCode, msg)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("%w: %s error: %s", domain.ErrGeneration, g.provider, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: %s: no response choices returned", domain.ErrGeneration, g.provider)
	}
	return &chatResp, nil
}

func (g *Generator) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	for k, v := range g.headers {
		req.Header.Set(k, v)
	}
}

// ModelName returns the name of the chat model being used.
func (g *Generator) ModelName() string {
	return g.model
}

// Ping validates the service is reachable by checking the /models endpoint.
func (g *Generator) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: failed to create ping request: %w", g.provider, err)
	}
	g.authorize(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return llm.WrapError(g.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return llm.StatusError(g.provider, resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (g *Generator) Close() error {
	g.client.CloseIdleConnections()
	return nil
}
