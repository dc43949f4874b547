package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"ledgerlens-backend/internal/llm"
)

const defaultMaxTokens = 4096

// Client implements llm.Client using the Anthropic Messages API.
// The API does not expose per-token log-probabilities, so completions
// always carry an empty TokenLogProbs slice.
type Client struct {
	client anthropic.Client
	model  string
}

// NewClient constructs a new Anthropic client with an explicit API key.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for Anthropic")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

// Complete runs one message completion.
func (c *Client) Complete(ctx context.Context, req llm.CompleteRequest) (llm.Completion, error) {
	prompt := req.Prompt
	if req.JSONOutput {
		prompt += "\n\nRespond with a single JSON object and nothing else."
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: defaultMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	system := req.System
	if extra, ok := llm.ExtraSystemMessageFromContext(ctx); ok && strings.TrimSpace(extra) != "" {
		if system != "" {
			system += "\n\n"
		}
		system += extra
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return llm.Completion{}, fmt.Errorf("anthropic request: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return llm.Completion{}, fmt.Errorf("anthropic response empty content")
	}

	return llm.Completion{Text: text, TokenLogProbs: nil}, nil
}

var _ llm.Client = (*Client)(nil)
