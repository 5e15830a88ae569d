package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"flowaudit-backend/internal/llm"
)

const maxTokens = 2048

const systemPrompt = `You are a UX risk reviewer for AI product flows. ` +
	`Given a flow goal and its ordered steps, identify UX risks in the categories ` +
	`TRUST, CONTROL, TRANSPARENCY, RECOVERY, MEMORY. ` +
	`Respond with a JSON object of the form ` +
	`{"findings":[{"severity":"HIGH|MEDIUM|LOW","category":"...","title":"...",` +
	`"description":"...","evidence":["..."],"recommendation":"...","confidence":0.0}]}. ` +
	`Quote evidence verbatim from the flow text. Return an empty findings array when nothing applies.`

// Client implements llm.FindingsSource using OpenAI Chat Completions.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient constructs an OpenAI-backed findings source.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, llm.ErrNotConfigured
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	return &Client{api: openai.NewClient(apiKey), model: model}, nil
}

// GenerateFindings asks the model for candidate findings on the flow.
func (c *Client) GenerateFindings(ctx context.Context, input llm.FlowInput) ([]llm.CandidateFinding, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(input)},
		},
	}
	// Reasoning models reject MaxTokens and require MaxCompletionTokens.
	if strings.HasPrefix(c.model, "o1") || strings.HasPrefix(c.model, "o3") || strings.HasPrefix(c.model, "o4") || strings.HasPrefix(c.model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai response missing choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("openai response empty content")
	}

	var parsed struct {
		Findings []llm.CandidateFinding `json:"findings"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("openai response parse: %w", err)
	}
	return parsed.Findings, nil
}

func userPrompt(input llm.FlowInput) string {
	var b strings.Builder
	b.WriteString("Goal: ")
	b.WriteString(input.Goal)
	b.WriteString("\nSteps:\n")
	for i, step := range input.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	return b.String()
}
