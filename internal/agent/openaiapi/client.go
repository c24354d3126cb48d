// Package openaiapi implements the model capability on the OpenAI chat
// completions API with function tools.
package openaiapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/metalagman/donna/internal/agent"
	"github.com/metalagman/donna/internal/tools"
)

// Client wraps the OpenAI chat completions API.
type Client struct {
	cfg    Config
	client openai.Client
}

// NewClient constructs a new OpenAI API client.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("openai model is required")
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		envKey := strings.TrimSpace(cfg.APIKeyEnv)
		if envKey == "" {
			envKey = defaultAPIKeyEnv
		}
		apiKey = strings.TrimSpace(os.Getenv(envKey))
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required (set api_key or api_key_env)")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithRequestTimeout(timeout),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &Client{
		cfg: Config{
			Model:   model,
			BaseURL: baseURL,
			Timeout: timeout,
		},
		client: openai.NewClient(opts...),
	}, nil
}

// Complete executes one chat completion over the transcript and tool catalog.
func (c *Client) Complete(ctx context.Context, messages []agent.Message, catalog []tools.Def) (agent.Reply, error) {
	params := openai.ChatCompletionNewParams{
		Model:    c.cfg.Model,
		Messages: toMessageParams(messages),
		Tools:    toToolParams(catalog),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return agent.Reply{}, fmt.Errorf("openai chat.completions.create: %w", err)
	}
	if len(resp.Choices) == 0 {
		return agent.Reply{}, fmt.Errorf("openai response contained no choices")
	}

	msg := resp.Choices[0].Message
	reply := agent.Reply{Text: strings.TrimSpace(msg.Content)}
	for _, tc := range msg.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, tools.Invocation{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return reply, nil
}

func toMessageParams(messages []agent.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case agent.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case agent.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case agent.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(m.Content))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				assistant.Content.OfString = openai.String(m.Content)
			}
			for _, inv := range m.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: inv.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      inv.Name,
						Arguments: string(inv.Arguments),
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case agent.RoleTool:
			tool := openai.ChatCompletionToolMessageParam{ToolCallID: m.ToolCallID}
			tool.Content.OfString = openai.String(m.Content)
			out = append(out, openai.ChatCompletionMessageParamUnion{OfTool: &tool})
		}
	}
	return out
}

func toToolParams(catalog []tools.Def) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(catalog))
	for _, def := range catalog {
		out = append(out, openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        def.Name,
				Description: openai.String(def.Description),
				Parameters:  shared.FunctionParameters(def.Parameters),
			},
		})
	}
	return out
}
