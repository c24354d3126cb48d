package openaiapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/metalagman/donna/internal/agent"
	"github.com/metalagman/donna/internal/tools"
)

func TestClientComplete_SendsToolCatalogAndParsesToolCalls(t *testing.T) {
	const envKey = "DONNA_OPENAI_TEST_KEY"
	t.Setenv(envKey, "test-api-key")

	var gotAuth string
	var gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [
				{
					"message": {
						"role": "assistant",
						"content": "",
						"tool_calls": [
							{
								"id": "call_1",
								"type": "function",
								"function": {"name": "create_task", "arguments": "{\"description\":\"Buy milk\"}"}
							}
						]
					}
				}
			]
		}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		Model:     "gpt-4o-mini",
		BaseURL:   srv.URL,
		APIKeyEnv: envKey,
	}, srv.Client())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	reply, err := client.Complete(context.Background(), []agent.Message{
		{Role: agent.RoleSystem, Content: "You are a task assistant."},
		{Role: agent.RoleUser, Content: "add buy milk"},
	}, tools.Catalog())
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	if gotAuth != "Bearer test-api-key" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if !strings.HasSuffix(gotPath, "/chat/completions") {
		t.Fatalf("request path = %q, want chat completions", gotPath)
	}

	sentTools, ok := gotBody["tools"].([]any)
	if !ok || len(sentTools) != len(tools.Catalog()) {
		t.Fatalf("request carried %d tools, want %d", len(sentTools), len(tools.Catalog()))
	}

	if len(reply.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(reply.ToolCalls))
	}
	tc := reply.ToolCalls[0]
	if tc.ID != "call_1" || tc.Name != "create_task" {
		t.Fatalf("tool call = %+v", tc)
	}
	if string(tc.Arguments) != `{"description":"Buy milk"}` {
		t.Fatalf("tool arguments = %s", tc.Arguments)
	}
}

func TestClientComplete_ParsesTextReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [
				{"message": {"role": "assistant", "content": "  You have no tasks.  "}}
			]
		}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		Model:   "gpt-4o-mini",
		BaseURL: srv.URL,
		APIKey:  "k",
	}, srv.Client())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	reply, err := client.Complete(context.Background(), []agent.Message{
		{Role: agent.RoleUser, Content: "what's on my list?"},
	}, nil)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if reply.Text != "You have no tasks." {
		t.Fatalf("reply text = %q", reply.Text)
	}
	if len(reply.ToolCalls) != 0 {
		t.Fatalf("unexpected tool calls: %+v", reply.ToolCalls)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}, nil); err == nil {
		t.Fatal("missing model should fail")
	}
	if _, err := NewClient(Config{Model: "gpt-4o-mini", APIKeyEnv: "DONNA_UNSET_KEY_ENV"}, nil); err == nil {
		t.Fatal("missing api key should fail")
	}
}
