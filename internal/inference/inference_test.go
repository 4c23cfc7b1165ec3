package inference

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validReply = `{"name":"xf:form","props":{"xfPageNavigation":"toc","children":[
  {"name":"xf:page","props":{"xfName":"general","xfLabel":"General","children":[
    {"name":"xf:string","props":{"xfName":"site_name","xfLabel":"Site Name"}}
  ]}}
]}}`

func TestParseFormSalvage(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"raw", validReply},
		{"fenced", "```json\n" + validReply + "\n```"},
		{"prose", "Here is the schema:\n" + validReply + "\nLet me know if you need changes."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form, err := ParseForm(tt.content)
			require.NoError(t, err)
			require.Len(t, form.Pages, 1)
			assert.Equal(t, "general", form.Pages[0].Name)
			assert.Equal(t, 1, form.FieldCount())
		})
	}
}

func TestParseFormRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"prose only", "I could not find any fields."},
		{"truncated", `{"name":"xf:form","props":{"children":[`},
		{"wrong root", `{"name":"form","props":{"children":[{"name":"xf:page","props":{}}]}}`},
		{"no pages", `{"name":"xf:form","props":{"children":[]}}`},
		{"array", `[1,2,3]`},
		{"unknown field kind", `{"name":"xf:form","props":{"children":[{"name":"xf:page","props":{"xfName":"p","xfLabel":"P","children":[{"name":"xf:widget","props":{}}]}}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseForm(tt.content)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "héé", Truncate("héééé", 3))
	assert.Equal(t, "abc", Truncate("abc", 0))
}

func TestIsFineTuned(t *testing.T) {
	assert.True(t, IsFineTuned("ft:gpt-4o-mini:org::abc"))
	assert.False(t, IsFineTuned("gpt-4o"))
	assert.False(t, IsFineTuned(BasicModel))
}

func TestGeneralPrompt(t *testing.T) {
	p := NewPrompts(PromptOptions{MaxPromptChars: 100})
	long := strings.Repeat("a", 500)

	req := p.General("gpt-4o", long, "  Use ternary for BMP items.  ")
	assert.Equal(t, "gpt-4o", req.Model)
	assert.Equal(t, GeneralSystem, req.System)
	assert.True(t, req.JSONMode)
	assert.Contains(t, req.Prompt, strings.Repeat("a", 100))
	assert.NotContains(t, req.Prompt, strings.Repeat("a", 101))
	assert.True(t, strings.HasSuffix(req.Prompt, "ADDITIONAL INSTRUCTIONS:\nUse ternary for BMP items."))
	assert.Empty(t, req.Examples)

	req = p.General("gpt-4o", "short", "")
	assert.NotContains(t, req.Prompt, "ADDITIONAL INSTRUCTIONS")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFineTunedPromptWithReferencePair(t *testing.T) {
	pair, err := json.Marshal(map[string]any{
		"document_text":    "Site Name: ____",
		"extracted_schema": json.RawMessage(validReply),
	})
	require.NoError(t, err)
	path := writeFile(t, "reference.json", string(pair))

	p := NewPrompts(PromptOptions{ReferencePath: path, FewShotMaxChars: 50})

	req, used := p.FineTuned("ft:model", "Inspector: ____", "")
	require.True(t, used)
	assert.Equal(t, FineTunedSystem, req.System)
	require.Len(t, req.Examples, 1)
	assert.Contains(t, req.Examples[0].User, "Site Name: ____")
	assert.JSONEq(t, validReply, req.Examples[0].Assistant)
	assert.Equal(t, "Extract the form schema from this document:\n\nInspector: ____", req.Prompt)

	req, used = p.FineTuned("ft:model", strings.Repeat("x", 51), "")
	assert.False(t, used)
	assert.Empty(t, req.Examples)
}

func TestFineTunedPromptWithBareSchema(t *testing.T) {
	path := writeFile(t, "reference.json", validReply)
	p := NewPrompts(PromptOptions{ReferencePath: path})

	req, used := p.FineTuned("ft:model", "Inspector: ____", "")
	require.True(t, used)
	assert.Empty(t, req.Examples)
	assert.True(t, strings.HasPrefix(req.Prompt, "Schema produced for a similar document:\n{"))
}

func TestReferenceLoadedOnce(t *testing.T) {
	path := writeFile(t, "reference.json", validReply)
	p := NewPrompts(PromptOptions{ReferencePath: path})

	first, err := p.Reference()
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	second, err := p.Reference()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestReferenceErrors(t *testing.T) {
	p := NewPrompts(PromptOptions{ReferencePath: filepath.Join(t.TempDir(), "missing.json")})
	_, err := p.Reference()
	assert.Error(t, err)

	req, used := p.FineTuned("ft:model", "short", "")
	assert.False(t, used)
	assert.Empty(t, req.Examples)

	invalid := writeFile(t, "invalid.json", `{"name":"xf:form","props":{}}`)
	_, err = NewPrompts(PromptOptions{ReferencePath: invalid}).Reference()
	assert.Error(t, err)

	none, err := NewPrompts(PromptOptions{}).Reference()
	assert.NoError(t, err)
	assert.Nil(t, none)
}

func TestMockClient(t *testing.T) {
	m := NewMockClient("one", "two")
	ctx := context.Background()

	for _, want := range []string{"one", "two", "two"} {
		got, err := m.Complete(ctx, Request{Model: "m"})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Len(t, m.Requests(), 3)

	m.Err = errors.New("boom")
	_, err := m.Complete(ctx, Request{})
	assert.EqualError(t, err, "boom")
}

func chatReply(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []any{map[string]any{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

func TestNewOpenAIClientNeedsKey(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestOpenAIClientComplete(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &payload))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply(validReply)))
	}))
	defer server.Close()

	c, err := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	req := NewPrompts(PromptOptions{}).General("", "Site Name: ____", "")
	req.Examples = []Exchange{{User: "u", Assistant: "a"}}
	got, err := c.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, validReply, got)

	assert.Equal(t, DefaultModel, payload["model"])
	assert.EqualValues(t, 0, payload["temperature"])
	assert.Equal(t, map[string]any{"type": "json_object"}, payload["response_format"])
	messages, ok := payload["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 4)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "assistant", messages[2].(map[string]any)["role"])
}

func TestOpenAIClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply("ok")))
	}))
	defer server.Close()

	c, err := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: server.URL, RetryDelay: time.Millisecond})
	require.NoError(t, err)

	got, err := c.Complete(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAIClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad model","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	c, err := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: server.URL, RetryDelay: time.Millisecond})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), Request{Prompt: "p"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(&StatusError{StatusCode: 429}))
	assert.True(t, retryable(&StatusError{StatusCode: 503}))
	assert.False(t, retryable(&StatusError{StatusCode: 401}))
	assert.False(t, retryable(context.Canceled))
	assert.True(t, retryable(errors.New("connection reset")))
}
