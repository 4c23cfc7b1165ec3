package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/a3tai/pdf-form-schema/internal/config"
	"github.com/a3tai/pdf-form-schema/internal/descriptions"
	"github.com/a3tai/pdf-form-schema/internal/orchestrator"
	"github.com/a3tai/pdf-form-schema/internal/progress"
)

const validSchema = `{"name":"xf:form","props":{"children":[
 {"name":"xf:page","props":{"xfName":"site","xfLabel":"Site","children":[
  {"name":"xf:string","props":{"xfName":"site_name","xfLabel":"Site Name"}}
 ]}}
]}}`

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Directory = dir
	cfg.ServerName = "test-server"
	cfg.MaxFileSize = 1024 * 1024

	events := progress.NewLog()
	o := orchestrator.New(orchestrator.WithNotifier(events))
	s, err := NewServer(cfg, o, events, nil)
	require.NoError(t, err)
	return s, dir
}

func writeXLSX(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Name"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Email"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "J. Doe"))
	require.NoError(t, f.SaveAs(path))
}

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			return text.Text
		}
		if text, ok := content.(*mcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}

func decode(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.NotNil(t, result)
	require.False(t, result.IsError, extractTextFromResult(result))
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(extractTextFromResult(result)), &out))
	return out
}

func TestNewServer(t *testing.T) {
	cfg := config.DefaultConfig()
	events := progress.NewLog()
	o := orchestrator.New()

	_, err := NewServer(nil, o, events, nil)
	assert.Error(t, err)
	_, err = NewServer(cfg, nil, events, nil)
	assert.Error(t, err)
	_, err = NewServer(cfg, o, nil, nil)
	assert.Error(t, err)

	cfg.Directory = ""
	_, err = NewServer(cfg, o, events, nil)
	assert.Error(t, err)

	s, err := NewServer(config.DefaultConfig(), o, events, nil)
	require.NoError(t, err)
	assert.NotNil(t, s.mcpServer)
}

func TestHandleExtractFile(t *testing.T) {
	s, dir := newTestServer(t)
	writeXLSX(t, filepath.Join(dir, "contacts.xlsx"))

	result, err := s.handleExtractFile(context.Background(), call(map[string]any{
		"path":       "contacts.xlsx",
		"session_id": "sess-1",
	}))
	require.NoError(t, err)
	body := decode(t, result)

	assert.Equal(t, "sess-1", body["session_id"])
	assert.Equal(t, "contacts.xlsx", body["document"])
	assert.Equal(t, orchestrator.TierStructure, body["tier"])
	validation := body["validation"].(map[string]any)
	assert.Equal(t, true, validation["valid"])
	form := body["schema"].(map[string]any)
	assert.Equal(t, "xf:form", form["name"])

	events := s.events.Events("sess-1")
	require.NotEmpty(t, events)
	assert.Equal(t, progress.EventCompleted, events[len(events)-1].Type)
}

func TestHandleExtractFileErrors(t *testing.T) {
	s, dir := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("text"), 0o600))

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing path", map[string]any{}, "path"},
		{"outside directory", map[string]any{"path": "../escape.pdf"}, "outside"},
		{"missing file", map[string]any{"path": "nope.pdf"}, "does not exist"},
		{"unsupported", map[string]any{"path": "notes.txt"}, "unsupported"},
		{"unreadable", map[string]any{"path": "broken.pdf"}, "cannot be opened"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleExtractFile(context.Background(), call(tt.args))
			require.NoError(t, err)
			require.True(t, result.IsError)
			assert.Contains(t, extractTextFromResult(result), tt.want)
		})
	}
}

func TestHandleExtractBatch(t *testing.T) {
	s, dir := newTestServer(t)
	writeXLSX(t, filepath.Join(dir, "a.xlsx"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.doc"), []byte("legacy"), 0o600))

	result, err := s.handleExtractBatch(context.Background(), call(map[string]any{
		"paths": []any{"a.xlsx", "missing.pdf", "b.doc"},
	}))
	require.NoError(t, err)
	body := decode(t, result)

	docs := body["documents"].([]any)
	require.Len(t, docs, 3)
	first := docs[0].(map[string]any)
	assert.Equal(t, orchestrator.TierStructure, first["result"].(map[string]any)["tier"])
	assert.Contains(t, docs[1].(map[string]any)["error"], "does not exist")
	third := docs[2].(map[string]any)
	assert.Equal(t, orchestrator.TierDefault, third["result"].(map[string]any)["tier"])

	result, err = s.handleExtractBatch(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleValidateSchema(t *testing.T) {
	s, dir := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "form.json"), []byte(validSchema), 0o600))

	body := decode(t, mustCall(t, s.handleValidateSchema, map[string]any{"schema": validSchema}))
	assert.Equal(t, true, body["valid"])

	body = decode(t, mustCall(t, s.handleValidateSchema, map[string]any{"path": "form.json"}))
	assert.Equal(t, true, body["valid"])

	body = decode(t, mustCall(t, s.handleValidateSchema, map[string]any{"schema": `{"name":"xf:form","props":{"children":[]}}`}))
	assert.Equal(t, false, body["valid"])
	assert.Contains(t, body["errors"], "Form must have at least one page")

	result := mustCall(t, s.handleValidateSchema, map[string]any{})
	assert.True(t, result.IsError)
}

func mustCall(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := h(context.Background(), call(args))
	require.NoError(t, err)
	return result
}

func TestHandleSearchDirectory(t *testing.T) {
	s, dir := newTestServer(t)
	writeXLSX(t, filepath.Join(dir, "site-log.xlsx"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o600))

	text := extractTextFromResult(mustCall(t, s.handleSearchDirectory, map[string]any{}))
	assert.Contains(t, text, "Found 1 document(s)")
	assert.Contains(t, text, "site-log.xlsx (xlsx)")

	text = extractTextFromResult(mustCall(t, s.handleSearchDirectory, map[string]any{"query": "budget"}))
	assert.Contains(t, text, "No documents found")

	result := mustCall(t, s.handleSearchDirectory, map[string]any{"directory": "/"})
	assert.True(t, result.IsError)
}

func TestHandleProgress(t *testing.T) {
	s, _ := newTestServer(t)
	s.events.Notify("s1", progress.EventStarted, "extraction started", nil)

	body := decode(t, mustCall(t, s.handleProgress, map[string]any{}))
	assert.Equal(t, []any{"s1"}, body["sessions"])

	body = decode(t, mustCall(t, s.handleProgress, map[string]any{"session_id": "s1", "cleanup": true}))
	assert.Len(t, body["events"], 1)
	assert.Equal(t, true, body["cleaned_up"])
	assert.Empty(t, s.events.Events("s1"))
}

func TestHandleServerInfo(t *testing.T) {
	s, dir := newTestServer(t)
	text := extractTextFromResult(mustCall(t, s.handleServerInfo, nil))

	assert.Contains(t, text, "test-server")
	assert.Contains(t, text, dir)
	assert.Contains(t, text, "AI Extraction: disabled")
	for _, name := range descriptions.GetAllToolNames() {
		assert.True(t, strings.Contains(text, name), name)
	}
}
