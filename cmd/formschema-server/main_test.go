package main

import (
	"bytes"
	"context"
	"net"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-form-schema/internal/config"
	"github.com/a3tai/pdf-form-schema/internal/mcp"
	"github.com/a3tai/pdf-form-schema/internal/orchestrator"
	"github.com/a3tai/pdf-form-schema/internal/progress"
)

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	defer func() { version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit }()

	version = "1.2.3"
	buildTime = "2025-03-14_10:30:00"
	gitCommit = "abc123"

	var buf bytes.Buffer
	printVersion(&buf)
	out := buf.String()

	for _, want := range []string{
		"Form Schema MCP Server",
		"Version: 1.2.3",
		"Build Time: 2025-03-14_10:30:00",
		"Git Commit: abc123",
		"Built with: " + runtime.Version(),
	} {
		assert.Contains(t, out, want)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		mode      string
		level     string
		wantInfo  bool
		wantDebug bool
	}{
		{"stdio quiet by default", config.ModeStdio, "info", false, false},
		{"stdio debug", config.ModeStdio, "debug", true, true},
		{"server info", config.ModeServer, "info", true, false},
		{"server error", config.ModeServer, "error", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Mode = tt.mode
			cfg.LogLevel = tt.level

			var buf bytes.Buffer
			logger := newLogger(cfg, &buf)
			logger.Debug("debug line")
			logger.Info("info line")

			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug line")))
			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("info line")))
		})
	}
}

func TestRunServerModeReturnsServerError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := config.DefaultConfig()
	cfg.Directory = t.TempDir()
	cfg.Mode = config.ModeServer
	cfg.Host = "127.0.0.1"
	cfg.Port = busy.Addr().(*net.TCPAddr).Port

	events := progress.NewLog()
	server, err := mcp.NewServer(cfg, orchestrator.New(orchestrator.WithNotifier(events)), events, nil)
	require.NoError(t, err)

	var logs bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	err = runServerMode(ctx, cancel, server, newLogger(cfg, &logs))
	assert.Error(t, err)
}
