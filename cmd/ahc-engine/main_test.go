package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/ahc-engine/internal/config"
)

const testVersion = "1.2.3"

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	t.Cleanup(func() { version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit })

	version = testVersion
	buildTime = "2023-12-01_10:30:00"
	gitCommit = "abc123"

	var buf bytes.Buffer
	printVersion(&buf)

	for _, expected := range []string{
		"AHC Engine",
		"Version: " + testVersion,
		"Build Time: 2023-12-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	} {
		assert.Contains(t, buf.String(), expected)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name       string
		mode       string
		level      string
		wantStdout bool
		wantDebug  bool
	}{
		{"stdio logs to stderr", config.ModeStdio, "info", false, false},
		{"server logs json to stdout", config.ModeServer, "info", true, false},
		{"debug level", config.ModeStdio, "debug", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			logger := newLogger(&config.Config{Mode: tt.mode, LogLevel: tt.level}, &stdout, &stderr)
			logger.Info("hello", "profile", "unknown")
			logger.Debug("details")

			out, other := stderr.String(), stdout.String()
			if tt.wantStdout {
				out, other = other, out
				var line map[string]any
				require.NoError(t, json.Unmarshal([]byte(strings.SplitN(out, "\n", 2)[0]), &line))
				assert.Equal(t, "hello", line["msg"])
			}
			assert.Contains(t, out, "hello")
			assert.Empty(t, other)
			assert.Equal(t, tt.wantDebug, strings.Contains(out, "details"))
		})
	}
}

func testConfig(t *testing.T, mode string) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Mode = mode
	cfg.TemplateDirectory = root
	cfg.OutputDirectory = filepath.Join(root, "generated")
	return cfg
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestRunServerMode(t *testing.T) {
	cfg := testConfig(t, config.ModeServer)
	cfg.Port = freePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, nil) }()

	url := "http://" + cfg.Address() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRunServerModePortInUse(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	cfg := testConfig(t, config.ModeServer)
	cfg.Port = l.Addr().(*net.TCPAddr).Port

	err = run(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "server error")
}

func TestRunBadGeometry(t *testing.T) {
	cfg := testConfig(t, config.ModeStdio)
	cfg.GeometryFile = filepath.Join(cfg.TemplateDirectory, "missing.yaml")

	err := run(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "failed to create certificate service")
}
