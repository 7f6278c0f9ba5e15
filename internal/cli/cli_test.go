package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matthewsinclair/arca-notionex/internal/logging"
)

// captureOutput captures stdout during test execution.
func captureOutput(t *testing.T, f func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	f()

	if err := w.Close(); err != nil {
		t.Fatalf("failed to close pipe writer: %v", err)
	}
	os.Stdout = old

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("failed to read captured output: %v", err)
	}
	return buf.String()
}

// writeTestConfig writes a config file and points NOTIONEX_CONFIG at it.
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".notionex.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("NOTIONEX_CONFIG", path)
	return path
}

func TestVersionVariables(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if Commit == "" {
		t.Error("Commit should not be empty")
	}
	if BuildDate == "" {
		t.Error("BuildDate should not be empty")
	}
}

func TestConfigureLogging(t *testing.T) {
	tests := map[string]struct {
		args      []string
		wantDebug bool
		wantInfo  bool
	}{
		"no flags keeps the default warn level": {
			args:      []string{"notionex", "version"},
			wantDebug: false,
			wantInfo:  false,
		},
		"verbose flag enables info level": {
			args:      []string{"notionex", "--verbose", "version"},
			wantDebug: false,
			wantInfo:  true,
		},
		"debug flag enables debug level": {
			args:      []string{"notionex", "--debug", "version"},
			wantDebug: true,
			wantInfo:  true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			logging.SetDefault(logging.New(logging.DefaultOptions()))

			_ = captureOutput(t, func() {
				if err := Run(context.Background(), tt.args); err != nil {
					t.Errorf("Run() error = %v", err)
				}
			})

			logger := slog.Default()
			if got := logger.Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := logger.Enabled(context.Background(), slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("info enabled = %v, want %v", got, tt.wantInfo)
			}
		})
	}
}

func TestConfigureLoggingFromConfigFile(t *testing.T) {
	writeTestConfig(t, "log:\n  level: debug\n")
	logging.SetDefault(logging.New(logging.DefaultOptions()))

	_ = captureOutput(t, func() {
		if err := Run(context.Background(), []string{"notionex", "version"}); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	})

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("config file log level should enable debug logging")
	}
}

func TestMaskToken(t *testing.T) {
	tests := map[string]struct {
		token string
		want  string
	}{
		"empty token": {
			token: "",
			want:  "(unset)",
		},
		"short token fully masked": {
			token: "abc123",
			want:  "****",
		},
		"long token keeps last four": {
			token: "secret_1234567890abcd",
			want:  "****abcd",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := maskToken(tt.token); got != tt.want {
				t.Errorf("maskToken(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestRunHelpListsCommands(t *testing.T) {
	output := captureOutput(t, func() {
		if err := Run(context.Background(), []string{"notionex", "--help"}); err != nil {
			t.Errorf("Run() error = %v", err)
		}
	})

	for _, want := range []string{"init", "config", "new", "sync", "pull", "status", "check", "doctor", "export", "archive", "backups", "version"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing command %q:\n%s", want, output)
		}
	}
}
