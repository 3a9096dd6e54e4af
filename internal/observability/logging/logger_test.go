package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewTagsServiceAndRedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "archivo-api", "info")

	logger.Info("login", "username", "admin", "password", "s3cret", "Authorization", "Bearer abc")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["service"] != "archivo-api" {
		t.Fatalf("expected service tag, got %v", entry["service"])
	}
	if entry["username"] != "admin" {
		t.Fatalf("expected username to pass through, got %v", entry["username"])
	}
	if entry["password"] != redacted || entry["Authorization"] != redacted {
		t.Fatalf("expected credentials to be redacted, got %v", entry)
	}
	if strings.Contains(buf.String(), "s3cret") {
		t.Fatalf("password leaked into log output: %s", buf.String())
	}
}

func TestNewHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "archivoctl", "warn")

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %s", buf.String())
	}
	logger.Warn("kept")
	if !strings.Contains(buf.String(), `"msg":"kept"`) {
		t.Fatalf("expected warn entry, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
