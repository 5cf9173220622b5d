package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWritesJSONWithServiceAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "docclass-mcp", "warn")

	logger.Info("dropped")
	logger.Warn("model_persist_failed", "model_dir", "/tmp/m")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["service"] != "docclass-mcp" || entry["msg"] != "model_persist_failed" || entry["model_dir"] != "/tmp/m" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{"debug": "DEBUG", " WARNING ": "WARN", "error": "ERROR", "": "INFO", "bogus": "INFO"}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Fatalf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
