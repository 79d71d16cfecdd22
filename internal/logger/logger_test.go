package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"off", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestComponentAddsField(t *testing.T) {
	var buf bytes.Buffer
	Set(zerolog.New(&buf))
	defer Set(zerolog.Nop())

	l := Component("sa")
	l.Info().Int("stage", 2).Msg("stage finished")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("not json: %q", buf.String())
	}
	if rec["component"] != "sa" || rec["message"] != "stage finished" || rec["stage"] != float64(2) {
		t.Errorf("record = %v", rec)
	}
	if !Initialized() {
		t.Error("Initialized() = false after Set")
	}
}

func TestInitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	defer Set(zerolog.Nop())

	if err := Init(Config{Level: "warn", Format: "json", Output: "file", FilePath: path}); err != nil {
		t.Fatal(err)
	}
	Get().Info().Msg("dropped")
	Get().Warn().Msg("kept")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(data, []byte("dropped")) || !bytes.Contains(data, []byte("kept")) {
		t.Errorf("log file = %q", data)
	}
}
