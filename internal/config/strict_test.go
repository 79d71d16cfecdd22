package config

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"commonDue/internal/errs"
)

func TestParseStrict(t *testing.T) {
	full, err := yaml.Marshal(Default())
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := ParseStrict(bytes.NewReader(full))
	if err != nil {
		t.Fatalf("complete document rejected: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("round trip changed config: %+v", cfg)
	}

	var kept []string
	for _, line := range strings.Split(string(full), "\n") {
		if !strings.Contains(line, "jump:") && !strings.Contains(line, "max_nodes:") {
			kept = append(kept, line)
		}
	}
	_, err = ParseStrict(strings.NewReader(strings.Join(kept, "\n")))
	if !errs.Is(err, errs.CodeInvalidConfig) {
		t.Fatalf("ParseStrict() = %v, want INVALID_CONFIG", err)
	}
	want := []string{"fix_and_optimize.jump", "solver.max_nodes"}
	if got := errs.FieldsOf(err)["missing"]; !reflect.DeepEqual(got, want) {
		t.Errorf("missing = %v, want %v", got, want)
	}

	// Parse для того же документа подставляет значения по умолчанию.
	if _, err := Parse(strings.NewReader(strings.Join(kept, "\n"))); err != nil {
		t.Errorf("Parse() = %v", err)
	}
}

func TestParseStrictEmpty(t *testing.T) {
	if _, err := ParseStrict(strings.NewReader("")); !errs.Is(err, errs.CodeInvalidConfig) {
		t.Errorf("ParseStrict(empty) = %v, want INVALID_CONFIG", err)
	}
	if _, err := LoadStrict(""); !errs.Is(err, errs.CodeInvalidConfig) {
		t.Errorf("LoadStrict(\"\") = %v, want INVALID_CONFIG", err)
	}
}
