package config

import (
	"bytes"
	"io"
	"os"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"

	"commonDue/internal/errs"
)

// LoadStrict читает конфигурацию, в которой заданы все ключи.
// Отсутствующий ключ (кроме помеченных omitempty) — INVALID_CONFIG.
func LoadStrict(path string) (Config, error) {
	if path == "" {
		return Config{}, errs.InvalidConfig("строгий режим требует файл конфигурации")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errs.Wrap(err, errs.CodeInvalidConfig, "read config %s", path)
	}
	cfg, err := ParseStrict(bytes.NewReader(data))
	if err != nil {
		return Config{}, err
	}
	return withEnv(cfg)
}

// ParseStrict разбирает YAML, как Parse, но требует все ключи.
func ParseStrict(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, errs.Wrap(err, errs.CodeInvalidConfig, "read config")
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Config{}, errs.Wrap(err, errs.CodeInvalidConfig, "parse config")
	}
	root := &doc
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root = doc.Content[0]
	}
	if missing := missingKeys(root, reflect.TypeOf(Config{}), ""); len(missing) > 0 {
		return Config{}, errs.InvalidConfig("в конфигурации нет ключей: %s", strings.Join(missing, ", ")).
			WithField("missing", missing)
	}
	return Parse(bytes.NewReader(data))
}

// missingKeys возвращает пути ключей структуры t, которых нет в узле.
func missingKeys(node *yaml.Node, t reflect.Type, prefix string) []string {
	present := make(map[string]*yaml.Node)
	if node != nil && node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			present[node.Content[i].Value] = node.Content[i+1]
		}
	}
	var out []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, opts, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		child, ok := present[name]
		switch {
		case !ok && !strings.Contains(opts, "omitempty"):
			out = append(out, path)
		case ok && f.Type.Kind() == reflect.Struct:
			out = append(out, missingKeys(child, f.Type, path)...)
		}
	}
	return out
}
