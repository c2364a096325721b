package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// moduleEntries builds a Modules map with empty config nodes.
func moduleEntries(ids ...string) map[string]yaml.Node {
	m := make(map[string]yaml.Node, len(ids))
	for _, id := range ids {
		m[id] = yaml.Node{}
	}
	return m
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assistant.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Basic(t *testing.T) {
	path := writeConfig(t, `
version: "1"
modules:
  provider.anthropic:
    model: claude-sonnet-4-5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Version != "1" {
		t.Errorf("version = %q", cfg.Version)
	}
	if _, ok := cfg.Modules["provider.anthropic"]; !ok {
		t.Error("module config missing")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("ASSIST_TEST_KEY", "sk-test-123")

	path := writeConfig(t, `
version: "1"
modules:
  provider.anthropic:
    api_key: ${ASSIST_TEST_KEY}
    model: ${ASSIST_TEST_MODEL:-claude-sonnet-4-5}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	node := cfg.Modules["provider.anthropic"]
	var decoded struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	}
	if err := node.Decode(&decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.APIKey != "sk-test-123" {
		t.Errorf("api_key = %q, want expanded env value", decoded.APIKey)
	}
	if decoded.Model != "claude-sonnet-4-5" {
		t.Errorf("model = %q, want fallback default", decoded.Model)
	}
}

func TestLoad_UnresolvedVariable(t *testing.T) {
	path := writeConfig(t, `
version: "1"
modules:
  provider.anthropic:
    api_key: ${DEFINITELY_NOT_SET_ANYWHERE}
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unresolved variable")
	}
	if !strings.Contains(err.Error(), "DEFINITELY_NOT_SET_ANYWHERE") {
		t.Errorf("error should name the variable: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{
			name:    "missing version",
			cfg:     &Config{Modules: moduleEntries("x")},
			wantErr: "version field is required",
		},
		{
			name:    "unsupported version",
			cfg:     &Config{Version: "2", Modules: moduleEntries("x")},
			wantErr: "unsupported version",
		},
		{
			name:    "no modules",
			cfg:     &Config{Version: "1"},
			wantErr: "at least one module",
		},
		{
			name:    "unknown module",
			cfg:     &Config{Version: "1", Modules: moduleEntries("does.not.exist")},
			wantErr: `unknown module "does.not.exist"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestResolve_SortedOrder(t *testing.T) {
	cfg := &Config{
		Version: "1",
		Modules: moduleEntries("gateway.http", "provider.anthropic", "assistant.session"),
	}
	got := Resolve(cfg)
	want := []string{"assistant.session", "gateway.http", "provider.anthropic"}
	if len(got) != len(want) {
		t.Fatalf("resolve = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("resolve[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
