package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/justapithecus/stratum/fetch"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stratum.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("STRATUM_TEST_TOKEN", "sekrit")

	path := writeConfig(t, `
index:
  endpoint: https://index.example.org/cdx/search/cdx
  token: ${STRATUM_TEST_TOKEN}
  timeout: 45s
engine:
  name: renderer
  renderer_path: /usr/local/bin/stratum-renderer
  renderer_args: ["--headless"]
retry:
  attempts: 4
  multiplier: 1s
  min_wait: 2s
  max_wait: 30s
download:
  concurrency: 8
  timeout: 90s
  user_agent: stratum-harvester
  headers:
    Accept-Language: en
archive:
  base_url: https://replay.example.org
proxies_file: /etc/stratum/proxies.txt
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Index.Endpoint != "https://index.example.org/cdx/search/cdx" {
		t.Errorf("endpoint = %q", cfg.Index.Endpoint)
	}
	if cfg.Index.Token != "sekrit" {
		t.Errorf("token = %q, want env expansion", cfg.Index.Token)
	}
	if cfg.Index.Timeout.Duration != 45*time.Second {
		t.Errorf("timeout = %v", cfg.Index.Timeout.Duration)
	}
	if cfg.Engine.Name != EngineRenderer || cfg.Engine.RendererPath == "" {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if cfg.Download.Concurrency != 8 || cfg.Download.UserAgent != "stratum-harvester" {
		t.Errorf("download = %+v", cfg.Download)
	}
	if cfg.Download.Headers["Accept-Language"] != "en" {
		t.Errorf("headers = %v", cfg.Download.Headers)
	}
	if cfg.Archive.BaseURL != "https://replay.example.org" {
		t.Errorf("archive base = %q", cfg.Archive.BaseURL)
	}
	if cfg.ProxiesFile != "/etc/stratum/proxies.txt" {
		t.Errorf("proxies_file = %q", cfg.ProxiesFile)
	}

	p := cfg.Policy()
	want := fetch.Policy{Attempts: 4, Multiplier: time.Second, MinWait: 2 * time.Second, MaxWait: 30 * time.Second}
	if p != want {
		t.Errorf("Policy() = %+v, want %+v", p, want)
	}
}

func TestPolicy_Defaults(t *testing.T) {
	var cfg Config
	if p := cfg.Policy(); p != fetch.DefaultPolicy() {
		t.Errorf("zero config Policy() = %+v, want defaults", p)
	}
}

func TestValidate_UnknownEngine(t *testing.T) {
	cfg := Config{Engine: EngineConfig{Name: "webdriver"}}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown engine")
	}
}

func TestValidate_RendererNeedsPath(t *testing.T) {
	cfg := Config{Engine: EngineConfig{Name: EngineRenderer}}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for renderer engine without a path")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, "index:\n  timeout: soon\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for unparseable duration")
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
