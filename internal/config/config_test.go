package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	content := `
app:
  identifier: "my-app"
server:
  url: "ws://collector.internal:8127/track"
data:
  dir: "/var/lib/myapp/telemetry"
channel:
  max_batch_size: 10
  flush_interval: 250ms
spool:
  max_pending_files: 8
collector:
  host: "127.0.0.1"
  port: 9911
  origins:
    - "http://dash.internal"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.App.Identifier != "my-app" {
		t.Errorf("app identifier = %q, want my-app", cfg.App.Identifier)
	}
	if cfg.Server.URL != "ws://collector.internal:8127/track" {
		t.Errorf("server url = %q", cfg.Server.URL)
	}
	if cfg.Data.Dir != "/var/lib/myapp/telemetry" {
		t.Errorf("data dir = %q", cfg.Data.Dir)
	}
	if cfg.Channel.MaxBatchSize != 10 {
		t.Errorf("channel max batch size = %d, want 10", cfg.Channel.MaxBatchSize)
	}
	if cfg.Channel.FlushInterval != 250*time.Millisecond {
		t.Errorf("channel flush interval = %v, want 250ms", cfg.Channel.FlushInterval)
	}
	if cfg.Spool.MaxPendingFiles != 8 {
		t.Errorf("spool max pending files = %d, want 8", cfg.Spool.MaxPendingFiles)
	}
	if cfg.Collector.Host != "127.0.0.1" || cfg.Collector.Port != 9911 {
		t.Errorf("collector listen = %s:%d, want 127.0.0.1:9911", cfg.Collector.Host, cfg.Collector.Port)
	}
	if len(cfg.Collector.Origins) != 1 || cfg.Collector.Origins[0] != "http://dash.internal" {
		t.Errorf("collector origins = %v", cfg.Collector.Origins)
	}
}

func TestDefaultPipelineTuning(t *testing.T) {
	cfg := Default()
	if cfg.Channel.MaxBatchSize != 50 {
		t.Errorf("default channel max batch size = %d, want 50", cfg.Channel.MaxBatchSize)
	}
	if cfg.Channel.FlushInterval != 15*time.Second {
		t.Errorf("default channel flush interval = %v, want 15s", cfg.Channel.FlushInterval)
	}
	if cfg.Spool.MaxPendingFiles != 50 {
		t.Errorf("default spool max pending files = %d, want 50", cfg.Spool.MaxPendingFiles)
	}
	if cfg.Collector.Host != "0.0.0.0" || cfg.Collector.Port != 8127 {
		t.Errorf("default collector listen = %s:%d, want 0.0.0.0:8127", cfg.Collector.Host, cfg.Collector.Port)
	}
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	content := `
app:
  identifier: "partial"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.App.Identifier != "partial" {
		t.Errorf("app identifier = %q, want partial", cfg.App.Identifier)
	}
	if cfg.Server.URL != "" {
		t.Errorf("server url = %q, want empty (sender default)", cfg.Server.URL)
	}
	if cfg.Channel.MaxBatchSize != 50 || cfg.Channel.FlushInterval != 15*time.Second {
		t.Errorf("partial config lost channel defaults: %+v", cfg.Channel)
	}
	if cfg.Spool.MaxPendingFiles != 50 {
		t.Errorf("partial config lost spool default: %d", cfg.Spool.MaxPendingFiles)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("app: [unclosed"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected an error for malformed YAML")
	}
}
