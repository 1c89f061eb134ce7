package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
gateway:
  rpc_url: "https://rpc.example.com"
`

func TestParse_DefaultsApplied(t *testing.T) {
	c, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if c.Environment != "development" {
		t.Errorf("Environment = %q, want development", c.Environment)
	}
	if c.Network != "mainnet" {
		t.Errorf("Network = %q, want mainnet", c.Network)
	}
	if c.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", c.Server.Port)
	}
	if c.Monitor.TickInterval != 30*time.Second {
		t.Errorf("Monitor.TickInterval = %v, want 30s", c.Monitor.TickInterval)
	}
	if c.Monitor.MinDecreasePct != 1.0 {
		t.Errorf("Monitor.MinDecreasePct = %f, want 1.0", c.Monitor.MinDecreasePct)
	}
	if c.Classifier.BatchPause != 500*time.Millisecond {
		t.Errorf("Classifier.BatchPause = %v, want 500ms", c.Classifier.BatchPause)
	}
	if c.Storage.Backend != "memory" {
		t.Errorf("Storage.Backend = %q, want memory", c.Storage.Backend)
	}
	if c.Kafka.Topic != "sell-alerts" {
		t.Errorf("Kafka.Topic = %q, want sell-alerts", c.Kafka.Topic)
	}
}

func TestParse_ExplicitValuesWin(t *testing.T) {
	c, err := Parse([]byte(`
network: devnet
gateway:
  rpc_url: "https://rpc.example.com"
monitor:
  tick_interval: 5s
  worker_limit: 5
venues:
  SomeAddr: "Some DEX"
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if c.Network != "devnet" {
		t.Errorf("Network = %q, want devnet", c.Network)
	}
	if c.Monitor.TickInterval != 5*time.Second {
		t.Errorf("Monitor.TickInterval = %v, want 5s", c.Monitor.TickInterval)
	}
	if c.Monitor.WorkerLimit != 5 {
		t.Errorf("Monitor.WorkerLimit = %d, want 5", c.Monitor.WorkerLimit)
	}
	if c.Venues["SomeAddr"] != "Some DEX" {
		t.Errorf("Venues = %v", c.Venues)
	}
}

func TestParse_ValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing rpc url", `environment: production`},
		{"bad network", minimalYAML + "network: testnet\n"},
		{"bad backend", minimalYAML + "storage:\n  backend: cassandra\n"},
		{"postgres without dsn", minimalYAML + "storage:\n  backend: postgres\n"},
		{"telegram without token", minimalYAML + "telegram:\n  enabled: true\n"},
		{"kafka without brokers", minimalYAML + "kafka:\n  enabled: true\n"},
		{"port out of range", minimalYAML + "server:\n  port: 70000\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.yaml)); err == nil {
				t.Error("Expected a validation error")
			}
		})
	}
}

func TestLoadWithEnv_Overrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("RPC_URL", "https://override.example.com")
	t.Setenv("KAFKA_BROKERS", "b1:9092,b2:9092")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("LoadWithEnv failed: %v", err)
	}

	if c.Gateway.RPCURL != "https://override.example.com" {
		t.Errorf("Gateway.RPCURL = %q", c.Gateway.RPCURL)
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[0] != "b1:9092" {
		t.Errorf("Kafka.Brokers = %v", c.Kafka.Brokers)
	}
	if c.Telegram.BotToken != "tok" {
		t.Errorf("Telegram.BotToken = %q", c.Telegram.BotToken)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
