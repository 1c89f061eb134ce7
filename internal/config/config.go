// Package config loads the service configuration from YAML with defaults
// and validation, plus environment overrides for deploy-time secrets.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config is the full service configuration.
type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development staging production"`
	Network     string `yaml:"network" default:"mainnet" validate:"oneof=mainnet devnet"`

	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	} `yaml:"log"`

	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`

	Gateway struct {
		RPCURL     string        `yaml:"rpc_url" validate:"required,url"`
		WSURL      string        `yaml:"ws_url" validate:"omitempty,url"`
		Timeout    time.Duration `yaml:"timeout" default:"15s"`
		MaxRetries int           `yaml:"max_retries" default:"3" validate:"gte=0"`
		RetryDelay time.Duration `yaml:"retry_delay" default:"500ms"`
	} `yaml:"gateway"`

	Classifier struct {
		TopN         int           `yaml:"top_n" default:"20" validate:"gte=1"`
		BatchSize    int           `yaml:"batch_size" default:"3" validate:"gte=1,lte=10"`
		BatchPause   time.Duration `yaml:"batch_pause" default:"500ms"`
		HistoryLimit int           `yaml:"history_limit" default:"100" validate:"gte=1"`
		HolderLimit  int           `yaml:"holder_limit" default:"100" validate:"gte=1"`
		CacheTTL     time.Duration `yaml:"cache_ttl" default:"5m"`
	} `yaml:"classifier"`

	Monitor struct {
		TickInterval     time.Duration `yaml:"tick_interval" default:"30s"`
		MinDecreasePct   float64       `yaml:"min_decrease_pct" default:"1.0" validate:"gt=0"`
		TransferLookback time.Duration `yaml:"transfer_lookback" default:"5m"`
		WorkerLimit      int           `yaml:"worker_limit" default:"3" validate:"gte=1,lte=10"`
		CheckTimeout     time.Duration `yaml:"check_timeout" default:"10s"`
	} `yaml:"monitor"`

	Storage struct {
		Backend       string `yaml:"backend" default:"memory" validate:"oneof=memory postgres"`
		PostgresDSN   string `yaml:"postgres_dsn"`
		ClickhouseDSN string `yaml:"clickhouse_dsn"`
	} `yaml:"storage"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Telegram struct {
		Enabled  bool   `yaml:"enabled"`
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`

	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"sell-alerts"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`

	// Venues extends the built-in exchange registry, address -> name.
	Venues map[string]string `yaml:"venues"`
}

// Load reads and parses a YAML configuration file, applies defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse builds a Config from raw YAML.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides secrets and endpoints
// with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if v := os.Getenv("RPC_URL"); v != "" {
		c.Gateway.RPCURL = v
	}
	if v := os.Getenv("WS_URL"); v != "" {
		c.Gateway.WSURL = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		c.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Validate checks structural constraints plus the cross-field rules the
// struct tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Storage.Backend == "postgres" && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("storage.postgres_dsn is required with the postgres backend")
	}
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id are required when telegram is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
