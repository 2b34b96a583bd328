package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "XPERIENCE"

type Config struct {
	ListenAddr string          `mapstructure:"listen_addr"`
	LogLevel   string          `mapstructure:"log_level"`
	LogPretty  bool            `mapstructure:"log_pretty"`
	Backend    BackendConfig   `mapstructure:"backend"`
	Wallet     WalletConfig    `mapstructure:"wallet"`
	Store      StoreConfig     `mapstructure:"store"`
	Telemetry  TelemetryConfig `mapstructure:"telemetry"`
	Render     RenderConfig    `mapstructure:"render"`
}

type BackendConfig struct {
	Provider        string        `mapstructure:"provider"`
	AnthropicAPIKey string        `mapstructure:"anthropic_api_key"`
	GeminiAPIKey    string        `mapstructure:"gemini_api_key"`
	Model           string        `mapstructure:"model"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxTokens       int           `mapstructure:"max_tokens"`
}

type WalletConfig struct {
	InitialBalance int `mapstructure:"initial_balance"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
}

type RenderConfig struct {
	ChromePath  string        `mapstructure:"chrome_path"`
	PaperSize   string        `mapstructure:"paper_size"`
	PageNumbers bool          `mapstructure:"page_numbers"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
	v.SetDefault("backend.provider", "anthropic")
	v.SetDefault("backend.anthropic_api_key", "")
	v.SetDefault("backend.gemini_api_key", "")
	v.SetDefault("backend.model", "")
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("backend.max_tokens", 4096)
	v.SetDefault("wallet.initial_balance", 5)
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.path", "xperience.db")
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "xperience-reports")
	v.SetDefault("render.chrome_path", "")
	v.SetDefault("render.paper_size", "a4")
	v.SetDefault("render.page_numbers", true)
	v.SetDefault("render.timeout", 30*time.Second)
}

// Load reads configuration from defaults, an optional config file, XPERIENCE_*
// environment variables and bound flags, in increasing precedence. The
// provider API keys also fall back to ANTHROPIC_API_KEY and GEMINI_API_KEY.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Backend.AnthropicAPIKey == "" {
		cfg.Backend.AnthropicAPIKey = strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	}
	if cfg.Backend.GeminiAPIKey == "" {
		cfg.Backend.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Backend.Provider {
	case "anthropic", "gemini":
	default:
		errs = append(errs, fmt.Errorf("backend.provider must be anthropic or gemini, got %q", c.Backend.Provider))
	}
	if c.Backend.Timeout <= 0 {
		errs = append(errs, errors.New("backend.timeout must be positive"))
	}
	if c.Wallet.InitialBalance < 0 {
		errs = append(errs, errors.New("wallet.initial_balance must not be negative"))
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver must be memory or sqlite, got %q", c.Store.Driver))
	}
	switch strings.ToLower(c.Render.PaperSize) {
	case "", "a4", "letter", "legal":
	default:
		errs = append(errs, fmt.Errorf("render.paper_size must be a4, letter or legal, got %q", c.Render.PaperSize))
	}
	return errors.Join(errs...)
}

// APIKey returns the credential for the configured provider.
func (c *Config) APIKey() string {
	if c.Backend.Provider == "gemini" {
		return c.Backend.GeminiAPIKey
	}
	return c.Backend.AnthropicAPIKey
}
