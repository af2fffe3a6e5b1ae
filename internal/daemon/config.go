// Package daemon manages the sandbox daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/app/budget"
)

// Config holds all daemon configuration.
type Config struct {
	API       APIConfig       `toml:"api"`
	Auth      AuthConfig      `toml:"auth"`
	Budget    BudgetConfig    `toml:"budget"`
	LLM       LLMConfig       `toml:"llm"`
	Battles   BattlesConfig   `toml:"battles"`
	Notify    NotifyConfig    `toml:"notify"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// AuthConfig holds the bearer tokens for the protected route groups.
// Empty tokens lock the corresponding routes closed.
type AuthConfig struct {
	CronToken  string `toml:"cron_token"`
	AdminToken string `toml:"admin_token"`
}

// BudgetConfig controls the spend governor.
type BudgetConfig struct {
	DailyCapUSD float64 `toml:"daily_cap_usd"`
	ThrottleUSD float64 `toml:"throttle_usd"`
}

// LLMConfig points at the OpenAI-compatible completion endpoint.
// An empty endpoint switches the daemon to the mock client.
type LLMConfig struct {
	Endpoint      string  `toml:"endpoint"`
	APIKey        string  `toml:"api_key"`
	StandardModel string  `toml:"standard_model"`
	EconomyModel  string  `toml:"economy_model"`
	JudgeModel    string  `toml:"judge_model"`
	PricePerKTok  float64 `toml:"price_per_k_tokens"`
}

// BattlesConfig controls batch execution.
type BattlesConfig struct {
	MaxConcurrent int `toml:"max_concurrent"`
	MaxTurns      int `toml:"max_turns"`
}

// NotifyConfig controls kill-switch webhook notifications.
type NotifyConfig struct {
	WebhookURL string `toml:"webhook_url"`
}

// TelemetryConfig controls metrics exposure.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8787,
		},
		Budget: BudgetConfig{
			DailyCapUSD: budget.DefaultConfig().DailyCapUSD,
			ThrottleUSD: budget.DefaultConfig().ThrottleUSD,
		},
		LLM: LLMConfig{
			StandardModel: "gpt-4o",
			EconomyModel:  "gpt-4o-mini",
			JudgeModel:    "gpt-4o-mini",
		},
		Battles: BattlesConfig{
			MaxConcurrent: 4,
			MaxTurns:      6,
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// LoadConfig reads config from ~/.goat/config.toml, falling back to defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(goatHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet, use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if cfg.LLM.EconomyModel == "" {
		cfg.LLM.EconomyModel = cfg.LLM.StandardModel
	}
	if cfg.LLM.JudgeModel == "" {
		cfg.LLM.JudgeModel = cfg.LLM.EconomyModel
	}

	return cfg, nil
}

// SaveConfig writes the config to ~/.goat/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(goatHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// goatHome returns the data directory (database, config).
func goatHome() string {
	if env := os.Getenv("GOAT_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".goat")
}

// GoatHome is exported for use by other packages.
func GoatHome() string {
	return goatHome()
}
