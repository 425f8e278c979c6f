package config

import (
	"testing"
	"time"

	"github.com/qiuyin/AgentDesk/internal/models"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Symbol != "BTCUSDT" || cfg.Interval != "1h" {
		t.Fatalf("unexpected defaults: %s %s", cfg.Symbol, cfg.Interval)
	}
	if cfg.Window != models.DefaultWindow {
		t.Fatalf("window default = %d", cfg.Window)
	}
	if cfg.MaxRetries != 3 || cfg.RetryBase != time.Second {
		t.Fatalf("retry defaults = %d %v", cfg.MaxRetries, cfg.RetryBase)
	}
	if cfg.TierDelay != 800*time.Millisecond {
		t.Fatalf("tier delay default = %v", cfg.TierDelay)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DESK_SYMBOL", "ETHUSDT")
	t.Setenv("DESK_WINDOW", "50")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DESK_SUPPLEMENTAL", "false")
	t.Setenv("DESK_TIER_DELAY_MS", "0")

	cfg := DefaultConfig()
	if cfg.Symbol != "ETHUSDT" || cfg.Window != 50 {
		t.Fatalf("env not applied: %s %d", cfg.Symbol, cfg.Window)
	}
	if cfg.Provider != ProviderOpenAI || cfg.OpenAIAPIKey != "sk-test" {
		t.Fatalf("provider env not applied: %s", cfg.Provider)
	}
	if cfg.Supplemental {
		t.Fatal("supplemental toggle not applied")
	}
	if cfg.TierDelay != 0 {
		t.Fatalf("tier delay env not applied: %v", cfg.TierDelay)
	}
}

func TestTemperaturePerRole(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Temperature(models.RoleCEO) != 0.2 {
		t.Fatalf("CEO temperature = %v", cfg.Temperature(models.RoleCEO))
	}
	if cfg.Temperature(models.RoleShortTerm) != 0.7 {
		t.Fatalf("analyst temperature = %v", cfg.Temperature(models.RoleShortTerm))
	}
	if cfg.Temperature(models.AgentRole("UNKNOWN")) != 0.7 {
		t.Fatal("missing role must fall back to 0.7")
	}
}

func TestProviderKey(t *testing.T) {
	cfg := &Config{Provider: ProviderDeepSeek, DeepSeekAPIKey: "d", OpenAIAPIKey: "o"}
	if cfg.ProviderKey() != "d" {
		t.Fatal("wrong credential for deepseek")
	}
	cfg.Provider = ProviderOpenAI
	if cfg.ProviderKey() != "o" {
		t.Fatal("wrong credential for openai")
	}
	cfg.Provider = "other"
	if cfg.ProviderKey() != "" {
		t.Fatal("unknown provider must have no credential")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{Provider: ProviderDeepSeek, Symbol: "BTCUSDT", Window: 100}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	cfg.Provider = "gemini"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown provider accepted")
	}
	cfg.Provider = ProviderDeepSeek
	cfg.Window = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero window accepted")
	}
}
