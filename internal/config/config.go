package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/qiuyin/AgentDesk/internal/models"
)

// Provider names accepted by the desk.
const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
)

type Config struct {
	// Instrument and market data.
	Symbol       string `json:"symbol"`
	Interval     string `json:"interval"`
	Window       int    `json:"window"`
	EtherscanKey string `json:"etherscan_api_key"`

	// Provider selection and credentials.
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	BackendURL     string `json:"backend_url"`
	OpenAIAPIKey   string `json:"openai_api_key"`
	DeepSeekAPIKey string `json:"deepseek_api_key"`

	// Pipeline behavior.
	Language   string        `json:"language"`
	TierDelay  time.Duration `json:"tier_delay"`
	MaxRetries int           `json:"max_retries"`
	RetryBase  time.Duration `json:"retry_base"`

	// Feature toggles. The three supplemental behaviors observed in the desk
	// evolved independently, so each has its own switch.
	Supplemental    bool `json:"supplemental_signals"`
	PositionContext bool `json:"position_context"`
	MacroWebSearch  bool `json:"macro_web_search"`

	// Per-role sampling temperatures.
	Temperatures map[models.AgentRole]float32 `json:"temperatures"`

	// Operator position, only consulted when PositionContext is on.
	Position *models.UserPosition `json:"position,omitempty"`

	// DataDir holds the run history database. Empty disables persistence.
	DataDir string `json:"data_dir"`

	Debug    bool   `json:"debug"`
	LogLevel string `json:"log_level"`
}

func DefaultConfig() *Config {
	cfg := &Config{
		Symbol:   "BTCUSDT",
		Interval: "1h",
		Window:   models.DefaultWindow,

		Provider:   ProviderDeepSeek,
		Model:      "deepseek-chat",
		BackendURL: "",

		Language:   "en",
		TierDelay:  800 * time.Millisecond,
		MaxRetries: 3,
		RetryBase:  time.Second,

		Supplemental:    true,
		PositionContext: false,
		MacroWebSearch:  false,

		Temperatures: map[models.AgentRole]float32{
			models.RoleShortTerm:   0.7,
			models.RoleLongTerm:    0.7,
			models.RoleQuant:       0.7,
			models.RoleOnChain:     0.7,
			models.RoleMacro:       0.7,
			models.RoleTechManager: 0.5,
			models.RoleFundManager: 0.5,
			models.RoleRiskManager: 0.3,
			models.RoleCEO:         0.2,
		},

		Debug:    false,
		LogLevel: "info",
	}

	if home, err := os.UserHomeDir(); err == nil {
		cfg.DataDir = filepath.Join(home, ".agentdesk")
	}

	// Load environment variables from .env file, then let the environment
	// override the defaults.
	_ = godotenv.Load()
	cfg.loadFromEnv()

	return cfg
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("DESK_SYMBOL"); val != "" {
		c.Symbol = val
	}
	if val := os.Getenv("DESK_INTERVAL"); val != "" {
		c.Interval = val
	}
	if val := os.Getenv("DESK_WINDOW"); val != "" {
		if v, err := strconv.Atoi(val); err == nil && v > 0 {
			c.Window = v
		}
	}
	if val := os.Getenv("DESK_LANGUAGE"); val != "" {
		c.Language = val
	}

	if val := os.Getenv("LLM_PROVIDER"); val != "" {
		c.Provider = val
	}
	if val := os.Getenv("LLM_MODEL"); val != "" {
		c.Model = val
	}
	if val := os.Getenv("BACKEND_URL"); val != "" {
		c.BackendURL = val
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.OpenAIAPIKey = val
	}
	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
		c.DeepSeekAPIKey = val
	}
	if val := os.Getenv("ETHERSCAN_API_KEY"); val != "" {
		c.EtherscanKey = val
	}

	if val := os.Getenv("DESK_TIER_DELAY_MS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil && v >= 0 {
			c.TierDelay = time.Duration(v) * time.Millisecond
		}
	}
	if val := os.Getenv("DESK_SUPPLEMENTAL"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Supplemental = enabled
		}
	}
	if val := os.Getenv("DESK_POSITION_CONTEXT"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.PositionContext = enabled
		}
	}
	if val := os.Getenv("DESK_MACRO_WEB_SEARCH"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.MacroWebSearch = enabled
		}
	}

	if val := os.Getenv("DESK_DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("DESK_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}
	if val := os.Getenv("DESK_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
}

// Temperature returns the sampling temperature for a role, falling back to a
// neutral default for roles missing from the table.
func (c *Config) Temperature(role models.AgentRole) float32 {
	if t, ok := c.Temperatures[role]; ok {
		return t
	}
	return 0.7
}

// ProviderKey returns the credential for the selected provider. Empty means
// the precondition check in the pipeline must refuse to start a run.
func (c *Config) ProviderKey() string {
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderDeepSeek:
		return c.DeepSeekAPIKey
	}
	return ""
}

// Validate checks that the configuration can support a run.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderDeepSeek:
	default:
		return fmt.Errorf("unknown provider %q (want %s or %s)", c.Provider, ProviderOpenAI, ProviderDeepSeek)
	}
	if c.Symbol == "" {
		return fmt.Errorf("symbol must not be empty")
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive, got %d", c.Window)
	}
	return nil
}
