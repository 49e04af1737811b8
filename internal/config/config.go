package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for Concilia. The core pipeline receives
// everything it needs from here; nothing reads ambient process state.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Storage        StorageConfig        `yaml:"storage"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
	Normalizer     NormalizerConfig     `yaml:"normalizer"`
	Agent          AgentConfig          `yaml:"agent"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int    `yaml:"port"`
	Environment string `yaml:"environment"`
}

// StorageConfig holds embedded storage configuration
type StorageConfig struct {
	Path string `yaml:"path"`
}

// ReconciliationConfig holds the tolerances and policy knobs of the diff
// engine and report assembly.
type ReconciliationConfig struct {
	// MatchTolerance is the absolute difference below which two amounts are
	// considered equal.
	MatchTolerance float64 `yaml:"match_tolerance"`
	// AlertThreshold is the absolute total difference above which the report
	// carries a warning alert.
	AlertThreshold float64 `yaml:"alert_threshold"`
	// LongTermAgeDays is the overdue age beyond which a financial entity is
	// classified as long term.
	LongTermAgeDays int `yaml:"long_term_age_days"`
	// ShortCodeLength is the code-length threshold of the default term
	// classifier used when mapping financial-greater rows.
	ShortCodeLength int `yaml:"short_code_length"`
}

// NormalizerConfig holds the accepted header spellings for both normalizers.
// Column resolution tries these in order.
type NormalizerConfig struct {
	Financial  FinancialColumns  `yaml:"financial"`
	Accounting AccountingColumns `yaml:"accounting"`
}

// FinancialColumns lists accepted header variants of the financial export,
// already in normalized form (lower case, separators collapsed to "_").
type FinancialColumns struct {
	Identity []string `yaml:"identity"`
	Amount   []string `yaml:"amount"`
	DueDate  []string `yaml:"due_date"`
}

// AccountingColumns holds the matching rules of the accounting export. Code
// and description columns match by prefix, the balance column by equality.
type AccountingColumns struct {
	CodePrefix        string   `yaml:"code_prefix"`
	DescriptionPrefix string   `yaml:"description_prefix"`
	Balance           []string `yaml:"balance"`
}

// AgentConfig holds the LLM reconciliation strategy configuration. The API
// key is read by the genai client from its own environment variables.
type AgentConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables on top of the
// defaults.
func LoadFromEnv() *Config {
	cfg := Default()
	cfg.Server.Port = getEnvInt("PORT", cfg.Server.Port)
	cfg.Server.Environment = getEnv("ENVIRONMENT", cfg.Server.Environment)
	cfg.Storage.Path = getEnv("CONCILIA_DATA", cfg.Storage.Path)
	cfg.Reconciliation.MatchTolerance = getEnvFloat("RECON_TOLERANCE", cfg.Reconciliation.MatchTolerance)
	cfg.Reconciliation.AlertThreshold = getEnvFloat("RECON_ALERT_THRESHOLD", cfg.Reconciliation.AlertThreshold)
	cfg.Reconciliation.LongTermAgeDays = getEnvInt("RECON_LONG_TERM_DAYS", cfg.Reconciliation.LongTermAgeDays)
	cfg.Reconciliation.ShortCodeLength = getEnvInt("RECON_SHORT_CODE_LEN", cfg.Reconciliation.ShortCodeLength)
	cfg.Agent.Enabled = getEnvBool("AGENT_ENABLED", cfg.Agent.Enabled)
	cfg.Agent.Model = getEnv("AGENT_MODEL", cfg.Agent.Model)
	return cfg
}

// Default returns the built-in configuration. The column alias lists mirror
// the header spellings seen across the supported export layouts.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        3004,
			Environment: "development",
		},
		Storage: StorageConfig{
			Path: "/var/lib/concilia",
		},
		Reconciliation: ReconciliationConfig{
			MatchTolerance:  0.01,
			AlertThreshold:  1000,
			LongTermAgeDays: 365,
			ShortCodeLength: 11,
		},
		Normalizer: NormalizerConfig{
			Financial: FinancialColumns{
				Identity: []string{
					"codigo_lj_nome_do_cliente",
					"cliente",
					"nome_cliente",
				},
				Amount: []string{
					"tit_vencidos_valor_corrigido",
					"valor_corrigido",
					"valor",
				},
				DueDate: []string{
					"vencto_real",
					"data_vencimento",
					"vencimento",
				},
			},
			Accounting: AccountingColumns{
				CodePrefix:        "codigo",
				DescriptionPrefix: "descricao",
				Balance:           []string{"saldo_atual", "saldo"},
			},
		},
		Agent: AgentConfig{
			Enabled: false,
			Model:   "gemini-2.0-flash",
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
