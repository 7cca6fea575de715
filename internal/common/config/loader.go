// internal/common/config/loader.go
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like GENAI_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored if not found.
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env from the locations the binary may be launched from.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig fills secrets from the environment when the YAML left
// them empty after expansion.
func overrideEmptyConfig(cfg *Config) {
	if cfg.GenAI.APIKey == "" {
		if val := os.Getenv("GENAI_API_KEY"); val != "" {
			cfg.GenAI.APIKey = val
		}
	}
	if cfg.GenAI.BaseURL == "" {
		if val := os.Getenv("GENAI_BASE_URL"); val != "" {
			cfg.GenAI.BaseURL = val
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	// Text service defaults
	if cfg.GenAI.Model == "" {
		cfg.GenAI.Model = "default"
	}
	if cfg.GenAI.MaxTokens == 0 {
		cfg.GenAI.MaxTokens = 2000
	}
	if cfg.GenAI.Temperature == 0 {
		cfg.GenAI.Temperature = 0.7
	}
	if cfg.GenAI.Timeout == 0 {
		cfg.GenAI.Timeout = 60000
	}
	if cfg.GenAI.ConcurrencyLimit == 0 {
		cfg.GenAI.ConcurrencyLimit = 8
	}
	if cfg.GenAI.MaxRetries == 0 {
		cfg.GenAI.MaxRetries = 2
	}

	// Pipeline defaults
	if cfg.Pipeline.MaxRoleLength == 0 {
		cfg.Pipeline.MaxRoleLength = 120
	}
	if cfg.Pipeline.QueryCount == 0 {
		cfg.Pipeline.QueryCount = 5
	}
	if cfg.Pipeline.RetrieverConcurrency == 0 {
		cfg.Pipeline.RetrieverConcurrency = 3
	}
	if cfg.Pipeline.ExtractorConcurrency == 0 {
		cfg.Pipeline.ExtractorConcurrency = 3
	}
	if cfg.Pipeline.MaxNarratives == 0 {
		cfg.Pipeline.MaxNarratives = 25
	}
	if cfg.Pipeline.QueryTimeout == 0 {
		cfg.Pipeline.QueryTimeout = 20000
	}
	if cfg.Pipeline.ExtractTimeout == 0 {
		cfg.Pipeline.ExtractTimeout = 20000
	}
	if cfg.Pipeline.CacheTTL == 0 {
		cfg.Pipeline.CacheTTL = 6 * 3600
	}
	if cfg.Pipeline.EventBuffer == 0 {
		cfg.Pipeline.EventBuffer = 16
	}
	if cfg.Pipeline.StoriesTimeout == 0 {
		cfg.Pipeline.StoriesTimeout = 60000
	}
	if cfg.Pipeline.InsightsTimeout == 0 {
		cfg.Pipeline.InsightsTimeout = 60000
	}
	if cfg.Pipeline.SkillsTimeout == 0 {
		cfg.Pipeline.SkillsTimeout = 10000
	}
	if cfg.Pipeline.PlanTimeout == 0 {
		cfg.Pipeline.PlanTimeout = 45000
	}
	if cfg.Pipeline.MetricsTimeout == 0 {
		cfg.Pipeline.MetricsTimeout = 30000
	}

	// Gap classification defaults
	if cfg.Skills.HighMentionThreshold == 0 {
		cfg.Skills.HighMentionThreshold = 5
	}
	if cfg.Skills.LowMentionThreshold == 0 {
		cfg.Skills.LowMentionThreshold = 2
	}
	if cfg.Skills.ConfidenceThreshold == 0 {
		cfg.Skills.ConfidenceThreshold = 0.6
	}
	if cfg.Skills.MaxSkills == 0 {
		cfg.Skills.MaxSkills = 15
	}

	// Plan defaults
	if cfg.Plan.TopSkills == 0 {
		cfg.Plan.TopSkills = 5
	}
	if cfg.Plan.MinMilestones == 0 {
		cfg.Plan.MinMilestones = 3
	}
	if cfg.Plan.MaxMilestones == 0 {
		cfg.Plan.MaxMilestones = 5
	}
	if cfg.Plan.MinDurationWeeks == 0 {
		cfg.Plan.MinDurationWeeks = 2
	}
	if cfg.Plan.MaxDurationWeeks == 0 {
		cfg.Plan.MaxDurationWeeks = 6
	}

	// Scoring defaults
	if cfg.Scoring.Weights.Sum() == 0 {
		cfg.Scoring.Weights = WeightsConfig{
			MarketDemand:     0.25,
			SkillGapSeverity: 0.30,
			EducationPaths:   0.15,
			IndustryTrend:    0.20,
			Geography:        0.10,
		}
	}
	if cfg.Scoring.NeutralScore == 0 {
		cfg.Scoring.NeutralScore = 50
	}
	if cfg.Scoring.SignalTimeout == 0 {
		cfg.Scoring.SignalTimeout = 10000
	}

	// Database defaults
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.GenAI.BaseURL == "" {
		return fmt.Errorf("genai.base_url is required")
	}

	if math.Abs(cfg.Scoring.Weights.Sum()-1.0) > 0.001 {
		return fmt.Errorf("scoring.weights must sum to 1.0, got %.4f", cfg.Scoring.Weights.Sum())
	}

	if cfg.Skills.LowMentionThreshold > cfg.Skills.HighMentionThreshold {
		return fmt.Errorf("skills.low_mention_threshold (%d) must not exceed skills.high_mention_threshold (%d)",
			cfg.Skills.LowMentionThreshold, cfg.Skills.HighMentionThreshold)
	}

	if cfg.Plan.MinDurationWeeks < 1 || cfg.Plan.MaxDurationWeeks > 12 ||
		cfg.Plan.MinDurationWeeks > cfg.Plan.MaxDurationWeeks {
		return fmt.Errorf("plan duration bounds out of range: [%d, %d]",
			cfg.Plan.MinDurationWeeks, cfg.Plan.MaxDurationWeeks)
	}

	if cfg.Plan.MinMilestones > cfg.Plan.MaxMilestones {
		return fmt.Errorf("plan.min_milestones (%d) must not exceed plan.max_milestones (%d)",
			cfg.Plan.MinMilestones, cfg.Plan.MaxMilestones)
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetTTL converts seconds from config to time.Duration
func GetTTL(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
