// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	GenAI    GenAIConfig    `mapstructure:"genai"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Skills   SkillsConfig   `mapstructure:"skills"`
	Plan     PlanConfig     `mapstructure:"plan"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// GenAIConfig holds settings for the external text generation/search service.
type GenAIConfig struct {
	BaseURL          string  `mapstructure:"base_url"`
	APIKey           string  `mapstructure:"api_key"`
	Model            string  `mapstructure:"model"`
	MaxTokens        int     `mapstructure:"max_tokens"`
	Temperature      float64 `mapstructure:"temperature"`
	Timeout          int     `mapstructure:"timeout"` // milliseconds, per call
	ConcurrencyLimit int     `mapstructure:"concurrency_limit"`
	MaxRetries       int     `mapstructure:"max_retries"`
}

// PipelineConfig holds orchestrator and stage fan-out settings.
type PipelineConfig struct {
	MaxRoleLength        int `mapstructure:"max_role_length"`
	QueryCount           int `mapstructure:"query_count"`
	RetrieverConcurrency int `mapstructure:"retriever_concurrency"`
	ExtractorConcurrency int `mapstructure:"extractor_concurrency"`
	MaxNarratives        int `mapstructure:"max_narratives"`
	QueryTimeout         int `mapstructure:"query_timeout"`   // milliseconds, per retrieval query
	ExtractTimeout       int `mapstructure:"extract_timeout"` // milliseconds, per extraction call
	CacheTTL             int `mapstructure:"cache_ttl"`       // seconds, retrieval query cache
	EventBuffer          int `mapstructure:"event_buffer"`

	// Stage deadlines, milliseconds.
	StoriesTimeout  int `mapstructure:"stories_timeout"`
	InsightsTimeout int `mapstructure:"insights_timeout"`
	SkillsTimeout   int `mapstructure:"skills_timeout"`
	PlanTimeout     int `mapstructure:"plan_timeout"`
	MetricsTimeout  int `mapstructure:"metrics_timeout"`
}

// SkillsConfig holds gap-level classification thresholds.
type SkillsConfig struct {
	HighMentionThreshold int     `mapstructure:"high_mention_threshold"`
	LowMentionThreshold  int     `mapstructure:"low_mention_threshold"`
	ConfidenceThreshold  float64 `mapstructure:"confidence_threshold"`
	MaxSkills            int     `mapstructure:"max_skills"`
}

// PlanConfig holds milestone plan generation settings.
type PlanConfig struct {
	TopSkills        int `mapstructure:"top_skills"`
	MinMilestones    int `mapstructure:"min_milestones"`
	MaxMilestones    int `mapstructure:"max_milestones"`
	MinDurationWeeks int `mapstructure:"min_duration_weeks"`
	MaxDurationWeeks int `mapstructure:"max_duration_weeks"`
}

// ScoringConfig holds readiness scoring weights and signal settings.
type ScoringConfig struct {
	Weights       WeightsConfig `mapstructure:"weights"`
	NeutralScore  int           `mapstructure:"neutral_score"`
	GeoSignal     bool          `mapstructure:"geo_signal"`
	SignalTimeout int           `mapstructure:"signal_timeout"` // milliseconds
}

// WeightsConfig holds the five sub-score weights; they must sum to 1.
type WeightsConfig struct {
	MarketDemand     float64 `mapstructure:"market_demand"`
	SkillGapSeverity float64 `mapstructure:"skill_gap_severity"`
	EducationPaths   float64 `mapstructure:"education_paths"`
	IndustryTrend    float64 `mapstructure:"industry_trend"`
	Geography        float64 `mapstructure:"geography"`
}

// Sum returns the total of all five weights.
func (w WeightsConfig) Sum() float64 {
	return w.MarketDemand + w.SkillGapSeverity + w.EducationPaths + w.IndustryTrend + w.Geography
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
