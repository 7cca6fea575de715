// internal/stages/skill-gap-analyzer/config.go
package skillgapanalyzer

type Config struct {
	HighMentionThreshold int
	LowMentionThreshold  int
	ConfidenceThreshold  float64
	MaxSkills            int
}

func LoadConfig() *Config {
	return &Config{
		HighMentionThreshold: 5,
		LowMentionThreshold:  2,
		ConfidenceThreshold:  0.6,
		MaxSkills:            15,
	}
}
