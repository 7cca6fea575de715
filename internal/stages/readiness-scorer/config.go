// internal/stages/readiness-scorer/config.go
package readinessscorer

import "time"

// Weights are the five sub-score weights; they must sum to 1 and are
// tunable configuration, not part of the scoring contract.
type Weights struct {
	MarketDemand     float64
	SkillGapSeverity float64
	EducationPaths   float64
	IndustryTrend    float64
	Geography        float64
}

func (w Weights) Sum() float64 {
	return w.MarketDemand + w.SkillGapSeverity + w.EducationPaths + w.IndustryTrend + w.Geography
}

type Config struct {
	Weights       Weights
	NeutralScore  int
	SignalTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Weights: Weights{
			MarketDemand:     0.25,
			SkillGapSeverity: 0.30,
			EducationPaths:   0.15,
			IndustryTrend:    0.20,
			Geography:        0.10,
		},
		NeutralScore:  50,
		SignalTimeout: 10 * time.Second,
	}
}
