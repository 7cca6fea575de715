// internal/stages/plan-generator/config.go
package plangenerator

import "time"

type Config struct {
	TopSkills        int
	MinMilestones    int
	MaxMilestones    int
	MinDurationWeeks int
	MaxDurationWeeks int
	Timeout          time.Duration
}

func LoadConfig() *Config {
	return &Config{
		TopSkills:        5,
		MinMilestones:    3,
		MaxMilestones:    5,
		MinDurationWeeks: 2,
		MaxDurationWeeks: 6,
		Timeout:          30 * time.Second,
	}
}
