// internal/stages/insight-extractor/config.go
package insightextractor

import "time"

type Config struct {
	Concurrency    int
	ExtractTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Concurrency:    3,
		ExtractTimeout: 20 * time.Second,
	}
}
