// internal/stages/source-retriever/config.go
package sourceretriever

import "time"

type Config struct {
	QueryCount    int
	Concurrency   int
	MaxNarratives int
	QueryTimeout  time.Duration
	CacheTTL      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		QueryCount:    5,
		Concurrency:   3,
		MaxNarratives: 25,
		QueryTimeout:  15 * time.Second,
		CacheTTL:      6 * time.Hour,
	}
}
