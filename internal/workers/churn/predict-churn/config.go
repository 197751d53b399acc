// internal/workers/churn/predict-churn/config.go
package predictchurn

import "time"

type Config struct {
	// PersistPredictions stores every prediction made for a known client.
	PersistPredictions bool
	Timeout            time.Duration
}

func LoadConfig() *Config {
	return &Config{
		PersistPredictions: true,
		Timeout:            30 * time.Second,
	}
}
