// internal/workers/churn/index-churn-prediction/config.go
package indexprediction

import "time"

type Config struct {
	Index   string
	Timeout time.Duration
}

func LoadConfig(index string) *Config {
	if index == "" {
		index = "churn-predictions"
	}
	return &Config{
		Index:   index,
		Timeout: 10 * time.Second,
	}
}
