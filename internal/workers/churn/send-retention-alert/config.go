// internal/workers/churn/send-retention-alert/config.go
package retentionalert

import (
	"time"

	"churn-workers/internal/common/config"
)

type Config struct {
	EmailEnabled bool
	FromEmail    string
	ToEmail      string
	SMSEnabled   bool
	TopicARN     string
	// MaxReasons caps the reasons quoted in a message.
	MaxReasons int
	Timeout    time.Duration
}

func LoadConfig(n config.NotificationConfig) *Config {
	return &Config{
		EmailEnabled: n.Email.Enabled,
		FromEmail:    n.Email.From,
		ToEmail:      n.Email.To,
		SMSEnabled:   n.SMS.Enabled,
		TopicARN:     n.SMS.TopicARN,
		MaxReasons:   3,
		Timeout:      30 * time.Second,
	}
}
