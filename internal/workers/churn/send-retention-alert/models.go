// internal/workers/churn/send-retention-alert/models.go
package retentionalert

import "churn-workers/internal/churn"

type Input struct {
	PredictionID     string         `json:"predictionId"`
	ClientID         string         `json:"clientId"`
	ChurnProbability float64        `json:"churnProbability"`
	RiskLevel        string         `json:"riskLevel"`
	Reasons          []churn.Reason `json:"reasons"`
}

type Output struct {
	AlertSent bool     `json:"alertSent"`
	Status    string   `json:"status"`
	Channels  []string `json:"channels"`
	Failed    []string `json:"failedChannels,omitempty"`
	SentAt    string   `json:"sentAt,omitempty"` // ISO 8601
}

// Statuses
const (
	StatusSent     = "sent"
	StatusPartial  = "partial"
	StatusSkipped  = "skipped"
	StatusDisabled = "disabled"
)

// Channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)
