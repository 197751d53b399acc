// internal/models/prediction.go
package models

import (
	"time"

	"churn-workers/internal/churn"
)

// PredictionRecord is a row of the churn_predictions table.
type PredictionRecord struct {
	ID           string           `json:"id"`
	ClientID     string           `json:"clientId"`
	Prediction   churn.Prediction `json:"prediction"`
	ModelVersion string           `json:"modelVersion"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// RetentionAlert is a row of the retention_alerts table.
type RetentionAlert struct {
	ID           string    `json:"id"`
	PredictionID string    `json:"predictionId"`
	ClientID     string    `json:"clientId"`
	Channel      string    `json:"channel"`
	Recipient    string    `json:"recipient"`
	SentAt       time.Time `json:"sentAt"`
}
