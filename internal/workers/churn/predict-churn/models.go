// internal/workers/churn/predict-churn/models.go
package predictchurn

import "churn-workers/internal/churn"

// Input names the client to score. Features, when present, are used as-is
// instead of the stored client row.
type Input struct {
	ClientID string                 `json:"clientId,omitempty"`
	Features map[string]interface{} `json:"features,omitempty"`
}

type Output struct {
	PredictionID     string         `json:"predictionId,omitempty"`
	ClientID         string         `json:"clientId,omitempty"`
	ChurnProbability float64        `json:"churnProbability"`
	RiskLevel        string         `json:"riskLevel"`
	Reasons          []churn.Reason `json:"reasons"`
	ModelVersion     string         `json:"modelVersion,omitempty"`
}
