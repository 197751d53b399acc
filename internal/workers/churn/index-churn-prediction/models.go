// internal/workers/churn/index-churn-prediction/models.go
package indexprediction

import "churn-workers/internal/churn"

// Input is the output of predict-churn as it sits in the process variables.
type Input struct {
	PredictionID     string         `json:"predictionId"`
	ClientID         string         `json:"clientId"`
	ChurnProbability float64        `json:"churnProbability"`
	RiskLevel        string         `json:"riskLevel"`
	Reasons          []churn.Reason `json:"reasons"`
	ModelVersion     string         `json:"modelVersion"`
}

type Output struct {
	Indexed    bool   `json:"indexed"`
	DocumentID string `json:"documentId"`
	Index      string `json:"index"`
}

// Document is the search-side shape of a prediction.
type Document struct {
	PredictionID     string         `json:"predictionId"`
	ClientID         string         `json:"clientId,omitempty"`
	ChurnProbability float64        `json:"churnProbability"`
	RiskLevel        string         `json:"riskLevel"`
	TopReason        string         `json:"topReason,omitempty"`
	Reasons          []churn.Reason `json:"reasons"`
	ModelVersion     string         `json:"modelVersion,omitempty"`
	IndexedAt        string         `json:"indexedAt"`
}
