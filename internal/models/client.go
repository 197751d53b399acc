// internal/models/client.go
package models

import "churn-workers/internal/churn"

// ClientFeatures is the telco feature row the churn model was trained on.
// JSON names match the training-time column names exactly.
type ClientFeatures struct {
	Gender           string  `json:"gender"`
	SeniorCitizen    int     `json:"SeniorCitizen"`
	Partner          string  `json:"Partner"`
	Dependents       string  `json:"Dependents"`
	Tenure           int     `json:"tenure"`
	PhoneService     string  `json:"PhoneService"`
	MultipleLines    string  `json:"MultipleLines"`
	InternetService  string  `json:"InternetService"`
	OnlineSecurity   string  `json:"OnlineSecurity"`
	OnlineBackup     string  `json:"OnlineBackup"`
	DeviceProtection string  `json:"DeviceProtection"`
	TechSupport      string  `json:"TechSupport"`
	StreamingTV      string  `json:"StreamingTV"`
	StreamingMovies  string  `json:"StreamingMovies"`
	Contract         string  `json:"Contract"`
	PaperlessBilling string  `json:"PaperlessBilling"`
	PaymentMethod    string  `json:"PaymentMethod"`
	MonthlyCharges   float64 `json:"MonthlyCharges"`
	TotalCharges     float64 `json:"TotalCharges"`
}

// FeatureColumns lists the model columns in training order.
var FeatureColumns = []string{
	"gender", "SeniorCitizen", "Partner", "Dependents", "tenure",
	"PhoneService", "MultipleLines", "InternetService", "OnlineSecurity",
	"OnlineBackup", "DeviceProtection", "TechSupport", "StreamingTV",
	"StreamingMovies", "Contract", "PaperlessBilling", "PaymentMethod",
	"MonthlyCharges", "TotalCharges",
}

// ToRecord converts the row into the engine's record form.
func (c ClientFeatures) ToRecord() churn.Record {
	return churn.Record{
		"gender":           c.Gender,
		"SeniorCitizen":    c.SeniorCitizen,
		"Partner":          c.Partner,
		"Dependents":       c.Dependents,
		"tenure":           c.Tenure,
		"PhoneService":     c.PhoneService,
		"MultipleLines":    c.MultipleLines,
		"InternetService":  c.InternetService,
		"OnlineSecurity":   c.OnlineSecurity,
		"OnlineBackup":     c.OnlineBackup,
		"DeviceProtection": c.DeviceProtection,
		"TechSupport":      c.TechSupport,
		"StreamingTV":      c.StreamingTV,
		"StreamingMovies":  c.StreamingMovies,
		"Contract":         c.Contract,
		"PaperlessBilling": c.PaperlessBilling,
		"PaymentMethod":    c.PaymentMethod,
		"MonthlyCharges":   c.MonthlyCharges,
		"TotalCharges":     c.TotalCharges,
	}
}

// Client is a row of the clients table.
type Client struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	ClientFeatures
}
