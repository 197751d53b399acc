// internal/workers/churn/predict-churn/handler_test.go
package predictchurn

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churn-workers/internal/churn"
	"churn-workers/internal/common/errors"
	"churn-workers/internal/common/logger"
	"churn-workers/internal/models"
)

// ==========================
// Mock Implementations
// ==========================

type MockClientStore struct {
	GetClientFunc func(ctx context.Context, clientID string) (*models.Client, error)
	calls         int
}

func (m *MockClientStore) GetClient(ctx context.Context, clientID string) (*models.Client, error) {
	m.calls++
	return m.GetClientFunc(ctx, clientID)
}

type MockPredictionStore struct {
	SaveFunc func(ctx context.Context, clientID, modelVersion string, pred *churn.Prediction) (*models.PredictionRecord, error)
	calls    int
}

func (m *MockPredictionStore) Save(ctx context.Context, clientID, modelVersion string, pred *churn.Prediction) (*models.PredictionRecord, error) {
	m.calls++
	return m.SaveFunc(ctx, clientID, modelVersion, pred)
}

// ==========================
// Test Helper Functions
// ==========================

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl.WithFields(map[string]interface{}{"error": err})
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func createTestEngine(t *testing.T) *churn.Engine {
	t.Helper()
	model, err := churn.NewModel(churn.Artifact{
		Version:            "2024-telco-1",
		Features:           []string{"Contract", "tenure", "MonthlyCharges", "gender", "Partner"},
		FeatureImportances: []float64{0.30, 0.25, 0.20, 0.05, 0.01},
		Intercept:          -0.5,
		Numeric: map[string]churn.NumericTerm{
			"tenure":         {Mean: 32, Scale: 24, Weight: -0.9},
			"MonthlyCharges": {Mean: 65, Scale: 30, Weight: 0.6},
		},
		Categorical: map[string]map[string]float64{
			"Contract": {"Month-to-month": 1.2, "One year": -0.4, "Two year": -1.5},
		},
	})
	require.NoError(t, err)
	return churn.NewEngine(model)
}

func createTestClient() *models.Client {
	return &models.Client{
		ID:    "client-001",
		Name:  "Jean Martin",
		Email: "jean.martin@example.com",
		ClientFeatures: models.ClientFeatures{
			Gender:          "Male",
			Partner:         "No",
			Dependents:      "No",
			Tenure:          3,
			PhoneService:    "Yes",
			InternetService: "Fiber optic",
			Contract:        "Month-to-month",
			PaymentMethod:   "Electronic check",
			MonthlyCharges:  99.5,
			TotalCharges:    298.5,
		},
	}
}

func loyalFeatures() map[string]interface{} {
	return map[string]interface{}{
		"Contract":       "Two year",
		"tenure":         json.Number("60"),
		"MonthlyCharges": json.Number("25.5"),
		"gender":         "Female",
		"Partner":        "Yes",
	}
}

func createHandler(t *testing.T, clients ClientStore, predictions PredictionStore) *Handler {
	return NewHandler(&Config{PersistPredictions: true, Timeout: 5 * time.Second},
		createTestEngine(t), clients, predictions, nil, &testLogger{t: t})
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	activatedJob := &pb.ActivatedJob{
		Key:                      key,
		Type:                     TaskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "churn-review",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_PredictChurn",
		ElementInstanceKey:       1,
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  3,
		Variables:                string(variablesJSON),
	}

	return entities.Job{ActivatedJob: activatedJob}
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) *errors.StandardError {
	t.Helper()
	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr), "expected StandardError, got %v", err)
	assert.Equal(t, code, stdErr.Code)
	return stdErr
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_FromFeatures(t *testing.T) {
	clients := &MockClientStore{}
	predictions := &MockPredictionStore{}
	h := createHandler(t, clients, predictions)

	output, err := h.Execute(context.Background(), &Input{Features: loyalFeatures()})
	require.NoError(t, err)

	assert.Equal(t, string(churn.RiskLow), output.RiskLevel)
	assert.Less(t, output.ChurnProbability, 0.3)
	assert.Equal(t, "2024-telco-1", output.ModelVersion)
	assert.Empty(t, output.PredictionID)
	require.Len(t, output.Reasons, 4)
	assert.Equal(t, "Contract", output.Reasons[0].Feature)
	assert.Equal(t, "60", output.Reasons[1].Value)

	assert.Equal(t, 0, clients.calls)
	assert.Equal(t, 0, predictions.calls)
}

func TestHandler_Execute_FromClientStore(t *testing.T) {
	clients := &MockClientStore{
		GetClientFunc: func(ctx context.Context, clientID string) (*models.Client, error) {
			assert.Equal(t, "client-001", clientID)
			return createTestClient(), nil
		},
	}
	predictions := &MockPredictionStore{
		SaveFunc: func(ctx context.Context, clientID, modelVersion string, pred *churn.Prediction) (*models.PredictionRecord, error) {
			assert.Equal(t, "client-001", clientID)
			assert.Equal(t, "2024-telco-1", modelVersion)
			assert.Equal(t, churn.RiskHigh, pred.RiskLevel)
			return &models.PredictionRecord{ID: "pred-123", ClientID: clientID, Prediction: *pred}, nil
		},
	}
	h := createHandler(t, clients, predictions)

	output, err := h.Execute(context.Background(), &Input{ClientID: "client-001"})
	require.NoError(t, err)

	assert.Equal(t, "pred-123", output.PredictionID)
	assert.Equal(t, "client-001", output.ClientID)
	assert.Equal(t, string(churn.RiskHigh), output.RiskLevel)
	assert.Equal(t, "monthly contract indicates low loyalty", output.Reasons[0].Impact)
	assert.Equal(t, 1, clients.calls)
	assert.Equal(t, 1, predictions.calls)
}

func TestHandler_Execute_FeaturesOverrideStore(t *testing.T) {
	clients := &MockClientStore{}
	predictions := &MockPredictionStore{
		SaveFunc: func(ctx context.Context, clientID, modelVersion string, pred *churn.Prediction) (*models.PredictionRecord, error) {
			return &models.PredictionRecord{ID: "pred-9"}, nil
		},
	}
	h := createHandler(t, clients, predictions)

	output, err := h.Execute(context.Background(), &Input{ClientID: "client-001", Features: loyalFeatures()})
	require.NoError(t, err)

	assert.Equal(t, "pred-9", output.PredictionID)
	assert.Equal(t, 0, clients.calls)
}

func TestHandler_Execute_PersistenceDisabled(t *testing.T) {
	clients := &MockClientStore{
		GetClientFunc: func(ctx context.Context, clientID string) (*models.Client, error) {
			return createTestClient(), nil
		},
	}
	predictions := &MockPredictionStore{}
	h := NewHandler(&Config{Timeout: time.Second}, createTestEngine(t), clients, predictions, nil, &testLogger{t: t})

	output, err := h.Execute(context.Background(), &Input{ClientID: "client-001"})
	require.NoError(t, err)
	assert.Empty(t, output.PredictionID)
	assert.Equal(t, 0, predictions.calls)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_MissingColumns(t *testing.T) {
	predictions := &MockPredictionStore{}
	h := createHandler(t, &MockClientStore{}, predictions)

	features := loyalFeatures()
	delete(features, "tenure")
	delete(features, "gender")

	output, err := h.Execute(context.Background(), &Input{ClientID: "client-001", Features: features})
	assert.Nil(t, output)

	stdErr := requireCode(t, err, errors.ErrCodeInputAlignmentFailed)
	assert.False(t, stdErr.Retryable)
	assert.Equal(t, []string{"gender", "tenure"}, stdErr.Metadata["missingFeatures"])
	assert.Equal(t, 0, predictions.calls)
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
	}{
		{"empty input", &Input{}},
		{"bad enum", &Input{Features: map[string]interface{}{"Contract": "Weekly"}}},
		{"bad type", &Input{Features: map[string]interface{}{"SeniorCitizen": "maybe"}}},
	}

	h := createHandler(t, &MockClientStore{}, &MockPredictionStore{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Execute(context.Background(), tt.input)
			requireCode(t, err, errors.ErrCodeInputValidationFailed)
		})
	}
}

func TestHandler_Execute_StoreErrors(t *testing.T) {
	t.Run("unknown client", func(t *testing.T) {
		clients := &MockClientStore{
			GetClientFunc: func(ctx context.Context, clientID string) (*models.Client, error) {
				return nil, errors.NewClientNotFoundError(clientID)
			},
		}
		h := createHandler(t, clients, &MockPredictionStore{})

		_, err := h.Execute(context.Background(), &Input{ClientID: "ghost"})
		requireCode(t, err, errors.ErrCodeClientNotFound)
	})

	t.Run("persist failure is retryable", func(t *testing.T) {
		predictions := &MockPredictionStore{
			SaveFunc: func(ctx context.Context, clientID, modelVersion string, pred *churn.Prediction) (*models.PredictionRecord, error) {
				return nil, errors.NewPredictionPersistFailedError(stderrors.New("connection reset"))
			},
		}
		h := createHandler(t, &MockClientStore{}, predictions)

		_, err := h.Execute(context.Background(), &Input{ClientID: "client-001", Features: loyalFeatures()})
		stdErr := requireCode(t, err, errors.ErrCodePredictionPersistFailed)
		assert.True(t, stdErr.Retryable)
	})
}

// ==========================
// Input Parsing Tests
// ==========================

func TestParseInput(t *testing.T) {
	job := createMockJob(1, map[string]interface{}{
		"clientId": "client-001",
		"features": map[string]interface{}{"tenure": 12, "Contract": "One year"},
		"otherVar": true,
	})

	input, err := parseInput(job.Variables)
	require.NoError(t, err)
	assert.Equal(t, "client-001", input.ClientID)
	assert.Equal(t, json.Number("12"), input.Features["tenure"])
	assert.Equal(t, "One year", input.Features["Contract"])

	_, err = parseInput(`{"clientId": 42}`)
	requireCode(t, err, errors.ErrCodeInputParsingFailed)
}
