// internal/workers/churn/predict-churn/handler.go
package predictchurn

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"churn-workers/internal/churn"
	"churn-workers/internal/common/errors"
	"churn-workers/internal/common/logger"
	"churn-workers/internal/common/metrics"
	"churn-workers/internal/common/observability"
	"churn-workers/internal/common/validation"
	"churn-workers/internal/models"
)

const (
	TaskType = "predict-churn"
)

// Predictor scores and explains one record.
type Predictor interface {
	Predict(record churn.Record) (*churn.Prediction, error)
	ModelVersion() string
}

type ClientStore interface {
	GetClient(ctx context.Context, clientID string) (*models.Client, error)
}

type PredictionStore interface {
	Save(ctx context.Context, clientID, modelVersion string, pred *churn.Prediction) (*models.PredictionRecord, error)
}

type Handler struct {
	config       *Config
	engine       Predictor
	clients      ClientStore
	predictions  PredictionStore
	schema       *validation.Schema
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, engine Predictor, clients ClientStore, predictions PredictionStore, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		engine:       engine,
		clients:      clients,
		predictions:  predictions,
		schema:       validation.MustCompile(models.ClientFeaturesSchema),
		obs:          obs,
		errorHandler: errors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})
	start := time.Now()

	input, err := parseInput(job.Variables)
	if err != nil {
		h.fail(client, job, err, start)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(client, job, err, start)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.obs.RecordJobProcessed(context.Background(), TaskType, "success")
	h.obs.RecordJobDuration(context.Background(), TaskType, time.Since(start), "success")
	h.completeJob(client, job, output)
}

// parseInput keeps numbers as json.Number so feature values are reported
// exactly as the process sent them.
func parseInput(variables string) (*Input, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(variables)))
	dec.UseNumber()
	var input Input
	if err := dec.Decode(&input); err != nil {
		return nil, errors.NewInputParsingError(err)
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	record, err := h.resolveRecord(ctx, input)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	prediction, err := h.engine.Predict(record)
	metrics.ChurnPredictionDuration.WithLabelValues(metrics.SourceWorker).Observe(time.Since(start).Seconds())
	if err != nil {
		stdErr := errors.FromChurnError(err)
		if stdErr.Code == errors.ErrCodeInputAlignmentFailed {
			metrics.ChurnAlignmentFailures.WithLabelValues(metrics.SourceWorker).Inc()
		}
		return nil, stdErr
	}
	metrics.ChurnPredictions.WithLabelValues(string(prediction.RiskLevel), metrics.SourceWorker).Inc()
	h.obs.RecordRiskLevel(ctx, string(prediction.RiskLevel))

	output := &Output{
		ClientID:         input.ClientID,
		ChurnProbability: prediction.ChurnProbability,
		RiskLevel:        string(prediction.RiskLevel),
		Reasons:          prediction.Reasons,
		ModelVersion:     h.engine.ModelVersion(),
	}

	if input.ClientID != "" && h.config.PersistPredictions && h.predictions != nil {
		rec, err := h.predictions.Save(ctx, input.ClientID, output.ModelVersion, prediction)
		if err != nil {
			return nil, err
		}
		output.PredictionID = rec.ID
	}

	h.logger.Info("churn predicted", map[string]interface{}{
		"clientId":     input.ClientID,
		"predictionId": output.PredictionID,
		"riskLevel":    output.RiskLevel,
		"probability":  output.ChurnProbability,
	})
	return output, nil
}

func (h *Handler) resolveRecord(ctx context.Context, input *Input) (churn.Record, error) {
	if input.Features != nil {
		result, err := h.schema.Validate(input.Features)
		if err != nil {
			return nil, errors.NewInputParsingError(err)
		}
		if !result.Valid {
			return nil, errors.NewInputValidationError(result.Summary())
		}
		return churn.Record(input.Features), nil
	}

	if input.ClientID == "" {
		return nil, errors.NewInputValidationError("either clientId or features is required")
	}
	c, err := h.clients.GetClient(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}
	return c.ToRecord(), nil
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error, start time.Time) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.obs.RecordJobProcessed(context.Background(), TaskType, "error")
	h.obs.RecordJobDuration(context.Background(), TaskType, time.Since(start), "error")
	h.errorHandler.HandleJobError(context.Background(), client, job, stdErr)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
