// internal/workers/churn/index-churn-prediction/handler.go
package indexprediction

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"churn-workers/internal/churn"
	"churn-workers/internal/common/database"
	"churn-workers/internal/common/errors"
	"churn-workers/internal/common/logger"
	"churn-workers/internal/common/metrics"
)

const (
	TaskType = "index-churn-prediction"
)

type Indexer interface {
	IndexDocument(ctx context.Context, index, id string, doc interface{}) (*database.IndexResult, error)
}

type Handler struct {
	config       *Config
	indexer      Indexer
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
	now          func() time.Time
}

func NewHandler(config *Config, indexer Indexer, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		indexer:      indexer,
		errorHandler: errors.NewErrorHandler(l),
		logger:       l,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, errors.NewInputParsingError(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	docID := documentID(input)

	res, err := h.indexer.IndexDocument(ctx, h.config.Index, docID, buildDocument(docID, input, h.now()))
	if err != nil {
		return nil, errors.NewIndexingFailedError(h.config.Index, err)
	}

	h.logger.Info("prediction indexed", map[string]interface{}{
		"index":      h.config.Index,
		"documentId": res.ID,
		"result":     res.Result,
		"riskLevel":  input.RiskLevel,
	})

	return &Output{
		Indexed:    true,
		DocumentID: res.ID,
		Index:      h.config.Index,
	}, nil
}

// documentNamespace scopes the name-based ids of unstored predictions.
var documentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("churn-workers/churn-predictions"))

// documentID is the stored predictionId, or for predictions made from inline
// features a UUIDv5 of the prediction payload, so a retried job overwrites
// the same document.
func documentID(input *Input) string {
	if input.PredictionID != "" {
		return input.PredictionID
	}
	payload, _ := json.Marshal(struct {
		ClientID         string         `json:"clientId"`
		ChurnProbability float64        `json:"churnProbability"`
		RiskLevel        string         `json:"riskLevel"`
		Reasons          []churn.Reason `json:"reasons"`
		ModelVersion     string         `json:"modelVersion"`
	}{input.ClientID, input.ChurnProbability, input.RiskLevel, input.Reasons, input.ModelVersion})
	return uuid.NewSHA1(documentNamespace, payload).String()
}

func validateInput(input *Input) error {
	switch churn.RiskLevel(input.RiskLevel) {
	case churn.RiskLow, churn.RiskMedium, churn.RiskHigh:
	default:
		return errors.NewInputValidationError("riskLevel must be one of Faible, Moyen, Élevé")
	}
	if input.ChurnProbability < 0 || input.ChurnProbability > 1 {
		return errors.NewInputValidationError("churnProbability must be within [0, 1]")
	}
	return nil
}

func buildDocument(docID string, input *Input, indexedAt time.Time) *Document {
	doc := &Document{
		PredictionID:     docID,
		ClientID:         input.ClientID,
		ChurnProbability: input.ChurnProbability,
		RiskLevel:        input.RiskLevel,
		Reasons:          input.Reasons,
		ModelVersion:     input.ModelVersion,
		IndexedAt:        indexedAt.Format(time.RFC3339),
	}
	if doc.Reasons == nil {
		doc.Reasons = []churn.Reason{}
	}
	if len(input.Reasons) > 0 {
		doc.TopReason = input.Reasons[0].Feature
	}
	return doc
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
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
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
