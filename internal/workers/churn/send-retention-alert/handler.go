// internal/workers/churn/send-retention-alert/handler.go
package retentionalert

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"churn-workers/internal/churn"
	awsclient "churn-workers/internal/common/aws"
	"churn-workers/internal/common/errors"
	"churn-workers/internal/common/logger"
	"churn-workers/internal/common/metrics"
	"churn-workers/internal/models"
)

const (
	TaskType = "send-retention-alert"
)

type AlertStore interface {
	RecordAlert(ctx context.Context, alert *models.RetentionAlert) error
}

type Handler struct {
	config       *Config
	sesClient    awsclient.SESService
	snsClient    awsclient.SNSService
	alerts       AlertStore
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
	now          func() time.Time
}

func NewHandler(config *Config, sesClient awsclient.SESService, snsClient awsclient.SNSService, alerts AlertStore, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		sesClient:    sesClient,
		snsClient:    snsClient,
		alerts:       alerts,
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
	if churn.RiskLevel(input.RiskLevel) != churn.RiskHigh {
		h.logger.Debug("risk below alert tier", map[string]interface{}{
			"clientId":  input.ClientID,
			"riskLevel": input.RiskLevel,
		})
		return &Output{AlertSent: false, Status: StatusSkipped, Channels: []string{}}, nil
	}

	subject := fmt.Sprintf("Churn risk %s for client %s", input.RiskLevel, input.ClientID)
	body := h.renderBody(input)
	sentAt := h.now()

	channels := []string{}

	if h.config.EmailEnabled && h.config.ToEmail != "" {
		req := awsclient.TextEmail(h.config.FromEmail, h.config.ToEmail, subject, body)
		if _, err := h.sesClient.SendEmail(ctx, req); err != nil {
			return nil, errors.NewNotificationSendFailedError(ChannelEmail, err)
		}
		channels = append(channels, ChannelEmail)
		h.record(ctx, input, ChannelEmail, h.config.ToEmail, sentAt)
	}

	if h.config.SMSEnabled && h.config.TopicARN != "" {
		req := awsclient.TopicMessage(h.config.TopicARN, subject, h.renderShort(input))
		if _, err := h.snsClient.Publish(ctx, req); err != nil {
			// once a channel went out, a retry would send it again
			if len(channels) > 0 {
				return h.partial(input, channels, ChannelSMS, sentAt, err), nil
			}
			return nil, errors.NewNotificationSendFailedError(ChannelSMS, err)
		}
		channels = append(channels, ChannelSMS)
		h.record(ctx, input, ChannelSMS, h.config.TopicARN, sentAt)
	}

	if len(channels) == 0 {
		h.logger.Warn("no alert channel enabled", map[string]interface{}{"clientId": input.ClientID})
		return &Output{AlertSent: false, Status: StatusDisabled, Channels: channels}, nil
	}

	h.logger.Info("retention alert sent", map[string]interface{}{
		"clientId":     input.ClientID,
		"predictionId": input.PredictionID,
		"channels":     channels,
	})
	return &Output{
		AlertSent: true,
		Status:    StatusSent,
		Channels:  channels,
		SentAt:    sentAt.Format(time.RFC3339),
	}, nil
}

func (h *Handler) partial(input *Input, sent []string, failed string, sentAt time.Time, err error) *Output {
	h.logger.Warn("retention alert partially sent", map[string]interface{}{
		"clientId":     input.ClientID,
		"predictionId": input.PredictionID,
		"channels":     sent,
		"failed":       failed,
		"error":        err.Error(),
	})
	return &Output{
		AlertSent: true,
		Status:    StatusPartial,
		Channels:  sent,
		Failed:    []string{failed},
		SentAt:    sentAt.Format(time.RFC3339),
	}
}

// record stores the sent alert. A failure here is logged only: the message
// already left, and failing the job would send it again.
func (h *Handler) record(ctx context.Context, input *Input, channel, recipient string, sentAt time.Time) {
	if h.alerts == nil || input.PredictionID == "" {
		return
	}
	err := h.alerts.RecordAlert(ctx, &models.RetentionAlert{
		PredictionID: input.PredictionID,
		ClientID:     input.ClientID,
		Channel:      channel,
		Recipient:    recipient,
		SentAt:       sentAt,
	})
	if err != nil {
		h.logger.Warn("failed to record retention alert", map[string]interface{}{
			"predictionId": input.PredictionID,
			"channel":      channel,
			"error":        err.Error(),
		})
	}
}

func (h *Handler) renderBody(input *Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Client %s is in the %s churn risk tier.\n", input.ClientID, input.RiskLevel)
	fmt.Fprintf(&b, "Churn probability: %.1f%%\n", input.ChurnProbability*100)

	reasons := h.topReasons(input.Reasons)
	if len(reasons) > 0 {
		b.WriteString("\nMain reasons:\n")
		for _, r := range reasons {
			fmt.Fprintf(&b, "- %s = %s: %s\n", r.Feature, r.Value, r.Impact)
		}
	}
	if input.PredictionID != "" {
		fmt.Fprintf(&b, "\nPrediction: %s\n", input.PredictionID)
	}
	return b.String()
}

func (h *Handler) renderShort(input *Input) string {
	msg := fmt.Sprintf("Client %s: churn %.0f%% (%s)", input.ClientID, input.ChurnProbability*100, input.RiskLevel)
	if reasons := h.topReasons(input.Reasons); len(reasons) > 0 {
		msg += ", " + reasons[0].Impact
	}
	return msg
}

func (h *Handler) topReasons(reasons []churn.Reason) []churn.Reason {
	if h.config.MaxReasons > 0 && len(reasons) > h.config.MaxReasons {
		return reasons[:h.config.MaxReasons]
	}
	return reasons
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
