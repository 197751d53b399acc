// internal/repository/predictions.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"churn-workers/internal/churn"
	"churn-workers/internal/common/database"
	"churn-workers/internal/common/errors"
	"churn-workers/internal/common/logger"
	"churn-workers/internal/models"
)

const predictionCachePrefix = "churn:prediction:"

// PredictionRepository stores explained predictions and keeps the latest one
// per client in Redis.
type PredictionRepository struct {
	db     *sql.DB
	cache  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
	now    func() time.Time
}

func NewPredictionRepository(db *sql.DB, cache *database.RedisClient, ttl time.Duration, log logger.Logger) *PredictionRepository {
	return &PredictionRepository{
		db:     db,
		cache:  cache,
		ttl:    ttl,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Save inserts a prediction and writes it through to the cache.
func (r *PredictionRepository) Save(ctx context.Context, clientID, modelVersion string, pred *churn.Prediction) (*models.PredictionRecord, error) {
	payload, err := json.Marshal(pred)
	if err != nil {
		return nil, errors.NewPredictionPersistFailedError(fmt.Errorf("marshal prediction: %w", err))
	}

	rec := &models.PredictionRecord{
		ID:           uuid.New().String(),
		ClientID:     clientID,
		Prediction:   *pred,
		ModelVersion: modelVersion,
		CreatedAt:    r.now(),
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO churn_predictions (id, client_id, prediction, model_version, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.ClientID, payload, rec.ModelVersion, rec.CreatedAt,
	)
	if err != nil {
		return nil, errors.NewPredictionPersistFailedError(err)
	}

	if err := r.cache.SetJSON(ctx, predictionCachePrefix+clientID, rec, r.ttl); err != nil {
		r.logger.Warn("prediction cache write failed", map[string]interface{}{"clientId": clientID, "error": err.Error()})
	}
	return rec, nil
}

// Latest returns the most recent prediction for a client, or CLIENT_NOT_FOUND
// when none was ever stored.
func (r *PredictionRepository) Latest(ctx context.Context, clientID string) (*models.PredictionRecord, error) {
	var cached models.PredictionRecord
	if err := r.cache.GetJSON(ctx, predictionCachePrefix+clientID, &cached); err == nil {
		return &cached, nil
	}

	var (
		rec     models.PredictionRecord
		payload []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, client_id, prediction, model_version, created_at
		FROM churn_predictions WHERE client_id = $1
		ORDER BY created_at DESC LIMIT 1`, clientID,
	).Scan(&rec.ID, &rec.ClientID, &payload, &rec.ModelVersion, &rec.CreatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewClientNotFoundError(clientID)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("select latest prediction", err)
	}
	if err := json.Unmarshal(payload, &rec.Prediction); err != nil {
		return nil, errors.NewQueryExecutionFailedError("decode prediction", err)
	}
	return &rec, nil
}

// RecordAlert stores a sent retention alert.
func (r *PredictionRepository) RecordAlert(ctx context.Context, alert *models.RetentionAlert) error {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.SentAt.IsZero() {
		alert.SentAt = r.now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO retention_alerts (id, prediction_id, client_id, channel, recipient, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		alert.ID, alert.PredictionID, alert.ClientID, alert.Channel, alert.Recipient, alert.SentAt,
	)
	if err != nil {
		return errors.NewQueryExecutionFailedError("insert retention alert", err)
	}
	return nil
}
