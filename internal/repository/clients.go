// internal/repository/clients.go
package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"churn-workers/internal/common/database"
	"churn-workers/internal/common/errors"
	"churn-workers/internal/common/logger"
	"churn-workers/internal/models"
)

const clientCachePrefix = "client:features:"

const selectClient = `
	SELECT id, name, email, phone,
	       gender, senior_citizen, partner, dependents, tenure,
	       phone_service, multiple_lines, internet_service, online_security,
	       online_backup, device_protection, tech_support, streaming_tv,
	       streaming_movies, contract, paperless_billing, payment_method,
	       monthly_charges, total_charges
	FROM clients WHERE id = $1`

// ClientRepository reads client feature rows with a Redis read-through cache.
type ClientRepository struct {
	db     *sql.DB
	cache  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewClientRepository(db *sql.DB, cache *database.RedisClient, ttl time.Duration, log logger.Logger) *ClientRepository {
	return &ClientRepository{db: db, cache: cache, ttl: ttl, logger: log}
}

// GetClient returns the client row, from cache when present.
func (r *ClientRepository) GetClient(ctx context.Context, clientID string) (*models.Client, error) {
	key := clientCachePrefix + clientID

	var cached models.Client
	if err := r.cache.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !stderrors.Is(err, database.ErrCacheMiss) {
		r.logger.Warn("client cache read failed", map[string]interface{}{"clientId": clientID, "error": err.Error()})
	}

	var c models.Client
	err := r.db.QueryRowContext(ctx, selectClient, clientID).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone,
		&c.Gender, &c.SeniorCitizen, &c.Partner, &c.Dependents, &c.Tenure,
		&c.PhoneService, &c.MultipleLines, &c.InternetService, &c.OnlineSecurity,
		&c.OnlineBackup, &c.DeviceProtection, &c.TechSupport, &c.StreamingTV,
		&c.StreamingMovies, &c.Contract, &c.PaperlessBilling, &c.PaymentMethod,
		&c.MonthlyCharges, &c.TotalCharges,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewClientNotFoundError(clientID)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("select client", err)
	}

	if err := r.cache.SetJSON(ctx, key, c, r.ttl); err != nil {
		r.logger.Warn("client cache write failed", map[string]interface{}{"clientId": clientID, "error": err.Error()})
	}
	return &c, nil
}

// Invalidate drops the cached row after the CRM side updates a client.
func (r *ClientRepository) Invalidate(ctx context.Context, clientID string) error {
	return r.cache.Del(ctx, clientCachePrefix+clientID)
}
