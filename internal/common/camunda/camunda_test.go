// internal/common/camunda/camunda_test.go
package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churn-workers/internal/common/logger"
	"churn-workers/internal/common/metrics"
)

func TestRetryWithBackoff(t *testing.T) {
	log := logger.NewTestLogger(t)

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		}, 5, time.Millisecond, log, "postgres")

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), func() error {
			calls++
			return errors.New("boom")
		}, 3, time.Millisecond, log, "redis")

		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.Contains(t, err.Error(), "redis failed after 3 attempts")
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := RetryWithBackoff(ctx, func() error { return errors.New("boom") }, 5, time.Hour, log, "zeebe")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(errors.New("rpc error: code = Unavailable")))
	assert.True(t, IsRetryable(errors.New("context deadline exceeded")))
	assert.False(t, IsRetryable(errors.New("permission denied")))
}

func TestInstrument(t *testing.T) {
	const taskType = "instrument-test"
	called := false
	h := Instrument(taskType, func(client worker.JobClient, job entities.Job) {
		called = true
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
	})

	h(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1}})

	assert.True(t, called)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
}
