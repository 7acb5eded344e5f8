package store

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-indexer/internal/logger"
)

const (
	pgErrSerializationFailure = "40001"
	pgErrDeadlockDetected     = "40P01"
	pgErrConnectionException  = "08000"
	pgErrConnectionFailure    = "08006"
	pgErrCannotConnectNow     = "57P03"

	maxTxRetries = 3
)

// withTxRetry runs op and retries it when PostgreSQL aborted the transaction for a
// reason that a fresh attempt can clear, such as a deadlock between concurrent blocks
func withTxRetry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	operation := func() error {
		err := op()
		if err != nil && !isRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		logger.WarnCtx(ctx, "Retrying database transaction", zap.Error(err), zap.Duration("wait", wait))
	}

	return backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(b, maxTxRetries), ctx), notify)
}

// isRetryableError reports whether err is a transient PostgreSQL failure
func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgErrSerializationFailure, pgErrDeadlockDetected,
		pgErrConnectionException, pgErrConnectionFailure, pgErrCannotConnectNow:
		return true
	default:
		return false
	}
}
