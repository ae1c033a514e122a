package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// PostgreSQL SQLSTATE codes treated as lost races between writers.
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqUniqueViolation      = "23505"
)

// isStoreConflict reports whether err is a serialization failure, a deadlock or
// a unique violation raised by the store.
func isStoreConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case pqSerializationFailure, pqDeadlockDetected, pqUniqueViolation:
		return true
	default:
		return false
	}
}

// txRunner executes a unit of work inside a READ COMMITTED transaction and
// converts store conflicts into ErrConcurrentModification.
type txRunner struct {
	db      txProvider
	logger  *zap.Logger
	metrics *MetricsService
}

func newTxRunner(db txProvider, logger *zap.Logger, metrics *MetricsService) txRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return txRunner{db: db, logger: logger, metrics: metrics}
}

// run executes fn, re-running the whole transaction up to retries extra times
// when it loses a race. fn must be safe to repeat from scratch.
func (r txRunner) run(ctx context.Context, operation string, retries int, fn func(tx *sqlx.Tx) error) error {
	if r.db == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	if retries < 0 {
		retries = 0
	}
	for attempt := 0; ; attempt++ {
		err := r.once(ctx, fn)
		if err == nil {
			return nil
		}
		if !isStoreConflict(err) {
			return err
		}
		if attempt < retries {
			r.logger.Warn("store conflict, retrying",
				zap.String("operation", operation),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			r.metrics.RecordConflict(operation, "retried")
			continue
		}
		r.logger.Warn("store conflict",
			zap.String("operation", operation),
			zap.Int("attempts", attempt+1),
			zap.Error(err),
		)
		r.metrics.RecordConflict(operation, "rejected")
		return appErrors.Wrap(err, appErrors.ErrConcurrentModification.Code, appErrors.ErrConcurrentModification.Status, appErrors.ErrConcurrentModification.Message)
	}
}

func (r txRunner) once(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		if isStoreConflict(err) {
			return err
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit transaction")
	}
	return nil
}
