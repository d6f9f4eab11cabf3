package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/carebook/scheduling-api/internal/repository"
)

// withTx executes fn within a transaction with the given options.
func withTx(ctx context.Context, db *sqlx.DB, opts *sql.TxOptions, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return wrapDBErr("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrapDBErr("commit transaction", err)
	}
	return nil
}

// Postgres SQLSTATE classes the repositories react to.
const (
	pqSerializationFailure = pq.ErrorCode("40001")
	pqDeadlockDetected     = pq.ErrorCode("40P01")
	pqExclusionViolation   = pq.ErrorCode("23P01")
)

// wrapDBErr maps transport-level failures onto the retryable sentinel so a
// timed-out call never masquerades as a business failure, and lifts the
// SQLSTATE codes concurrent transactions produce onto their sentinels.
func wrapDBErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	var pqErr *pq.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout(),
		errors.Is(err, sql.ErrConnDone):
		return fmt.Errorf("failed to %s: %w", op, repository.ErrUnavailable)
	case errors.As(err, &pqErr) && (pqErr.Code == pqSerializationFailure || pqErr.Code == pqDeadlockDetected):
		// The routine outcome for the loser of two serializable transactions;
		// transient and safe to retry.
		return fmt.Errorf("failed to %s: %w", op, repository.ErrUnavailable)
	case errors.As(err, &pqErr) && pqErr.Code == pqExclusionViolation:
		// An overlapping row got in between the pre-insert check and the
		// insert; the exclusion constraint is the authoritative guard.
		return fmt.Errorf("failed to %s: %w", op, repository.ErrWindowTaken)
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to %s: %w", op, repository.ErrNotFound)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
