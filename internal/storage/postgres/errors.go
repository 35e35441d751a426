package postgres

import (
	"errors"

	"github.com/lib/pq"

	"news_ingest/internal/domain"
)

// storeError classifies a driver error. Integrity violations (SQLSTATE class
// 23) are permanent; everything else is treated as an I/O failure.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var qe *domain.QueryError
	if errors.As(err, &qe) {
		return err
	}

	kind := domain.StoreIOFailure
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		kind = domain.StoreConstraintViolation
	}
	return &domain.StoreError{Kind: kind, Op: op, Err: err}
}
