package postgres

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation = pq.ErrorCode("23505")
	pqCheckViolation  = pq.ErrorCode("23514")
	pqForeignKey      = pq.ErrorCode("23503")
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func pqCode(err error) (pq.ErrorCode, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code, true
	}
	return "", false
}

// isConstraintViolation reports unique, check and foreign key failures, which
// for assignment writes mean the set is not a valid derangement.
func isConstraintViolation(err error) bool {
	code, ok := pqCode(err)
	if !ok {
		return false
	}
	switch code {
	case pqUniqueViolation, pqCheckViolation, pqForeignKey:
		return true
	default:
		return false
	}
}

func isUniqueViolation(err error) bool {
	code, ok := pqCode(err)
	return ok && code == pqUniqueViolation
}

// dateOnly drops the clock part so DATE columns round-trip unchanged.
func dateOnly(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	d := time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
