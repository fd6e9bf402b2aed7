package errx

import (
	"database/sql"
	"errors"
	"net/http"
)

// WrapStore maps database errors to AppError. sql.ErrNoRows becomes ErrNotFound
// so callers can branch on it without importing database/sql.
func WrapStore(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, ErrNotFound) {
		return New(ErrNotFound, http.StatusNotFound, StoreErrorMessage)
	}
	if errors.Is(err, ErrConflict) {
		return New(err, http.StatusConflict, StoreErrorMessage)
	}

	return New(err, http.StatusServiceUnavailable, StoreErrorMessage)
}
