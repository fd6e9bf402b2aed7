package errx

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestPublic(t *testing.T) {
	status, msg := Public(fmt.Errorf("outer: %w", New(errors.New("boom"), http.StatusBadRequest, "bad audio")))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "bad audio", msg)

	status, msg = Public(errors.New("plain"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, SystemErrorMessage, msg)
}

func TestWrappersKeepCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	assert.Nil(t, WrapLLM(nil))
	assert.ErrorIs(t, WrapLLM(cause), cause)
	assert.Equal(t, http.StatusBadGateway, StatusOf(WrapIndex(cause)))
	assert.Equal(t, http.StatusBadGateway, StatusOf(WrapRedis(cause)))
	assert.Equal(t, http.StatusNotFound, StatusOf(WrapRedis(redis.Nil)))
}

func TestWrapStore(t *testing.T) {
	assert.Nil(t, WrapStore(nil))
	assert.ErrorIs(t, WrapStore(sql.ErrNoRows), ErrNotFound)
	assert.Equal(t, http.StatusConflict, StatusOf(WrapStore(fmt.Errorf("order: %w", ErrConflict))))
	assert.Equal(t, http.StatusServiceUnavailable, StatusOf(WrapStore(errors.New("disk I/O error"))))
}

func TestStepLimitAnswersOK(t *testing.T) {
	err := StepLimit(errors.New("exceeds max steps"))
	assert.ErrorIs(t, err, ErrStepLimit)
	status, msg := Public(err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, StepLimitMessage, msg)
}
