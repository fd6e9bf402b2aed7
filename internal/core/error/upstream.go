package errx

import (
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// RedisNotFoundMessage describes a missing redis key.
const RedisNotFoundMessage = "redis key not found"

// upstream marks err as a failed call to an external dependency.
func upstream(err error, message string) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, message)
}

// WrapLLM wraps a completion endpoint error.
func WrapLLM(err error) error { return upstream(err, LLMErrorMessage) }

// WrapIndex wraps a retrieval index error.
func WrapIndex(err error) error { return upstream(err, IndexErrorMessage) }

// WrapRedis reports a missing key as 404; other redis failures are upstream errors.
func WrapRedis(err error) error {
	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}
	return upstream(err, RedisErrorMessage)
}
