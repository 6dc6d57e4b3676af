package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetEnv(t *testing.T) {
	logger := testLogger()

	t.Setenv("TEST_GET_ENV", "set-value")
	assert.Equal(t, "set-value", getEnv("TEST_GET_ENV", "fallback", logger))

	assert.Equal(t, "fallback", getEnv("TEST_GET_ENV_MISSING", "fallback", logger))
}

func TestGetEnvAsInt(t *testing.T) {
	logger := testLogger()

	t.Setenv("TEST_GET_ENV_INT", "42")
	assert.Equal(t, 42, getEnvAsInt("TEST_GET_ENV_INT", 7, logger))

	t.Setenv("TEST_GET_ENV_INT_BAD", "not-a-number")
	assert.Equal(t, 7, getEnvAsInt("TEST_GET_ENV_INT_BAD", 7, logger))

	assert.Equal(t, 7, getEnvAsInt("TEST_GET_ENV_INT_MISSING", 7, logger))
}
