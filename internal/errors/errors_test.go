package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("registry unavailable")

	err := NodeInitialization("agg-1", cause)
	assert.Equal(t, "initialization (agg-1): failed to initialize processor node agg-1: registry unavailable", err.Error())

	bare := New(CategoryConfig, SeverityFatal, "configuration file not found")
	assert.Equal(t, "config: configuration file not found", bare.Error())
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NodeShutdown("agg-2", cause)

	require.ErrorIs(t, err, cause)

	var se *StreamError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, CategoryShutdown, se.Category)
	assert.Equal(t, "agg-2", se.Node)
}

func TestCategoryPredicates(t *testing.T) {
	err := NotInitialized("map-1", "process")

	assert.True(t, IsCategory(err, CategoryLifecycle))
	assert.False(t, IsCategory(err, CategoryShutdown))
	assert.Equal(t, CategoryLifecycle, GetCategory(err))
	assert.Equal(t, "map-1", GetNode(err))
	assert.Equal(t, "process", err.Context["operation"])

	plain := errors.New("plain")
	assert.False(t, IsCategory(plain, CategoryLifecycle))
	assert.Equal(t, CategoryInternal, GetCategory(plain))
	assert.Equal(t, "", GetNode(plain))
}

func TestWithContextAccumulates(t *testing.T) {
	err := ValidationFailed("metrics.backend", "must be memory or prometheus").
		WithContext("got", "statsd")

	assert.Equal(t, "metrics.backend", err.Context["field"])
	assert.Equal(t, "statsd", err.Context["got"])
}
