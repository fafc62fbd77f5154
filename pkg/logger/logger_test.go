package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	l, err := New(false, "")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.DebugLevel))
	assert.True(t, l.Core().Enabled(zap.InfoLevel))

	l, err = New(false, "WARN")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))

	l, err = New(true, "")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))

	_, err = New(false, "chatty")
	assert.Error(t, err)
}

func TestInitFallsBackOnBadLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "chatty")
	Init(false)
	assert.NotNil(t, Get())
	assert.NotNil(t, Named("scraper"))
}
