package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_Levels(t *testing.T) {
	for level, want := range map[string]zap.AtomicLevel{
		"debug": zap.NewAtomicLevelAt(zap.DebugLevel),
		"info":  zap.NewAtomicLevelAt(zap.InfoLevel),
		"warn":  zap.NewAtomicLevelAt(zap.WarnLevel),
		"error": zap.NewAtomicLevelAt(zap.ErrorLevel),
	} {
		log, err := New(level)
		require.NoError(t, err, level)
		assert.True(t, log.Core().Enabled(want.Level()), level)
		assert.False(t, log.Core().Enabled(want.Level()-1), level)
	}
}

func TestNew_UnknownLevel(t *testing.T) {
	_, err := New("chatty")
	assert.Error(t, err)
}
