package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

func TestNewLoggerHonoursLevel(t *testing.T) {
	app := config.AppConfig{Name: "helpdesk-service", Version: "test", Env: "test"}

	for _, format := range []string{"json", "console"} {
		logger, err := NewLogger(config.LoggerConfig{Level: "WARN", Format: format}, app)
		require.NoError(t, err, format)
		assert.False(t, logger.Core().Enabled(zapcore.InfoLevel), format)
		assert.True(t, logger.Core().Enabled(zapcore.WarnLevel), format)
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(config.LoggerConfig{Level: "chatty"}, config.AppConfig{})
	assert.ErrorContains(t, err, "LOG_LEVEL")
}
