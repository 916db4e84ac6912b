package cdclient

import (
	"github.com/rs/zerolog"

	"github.com/stackforge-io/clouddeploy-client/pkg/clouddeploy"
)

// zerologLogger adapts a zerolog.Logger to the clouddeploy.Logger hook.
type zerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger wraps a zerolog.Logger for use as clouddeploy.Config.Logger.
func NewZerologLogger(logger zerolog.Logger) clouddeploy.Logger {
	return &zerologLogger{logger: logger}
}

func (l *zerologLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error().Fields(fields).Msg(msg)
}
