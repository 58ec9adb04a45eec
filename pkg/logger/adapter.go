package logger

import (
	"go.uber.org/zap"
)

// LoggerAdapter lets handlers log the same way whether or not categorized
// log files are configured
type LoggerAdapter struct {
	multiLogger  *MultiLogger
	singleLogger *zap.Logger
	useMulti     bool
}

// NewLoggerAdapter creates an adapter backed by categorized files
func NewLoggerAdapter(multiLogger *MultiLogger) *LoggerAdapter {
	return &LoggerAdapter{
		multiLogger: multiLogger,
		useMulti:    true,
	}
}

// NewSingleLoggerAdapter creates an adapter that sends everything to one logger
func NewSingleLoggerAdapter(logger *zap.Logger) *LoggerAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggerAdapter{
		singleLogger: logger,
		useMulti:     false,
	}
}

// Setup builds the adapter for a process. With an empty logsDir every
// category goes to general.
func Setup(general *zap.Logger, level, logsDir string) (*LoggerAdapter, error) {
	if logsDir == "" {
		return NewSingleLoggerAdapter(general), nil
	}
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: level, LogsDir: logsDir}, general)
	if err != nil {
		return nil, err
	}
	return NewLoggerAdapter(ml), nil
}

func (la *LoggerAdapter) General() *zap.Logger {
	if la.useMulti {
		return la.multiLogger.General()
	}
	return la.singleLogger
}

func (la *LoggerAdapter) Access() *zap.Logger {
	if la.useMulti {
		return la.multiLogger.Access()
	}
	return la.singleLogger
}

func (la *LoggerAdapter) Error() *zap.Logger {
	if la.useMulti {
		return la.multiLogger.Error()
	}
	return la.singleLogger
}

// LogError logs a failure once, to the error log when one is configured
func (la *LoggerAdapter) LogError(msg string, fields ...zap.Field) {
	if la.useMulti {
		la.multiLogger.LogError(msg, fields...)
		return
	}
	la.singleLogger.Error(msg, fields...)
}

// Sync flushes all loggers
func (la *LoggerAdapter) Sync() error {
	if la.useMulti {
		return la.multiLogger.Sync()
	}
	return la.singleLogger.Sync()
}

// Close releases categorized log files, if any
func (la *LoggerAdapter) Close() error {
	if la.useMulti {
		return la.multiLogger.Close()
	}
	return nil
}
