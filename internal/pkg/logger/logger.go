package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"inventory-ai-agent/internal/config"
)

type Fields map[string]interface{}

// Logger wraps logrus with the key-value convenience API the services use.
type Logger struct {
	log *logrus.Logger
}

func New(cfg config.LogConfig) (*Logger, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	log.SetLevel(level)

	switch cfg.Format {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	default:
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	}

	var output io.Writer
	switch cfg.Output {
	case "file":
		output = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}
	log.SetOutput(output)

	return &Logger{log: log}, nil
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(toFields(keysAndValues)).Debug(msg)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(toFields(keysAndValues)).Info(msg)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(toFields(keysAndValues)).Warn(msg)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(toFields(keysAndValues)).Error(msg)
}

func (l *Logger) WithFields(fields Fields) *logrus.Entry {
	return l.log.WithFields(logrus.Fields(fields))
}

func (l *Logger) WithError(err error) *logrus.Entry {
	return l.log.WithError(err)
}

// LogService records one service operation with its duration and outcome.
func (l *Logger) LogService(service, operation string, duration time.Duration, fields map[string]interface{}, err error) {
	entry := l.log.WithFields(logrus.Fields{
		"service":     service,
		"operation":   operation,
		"duration_ms": duration.Milliseconds(),
	})

	for key, value := range fields {
		entry = entry.WithField(key, value)
	}

	if err != nil {
		entry.WithError(err).Error("Service operation failed")
		return
	}
	entry.Info("Service operation completed")
}

// LogAgent records one agent step inside a run.
func (l *Logger) LogAgent(runID, agent, operation string, duration time.Duration, fields map[string]interface{}, err error) {
	entry := l.log.WithFields(logrus.Fields{
		"run_id":      runID,
		"agent":       agent,
		"operation":   operation,
		"duration_ms": duration.Milliseconds(),
	})

	for key, value := range fields {
		entry = entry.WithField(key, value)
	}

	if err != nil {
		entry.WithError(err).Error("Agent step failed")
		return
	}
	entry.Info("Agent step completed")
}

// LogRun records run lifecycle events at the orchestrator boundary.
func (l *Logger) LogRun(runID, event string, duration time.Duration, err error) {
	entry := l.log.WithFields(logrus.Fields{
		"run_id":      runID,
		"event":       event,
		"duration_ms": duration.Milliseconds(),
	})

	if err != nil {
		entry.WithError(err).Error("Run event")
		return
	}
	entry.Info("Run event")
}

func toFields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
