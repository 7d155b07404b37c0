// Package logger configures the global logrus instance used across the
// service.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ilmarsk/notehub/config"
)

// Logger is the shared logger instance. Init must run before use.
var Logger = logrus.New()

// Init applies the log configuration: level, format and output targets.
func Init(cfg config.LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
		Logger.Warnf("invalid log level %q, falling back to info", cfg.Level)
	}
	Logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		Logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if err := setupOutput(cfg); err != nil {
		return err
	}

	// Route gin's own writers through the configured logger.
	gin.DefaultWriter = Logger.Writer()
	gin.DefaultErrorWriter = Logger.WriterLevel(logrus.ErrorLevel)

	return nil
}

func setupOutput(cfg config.LogConfig) error {
	switch cfg.Output {
	case "file":
		f, err := openLogFile(cfg.File)
		if err != nil {
			return err
		}
		Logger.SetOutput(f)
	case "both":
		f, err := openLogFile(cfg.File)
		if err != nil {
			return err
		}
		Logger.SetOutput(io.MultiWriter(os.Stdout, f))
	default:
		Logger.SetOutput(os.Stdout)
	}
	return nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// WithField returns an entry with a single field attached.
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithFields returns an entry with the given fields attached.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

// Debugf logs at debug level.
func Debugf(format string, args ...interface{}) { Logger.Debugf(format, args...) }

// Infof logs at info level.
func Infof(format string, args ...interface{}) { Logger.Infof(format, args...) }

// Warnf logs at warn level.
func Warnf(format string, args ...interface{}) { Logger.Warnf(format, args...) }

// Errorf logs at error level.
func Errorf(format string, args ...interface{}) { Logger.Errorf(format, args...) }
