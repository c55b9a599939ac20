package helpers

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-session-auth/pkg/redact"
)

// NewLogger creates a configured Logrus logger.
// Values of redactFields are masked in messages and structured fields.
func NewLogger(appName, env string, redactFields []string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	var base logrus.Formatter
	if env == "development" {
		logger.SetLevel(logrus.DebugLevel)
		base = &logrus.TextFormatter{FullTimestamp: true}
	} else {
		logger.SetLevel(logrus.InfoLevel)
		base = &logrus.JSONFormatter{}
	}
	if len(redactFields) > 0 {
		logger.SetFormatter(redact.NewFormatter(base, redactFields))
	} else {
		logger.SetFormatter(base)
	}
	logger.WithFields(logrus.Fields{"app": appName, "env": env}).Info("logger initialized")
	return logger
}

// LogError logs msg at error level with err folded into fields.
func LogError(logger *logrus.Logger, msg string, err error, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	logger.WithFields(fields).Error(msg)
}

