package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Setup configures the global logrus logger for structured JSON output.
// When filePath is set the stream is mirrored to an append-only log file
// as well.
func Setup(level logrus.Level, filePath string) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(level)

	if filePath == "" {
		logrus.SetOutput(os.Stderr)
		return
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		logrus.SetOutput(os.Stderr)
		logrus.WithError(err).Error("Could not create file for logging")
		return
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, file))
}
