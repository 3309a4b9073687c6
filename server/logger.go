package main

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
)

// setupLogger initializes the server's logger (logrus): warnings and
// errors go to stderr, everything down to debug goes to the log file.
// Returns the log file for the caller to close.
func setupLogger(logger *logrus.Logger, logPath string, debug bool) (*os.File, error) {
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	logger.SetOutput(io.Discard)
	logger.SetFormatter(&logrus.JSONFormatter{})
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	logger.AddHook(&writer.Hook{
		Writer: os.Stderr,
		LogLevels: []logrus.Level{
			logrus.WarnLevel,
			logrus.ErrorLevel,
			logrus.FatalLevel,
			logrus.PanicLevel,
		},
	})
	logger.AddHook(&writer.Hook{
		Writer:    logFile,
		LogLevels: logrus.AllLevels,
	})

	return logFile, nil
}
