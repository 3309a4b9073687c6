package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
)

// ensureDirExists ensures that a directory exists, creating it when
// absent.
func ensureDirExists(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return true, nil
	}
	if err := os.Mkdir(path, 0700); err != nil {
		return false, err
	}
	return true, nil
}

// setupLogger initializes the client's logger (logrus). Warnings and
// errors go to one file, verbose logs to another, so a session gone wrong
// can be reconstructed without the debug noise.
func setupLogger(logger *logrus.Logger) (*os.File, *os.File, error) {
	logPath := "coedit.log"
	debugLogPath := "coedit-debug.log"

	homeDirExists := true
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDirExists = false
	}

	coeditDir := filepath.Join(homeDir, ".coedit")

	dirExists, err := ensureDirExists(coeditDir)
	if err != nil {
		return nil, nil, err
	}

	if dirExists && homeDirExists {
		logPath = filepath.Join(coeditDir, "coedit.log")
		debugLogPath = filepath.Join(coeditDir, "coedit-debug.log")
	}

	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Printf("Logger error, exiting: %s", err)
		return nil, nil, err
	}

	debugLogFile, err := os.OpenFile(debugLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Printf("Logger error, exiting: %s", err)
		return nil, nil, err
	}

	logger.SetOutput(io.Discard)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.AddHook(&writer.Hook{
		Writer: logFile,
		LogLevels: []logrus.Level{
			logrus.WarnLevel,
			logrus.ErrorLevel,
			logrus.FatalLevel,
			logrus.PanicLevel,
		},
	})
	logger.AddHook(&writer.Hook{
		Writer: debugLogFile,
		LogLevels: []logrus.Level{
			logrus.TraceLevel,
			logrus.DebugLevel,
			logrus.InfoLevel,
		},
	})

	return logFile, debugLogFile, nil
}

// closeLogFiles closes the log files created by the client. Meant for
// defer calls.
func closeLogFiles(logFile, debugLogFile *os.File) {
	if err := logFile.Close(); err != nil {
		fmt.Printf("Failed to close log file: %s", err)
		return
	}
	if err := debugLogFile.Close(); err != nil {
		fmt.Printf("Failed to close debug log file: %s", err)
	}
}
