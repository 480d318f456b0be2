package lib

import (
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/ziflex/lecho/v3"
)

// Logger writes to STDOUT unless logFilePath is set. A path without an
// extension gets the current date and ".log" appended.
func Logger(logFilePath string) *lecho.Logger {
	logger := lecho.New(
		os.Stdout, // default to STDOUT
		lecho.WithLevel(log.DEBUG),
		lecho.WithTimestamp(),
	)

	// check if a log file config is set
	if logFilePath != "" {
		path := logFilePath
		if filepath.Ext(logFilePath) == "" {
			path = logFilePath + time.Now().Format("-2006-01-02") + ".log"
		}
		// the file stays open for the lifetime of the process
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
		if err != nil {
			logger.Errorf("failed to open log file %s: %v", path, err)
			return logger
		}
		logger.SetOutput(file)
	}

	return logger
}
