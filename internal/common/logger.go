package common

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

const logTimeFormat = "15:04:05"

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.RWMutex
)

func consoleWriter(text bool) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		TimeFormat: logTimeFormat,
		TextOutput: text,
	}
}

// GetLogger returns the global logger, falling back to a console logger before InitLogger runs
func GetLogger() arbor.ILogger {
	loggerMutex.RLock()
	logger := globalLogger
	loggerMutex.RUnlock()
	if logger != nil {
		return logger
	}

	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(consoleWriter(true))
	}
	return globalLogger
}

// LogDir resolves the directory for log and crash files.
// An explicit [logging] dir wins; otherwise logs/ next to the executable, then ./logs.
func LogDir(config *Config) string {
	if config.Logging.Dir != "" {
		return config.Logging.Dir
	}
	execPath, err := os.Executable()
	if err != nil {
		return "logs"
	}
	return filepath.Join(filepath.Dir(execPath), "logs")
}

// InitLogger builds the process logger from the [logging] section and stores it globally.
// Production writes JSON lines; development writes text.
func InitLogger(config *Config) arbor.ILogger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	text := !config.IsProduction()
	logger := arbor.NewLogger()

	if slices.Contains(config.Logging.Output, "file") {
		dir := LogDir(config)
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to create log directory %s: %v\n", dir, err)
		} else {
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				FileName:   filepath.Join(dir, "kotae.log"),
				TimeFormat: logTimeFormat,
				MaxSize:    100 * 1024 * 1024,
				MaxBackups: 3,
				TextOutput: text,
			})
		}
	}

	if slices.Contains(config.Logging.Output, "stdout") || slices.Contains(config.Logging.Output, "console") {
		logger = logger.WithConsoleWriter(consoleWriter(text))
	}

	globalLogger = logger.WithLevelFromString(config.Logging.Level)
	return globalLogger
}
