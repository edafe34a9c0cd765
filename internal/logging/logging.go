// Package logging configures the process-wide structured logger.
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
)

// Init configures slog to log to stdout, and additionally to a file when
// logDir is non-empty. It returns the logger and the opened file (nil when
// logging to stdout only) so callers can Close() on shutdown.
func Init(logDir string) (*slog.Logger, *os.File) {
	if logDir == "" {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
		return logger, nil
	}

	_ = os.MkdirAll(logDir, 0o755)
	filePath := filepath.Join(logDir, "hemolens.log")
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
		logger.Error("failed to open log file; falling back to stdout only", "error", err)
		return logger, nil
	}

	mw := io.MultiWriter(f, os.Stdout)
	logger := slog.New(slog.NewTextHandler(mw, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// make legacy stdlib log align to our multi-writer too
	log.SetOutput(mw)
	return logger, f
}
