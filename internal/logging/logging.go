package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var once sync.Once

// Init configures the process-wide slog default exactly once: JSON records
// to stdout and a size-rotated file. Call it first thing in main().
func Init(component, filePath string) *slog.Logger {
	var logger *slog.Logger
	once.Do(func() {
		_ = os.MkdirAll(filepath.Dir(filePath), 0o755)

		rot := &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    50, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
		}
		mw := io.MultiWriter(os.Stdout, rot)

		h := slog.NewJSONHandler(mw, &slog.HandlerOptions{Level: slog.LevelInfo})
		logger = slog.New(h).With("component", component)
		slog.SetDefault(logger)
	})
	if logger == nil {
		logger = slog.Default()
	}
	return logger
}
