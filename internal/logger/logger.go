package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/internal/config"
)

func logFilePath(logDir string) string {
	currentDate := time.Now().Format("2006-01-02")
	return filepath.Join(logDir, fmt.Sprintf("chat-api-%s.log", currentDate))
}

func rotatingWriter(path string, cfg *config.Config) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.Logger.Rotation.MaxSize,
		MaxBackups: cfg.Logger.Rotation.MaxBackups,
		MaxAge:     cfg.Logger.Rotation.MaxAge,
		Compress:   cfg.Logger.Rotation.Compress,
	}
}

// Setup routes the standard logger to stdout plus a rotating log file.
func Setup(cfg *config.Config) error {
	logDir := cfg.Logger.Directory

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	path := logFilePath(logDir)
	log.SetOutput(io.MultiWriter(os.Stdout, rotatingWriter(path, cfg)))
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	log.Printf("Logging initialized: writing to %s", path)
	return nil
}
