package config

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger: человекочитаемый вывод в консоль + файл с ротацией.
func SetupLogger(cfg Config) zerolog.Logger {
	return newLogger(cfg, os.Stdout)
}

// SetupCLILogger — для утилиты: stdout занят отчётом, поэтому только stderr.
func SetupCLILogger(level string) zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(console).Level(parseLevel(level)).With().Timestamp().Logger()
}

func newLogger(cfg Config, out io.Writer) zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	writers := []io.Writer{console}

	if cfg.LogFile != "" {
		_ = os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755)
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.LogLevel))
	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
