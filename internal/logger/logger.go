package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"HMDARiskPump/internal/config"
)

// InitZap инициализирует zap-логгер:
// - в консоль (stderr) выводятся сообщения от cfg.Level и выше;
// - в файл — только ошибки (Error+).
// stdout остаётся за результатами запросов.
func InitZap(cfg *config.LoggingConfig) (*zap.Logger, error) {
	return New(cfg, os.Stderr)
}

// New — то же, что InitZap, но консольный вывод идёт в console
func New(cfg *config.LoggingConfig, console io.Writer) (*zap.Logger, error) {
	consoleLevel, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("неизвестный уровень логирования %q: %w", cfg.Level, err)
	}

	// 1) Создаём директорию для лог-файла
	if cfg.LogFile != "" {
		dir := filepath.Dir(cfg.LogFile)
		if dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
			}
		}
	}

	// 2) Общая конфигурация энкодера (plain text)
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		CallerKey:      "C",
		MessageKey:     "M",
		StacktraceKey:  "S",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	consoleEncoderCfg := encoderCfg
	if console == os.Stderr {
		// Цветная кодировка уровней только для терминала
		consoleEncoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	fileLevel := zapcore.ErrorLevel // только Error и выше

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleEncoderCfg),
			zapcore.AddSync(console),
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl >= consoleLevel }),
		),
	}
	// файловое ядро — только если указан путь
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("не удалось открыть лог-файл %s: %w", cfg.LogFile, err)
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg),
			zapcore.AddSync(f),
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl >= fileLevel }),
		))
	}

	return zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.DPanicLevel),
	), nil
}
