package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// EnvLogDir overrides the "log" directory holding the rotated files.
const EnvLogDir = "URLBRIDGE_LOG_DIR"

func ensureLogDir() string {
	dir := envOr(EnvLogDir, "log")
	_ = os.MkdirAll(dir, 0o755)
	return dir
}

// NewLog tees JSON lines to stdout and to a rotated file n under LogDir.
func NewLog(n string) *zap.Logger {
	dir := ensureLogDir()

	cfg := zap.NewProductionEncoderConfig()
	cfg.MessageKey = zapcore.OmitKey

	console := zapcore.Lock(os.Stdout)

	var logPath string
	if runtime.GOOS == "windows" {
		logPath = filepath.Join(dir, n)
	} else {
		logPath = fmt.Sprintf("%s/%s", dir, n)
	}

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    50, // MB
		MaxBackups: 3,
		MaxAge:     7, // days
	})

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, zap.InfoLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(cfg), console, zap.InfoLevel),
	)
	return zap.New(core)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
