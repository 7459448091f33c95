package config

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// logLevel is shared by every handler InitLogger builds so the level can
// change without rebuilding the logger.
var logLevel = new(slog.LevelVar)

// InitLogger builds the application logger and installs it as the slog
// default. An empty File logs to the state directory; "-" logs to stderr.
func InitLogger(cfg *LoggingConfig) (*slog.Logger, error) {
	logLevel.Set(ParseLogLevel(cfg.Level))

	file := cfg.File
	if file == "" {
		file = DefaultLogPath()
	}

	var writer io.Writer = os.Stderr
	console := file == "-"
	if !console {
		if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		writer = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    cfg.MaxSize, // megabytes
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge, // days
			Compress:   cfg.Compress,
		}
	}

	logger := slog.New(NewHandler(writer, cfg.Format, cfg.Color && console))
	slog.SetDefault(logger)
	return logger, nil
}

// NewHandler returns a json or text handler at the shared level
func NewHandler(w io.Writer, format string, color bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: logLevel}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	if color {
		w = &levelColorWriter{w: w}
	}
	return slog.NewTextHandler(w, opts)
}

// SetLogLevel changes the level of every logger built by InitLogger
func SetLogLevel(level string) {
	logLevel.Set(ParseLogLevel(level))
}

// DefaultLogPath returns $XDG_STATE_HOME/archivist/archivist.log
func DefaultLogPath() string {
	return filepath.Join(GetStateDir(), AppName, AppName+".log")
}

var levelColors = map[string]string{
	"DEBUG": "\033[90m", // gray
	"INFO":  "\033[32m", // green
	"WARN":  "\033[33m", // yellow
	"ERROR": "\033[31m", // red
}

// levelColorWriter colors the level=XXX field of each text record.
// slog's text handler writes exactly one record per Write call.
type levelColorWriter struct {
	w io.Writer
}

func (c *levelColorWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(colorizeLevel(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func colorizeLevel(line []byte) []byte {
	start := bytes.Index(line, []byte("level="))
	if start < 0 {
		return line
	}
	valStart := start + len("level=")
	end := bytes.IndexByte(line[valStart:], ' ')
	if end < 0 {
		end = len(line) - valStart
	}
	level := string(bytes.TrimSpace(line[valStart : valStart+end]))
	color, ok := levelColors[level]
	if !ok {
		return line
	}

	out := make([]byte, 0, len(line)+len(color)+4)
	out = append(out, line[:start]...)
	out = append(out, color...)
	out = append(out, line[start:valStart+len(level)]...)
	out = append(out, "\033[0m"...)
	out = append(out, line[valStart+len(level):]...)
	return out
}

// ParseLogLevel maps a level name to a slog level, defaulting to info
func ParseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
