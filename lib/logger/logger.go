// Package logger wires a *logrus.Entry into a context.Context, the same
// way teleport-plugins' utils/logger.go does for its bots.
package logger

import (
	"context"
	"os"
	"strings"

	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

// Config configures process-wide logging.
type Config struct {
	Output   string `toml:"output"`
	Severity string `toml:"severity"`
}

type loggerKey struct{}

// Init sets up a reasonable default logger before configuration is parsed.
func Init() {
	log.SetFormatter(&trace.TextFormatter{
		DisableTimestamp: true,
		EnableColors:     trace.IsTerminal(os.Stderr),
		ComponentPadding: 1,
	})
	log.SetOutput(os.Stderr)
}

// Setup applies a parsed Config to the process-wide logger.
func Setup(conf Config) error {
	switch conf.Output {
	case "", "stderr", "error", "2":
		log.SetOutput(os.Stderr)
	case "stdout", "out", "1":
		log.SetOutput(os.Stdout)
	default:
		logFile, err := os.OpenFile(conf.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return trace.Wrap(err, "failed to open the log file")
		}
		log.SetOutput(logFile)
	}

	switch strings.ToLower(conf.Severity) {
	case "", "info":
		log.SetLevel(log.InfoLevel)
	case "err", "error":
		log.SetLevel(log.ErrorLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "warn", "warning":
		log.SetLevel(log.WarnLevel)
	default:
		return trace.BadParameter("unsupported logger severity: %q", conf.Severity)
	}
	return nil
}

// With returns a context carrying logger as its logger.Get result.
func With(ctx context.Context, entry *log.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, entry)
}

// WithField is a convenience wrapper around With + logger.Get(ctx).WithField.
func WithField(ctx context.Context, key string, value interface{}) (context.Context, *log.Entry) {
	entry := Get(ctx).WithField(key, value)
	return With(ctx, entry), entry
}

// Get returns the logger stored in ctx, or the standard logger if none was set.
func Get(ctx context.Context) *log.Entry {
	if entry, ok := ctx.Value(loggerKey{}).(*log.Entry); ok && entry != nil {
		return entry
	}
	return log.NewEntry(log.StandardLogger())
}
