// Package logging configures the logrus loggers used across snapdesk.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// EnvLevel overrides the configured log level when set.
const EnvLevel = "SNAPDESK_LOG_LEVEL"

// Options controls the root logger.
type Options struct {
	Level  string // trace, debug, info, warn, error
	Format string // text or json
	Output io.Writer
}

var (
	root   = logrus.New()
	rootMu sync.Mutex
)

// Setup applies opts to the root logger shared by every component logger.
func Setup(opts Options) {
	rootMu.Lock()
	defer rootMu.Unlock()

	levelStr := "info"
	if env := strings.TrimSpace(os.Getenv(EnvLevel)); env != "" {
		levelStr = env
	} else if opts.Level != "" {
		levelStr = opts.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	root.SetLevel(level)

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	root.SetOutput(out)

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "json":
		root.SetFormatter(&logrus.JSONFormatter{})
	default:
		root.SetFormatter(&TextFormatter{Color: isTerminal(out)})
	}

	if err != nil {
		root.WithField("component", "logging").Warnf("unknown log level %q, using info", levelStr)
	}
}

// NewLogger returns a logger tagged with the given component.
func NewLogger(component string) *logrus.Entry {
	return root.WithField("component", component)
}

// Discard returns a logger that drops everything. Intended for tests.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
