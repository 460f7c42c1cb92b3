/*
PURPOSE:
  Provides a structured logger for anneal-runner.
  Wraps slog for consistent output, rendered by charmbracelet/log.

REQUIREMENTS:
  User-specified:
  - "Sane" CLI output. Not spammy.
  - One line per instance outcome, naming the instance index.

  Implementation-discovered:
  - Needs Debug/Info/Warn/Error levels; --log-level picks the floor.
  - resty logs through the same logger (see internal/sapi).

ARCHITECTURE INTEGRATION:
  - Used everywhere.

ERROR HANDLING:
  - SetLevel rejects unknown level names.

IMPLEMENTATION RULES:
  - Callers use `log/slog` methods only; the handler is an implementation detail.

USAGE:
  output.Logger.Info("message", "key", "value")
  output.SetLevel("debug")

SELF-HEALING INSTRUCTIONS:
  - If colors garble a non-TTY consumer, set NO_COLOR; lipgloss honours it.

RELATED FILES:
  - All.

MAINTENANCE:
  - Keep level colors in sync with the serve-local banner.
*/

package output

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var Logger *slog.Logger

var handler *log.Logger

func init() {
	handler = NewHandler(os.Stderr)
	Logger = slog.New(handler)
}

func levelStyles() *log.Styles {
	styles := log.DefaultStyles()
	styles.Levels[log.DebugLevel] = lipgloss.NewStyle().
		SetString("DEBUG").
		Foreground(lipgloss.Color("#7F6DFF"))
	styles.Levels[log.InfoLevel] = lipgloss.NewStyle().
		SetString("INFO").
		Foreground(lipgloss.Color("#42E7FF"))
	styles.Levels[log.WarnLevel] = lipgloss.NewStyle().
		SetString("WARN").
		Foreground(lipgloss.Color("#FFE763"))
	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERROR").
		Foreground(lipgloss.Color("#FF4473"))
	return styles
}

// NewHandler returns a charmbracelet logger writing to w. It implements
// slog.Handler.
func NewHandler(w io.Writer) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           log.InfoLevel,
	})
	l.SetStyles(levelStyles())
	return l
}

// SetLogger allows overriding the default logger (e.g. for testing or config changes)
func SetLogger(l *slog.Logger) {
	Logger = l
}

// SetLevel sets the minimum level of the default handler.
func SetLevel(level string) error {
	if level == "" {
		return nil
	}
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	handler.SetLevel(lvl)
	return nil
}

// NewTestLogger returns a plain-text logger writing to w at debug level, for
// capturing log lines in tests.
func NewTestLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
