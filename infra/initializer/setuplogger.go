package initializer

import (
	"io"
	"log/slog"
	"os"

	"github.com/amirasaad/corebank/config"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// setupLogger builds the process logger and installs it as the slog default.
func setupLogger(cfg *config.Log) *slog.Logger {
	slogger := NewLogger(os.Stdout, cfg)
	slog.SetDefault(slogger)
	return slogger
}

var (
	errorColor = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF6B6B"}
	warnColor  = lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#F4D35E"}
	infoColor  = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	debugColor = lipgloss.AdaptiveColor{Light: "#5E4FA2", Dark: "#9F8FEF"}
)

var levelBadges = []struct {
	level log.Level
	badge string
	color lipgloss.AdaptiveColor
}{
	{log.ErrorLevel, "ERR", errorColor},
	{log.WarnLevel, "WRN", warnColor},
	{log.InfoLevel, "INF", infoColor},
	{log.DebugLevel, "DBG", debugColor},
}

// keyColors highlights the attributes operators grep for.
var keyColors = map[string]lipgloss.AdaptiveColor{
	"error":          errorColor,
	"cause":          errorColor,
	"status":         warnColor,
	"replayed":       warnColor,
	"account":        infoColor,
	"reference":      infoColor,
	"trace_id":       infoColor,
	"lock_id":        infoColor,
	"transaction_id": infoColor,
	"op":             debugColor,
	"component":      debugColor,
}

var formatters = map[string]log.Formatter{
	"json":   log.JSONFormatter,
	"text":   log.TextFormatter,
	"logfmt": log.LogfmtFormatter,
}

// NewLogger returns a slog.Logger backed by a charmbracelet handler writing
// to w. cfg.Level follows slog levels (-4 debug, 0 info, 4 warn, 8 error).
func NewLogger(w io.Writer, cfg *config.Log) *slog.Logger {
	if cfg == nil {
		cfg = &config.Log{Format: "text", TimeFormat: "2006-01-02 15:04:05"}
	}
	formatter, ok := formatters[cfg.Format]
	if !ok {
		formatter = log.TextFormatter
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportCaller:    formatter != log.JSONFormatter,
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		Level:           log.Level(cfg.Level),
		Prefix:          cfg.Prefix,
		Formatter:       formatter,
	})
	logger.SetStyles(styles())
	return slog.New(logger)
}

func styles() *log.Styles {
	s := log.DefaultStyles()
	for _, b := range levelBadges {
		s.Levels[b.level] = lipgloss.NewStyle().
			SetString(b.badge).
			Bold(true).
			Padding(0, 1).
			Foreground(b.color)
	}
	for key, c := range keyColors {
		s.Keys[key] = lipgloss.NewStyle().Foreground(c)
		s.Values[key] = lipgloss.NewStyle().Bold(true)
	}
	return s
}
