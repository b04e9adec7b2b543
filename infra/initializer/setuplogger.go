package initializer

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/tapevault/backoffice/pkg/config"
)

var levelColors = map[log.Level]lipgloss.AdaptiveColor{
	log.DebugLevel: {Light: "#7E57C2", Dark: "#B39DDB"},
	log.InfoLevel:  {Light: "#04B575", Dark: "#04B575"},
	log.WarnLevel:  {Light: "#E6A700", Dark: "#FFCA28"},
	log.ErrorLevel: {Light: "#D32F2F", Dark: "#FF6B6B"},
}

// Keys the payout flows log on almost every line get their own colour.
var highlightedKeys = []string{"deal_id", "invoice_id", "country", "status", "error"}

func logStyles() *log.Styles {
	styles := log.DefaultStyles()
	for level, color := range levelColors {
		styles.Levels[level] = lipgloss.NewStyle().
			SetString(strings.ToUpper(level.String())[:4]).
			Bold(true).
			MaxWidth(4).
			Foreground(color)
	}
	keyColor := levelColors[log.DebugLevel]
	for _, key := range highlightedKeys {
		styles.Keys[key] = lipgloss.NewStyle().Foreground(keyColor)
		styles.Values[key] = lipgloss.NewStyle().Bold(true)
	}
	styles.Values["error"] = lipgloss.NewStyle().Bold(true).Foreground(levelColors[log.ErrorLevel])
	return styles
}

func newLogger(cfg *config.Log, w io.Writer) *slog.Logger {
	if cfg == nil {
		cfg = &config.Log{Format: "text"}
	}
	formatters := map[string]log.Formatter{
		"json":   log.JSONFormatter,
		"logfmt": log.LogfmtFormatter,
		"text":   log.TextFormatter,
	}
	formatter, ok := formatters[strings.ToLower(cfg.Format)]
	if !ok {
		formatter = log.TextFormatter
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		Level:           log.Level(cfg.Level),
		Prefix:          cfg.Prefix,
		Formatter:       formatter,
	})
	logger.SetStyles(logStyles())
	return slog.New(logger)
}

// setupLogger builds the process logger and installs it as the slog default.
func setupLogger(cfg *config.Log) *slog.Logger {
	logger := newLogger(cfg, os.Stdout)
	slog.SetDefault(logger)
	return logger
}
