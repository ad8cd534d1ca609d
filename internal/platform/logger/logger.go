// Package logger provides structured logging for local terminals, log
// collectors and GitHub Actions runners.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// New creates a structured logger writing to stdout at the given level.
//
// On a GitHub Actions runner (GITHUB_ACTIONS=true) records are written as
// workflow commands so warnings and errors show up as annotations.
// Otherwise the output is colored text, or JSON when LOG_FORMAT=json.
// Colors can be disabled by setting NO_COLOR=1 or LOG_COLOR=false.
func New(level string) *slog.Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level string) *slog.Logger {
	l := ParseLevel(level)

	var handler slog.Handler
	switch {
	case os.Getenv("GITHUB_ACTIONS") == "true":
		handler = NewActionsHandler(w, l)
	case strings.ToLower(os.Getenv("LOG_FORMAT")) == "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: l})
	default:
		handler = &coloredTextHandler{w: w, level: l, useColor: shouldUseColor()}
	}

	return slog.New(handler)
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// shouldUseColor determines if colored output should be used.
func shouldUseColor() bool {
	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if logColor := strings.ToLower(os.Getenv("LOG_COLOR")); logColor == "false" || logColor == "0" {
		return false
	}
	return true
}

// coloredTextHandler is a custom slog.Handler that outputs colored text logs.
type coloredTextHandler struct {
	w        io.Writer
	level    slog.Level
	useColor bool
	attrs    []slog.Attr
	groups   []string
}

func (h *coloredTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *coloredTextHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	h.paint(&buf, colorGray, r.Time.Format("2006-01-02 15:04:05"))
	buf.WriteString(" ")

	levelStr := r.Level.String()
	color := ""
	switch r.Level {
	case slog.LevelDebug:
		color, levelStr = colorCyan, "DEBUG"
	case slog.LevelInfo:
		color, levelStr = colorBlue, "INFO "
	case slog.LevelWarn:
		color, levelStr = colorYellow, "WARN "
	case slog.LevelError:
		color, levelStr = colorRed+colorBold, "ERROR"
	}
	h.paint(&buf, color, levelStr)
	buf.WriteString(" ")

	buf.WriteString(r.Message)

	prefix := groupPrefix(h.groups)
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(" ")
		h.paint(&buf, colorGray, prefix+a.Key+"="+a.Value.String())
		return true
	})
	for _, a := range h.attrs {
		buf.WriteString(" ")
		h.paint(&buf, colorGray, a.Key+"="+a.Value.String())
	}

	buf.WriteString("\n")
	_, err := io.WriteString(h.w, buf.String())
	return err
}

func (h *coloredTextHandler) paint(buf *strings.Builder, color, s string) {
	if h.useColor && color != "" {
		buf.WriteString(color)
		buf.WriteString(s)
		buf.WriteString(colorReset)
		return
	}
	buf.WriteString(s)
}

func (h *coloredTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = appendAttrs(h.attrs, h.groups, attrs)
	return &clone
}

func (h *coloredTextHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func appendAttrs(existing []slog.Attr, groups []string, attrs []slog.Attr) []slog.Attr {
	prefix := groupPrefix(groups)
	out := make([]slog.Attr, 0, len(existing)+len(attrs))
	out = append(out, existing...)
	for _, a := range attrs {
		out = append(out, slog.Attr{Key: prefix + a.Key, Value: a.Value})
	}
	return out
}

func groupPrefix(groups []string) string {
	if len(groups) == 0 {
		return ""
	}
	return strings.Join(groups, ".") + "."
}
