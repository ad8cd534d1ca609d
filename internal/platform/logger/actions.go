package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Workflow command names understood by the Actions runner.
const (
	CommandDebug   = "debug"
	CommandNotice  = "notice"
	CommandWarning = "warning"
	CommandError   = "error"
)

var dataEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")

// EscapeData escapes a workflow command message.
func EscapeData(s string) string {
	return dataEscaper.Replace(s)
}

// WriteCommand writes one "::command::message" line.
func WriteCommand(w io.Writer, command, msg string) error {
	_, err := fmt.Fprintf(w, "::%s::%s\n", command, EscapeData(msg))
	return err
}

// ActionsHandler renders records as GitHub Actions workflow commands.
// Info records are plain lines; the other levels become debug, warning and
// error commands.
type ActionsHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

// NewActionsHandler creates a workflow command handler writing to w.
func NewActionsHandler(w io.Writer, level slog.Level) *ActionsHandler {
	return &ActionsHandler{mu: &sync.Mutex{}, w: w, level: level}
}

func (h *ActionsHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *ActionsHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder
	buf.WriteString(r.Message)

	prefix := groupPrefix(h.groups)
	for _, a := range h.attrs {
		fmt.Fprintf(&buf, " %s=%s", a.Key, a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&buf, " %s%s=%s", prefix, a.Key, a.Value.String())
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case r.Level >= slog.LevelError:
		return WriteCommand(h.w, CommandError, buf.String())
	case r.Level >= slog.LevelWarn:
		return WriteCommand(h.w, CommandWarning, buf.String())
	case r.Level >= slog.LevelInfo:
		_, err := io.WriteString(h.w, buf.String()+"\n")
		return err
	default:
		return WriteCommand(h.w, CommandDebug, buf.String())
	}
}

func (h *ActionsHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = appendAttrs(h.attrs, h.groups, attrs)
	return &clone
}

func (h *ActionsHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}
