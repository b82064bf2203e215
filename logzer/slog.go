package logzer

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// SLogHandler writes slog.Record into the global zerolog logger.
// Groups are collected into GroupsFieldName, "logger" by default.
type SLogHandler struct {
	attrs  []slog.Attr
	groups []string

	CallerSkipFrame int
	GroupsFieldName string
}

// zerologLevel maps slog levels, custom levels fall to the nearest lower one
func zerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level >= slog.LevelError:
		return zerolog.ErrorLevel
	case level >= slog.LevelWarn:
		return zerolog.WarnLevel
	case level >= slog.LevelInfo:
		return zerolog.InfoLevel
	case level >= slog.LevelDebug:
		return zerolog.DebugLevel
	}
	return zerolog.TraceLevel
}

// Enabled implements slog.Handler interface
func (h *SLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return zerologLevel(level) >= zerolog.GlobalLevel()
}

// Handle implements slog.Handler interface
func (h *SLogHandler) Handle(_ context.Context, r slog.Record) error {
	e := zlog.WithLevel(zerologLevel(r.Level))
	if e == nil {
		return nil
	}
	if len(h.groups) > 0 {
		groupsField := h.GroupsFieldName
		if groupsField == "" {
			groupsField = "logger"
		}
		e.Strs(groupsField, h.groups)
	}
	for _, attr := range h.attrs {
		appendAttr(e, "", attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		appendAttr(e, "", attr)
		return true
	})
	e.CallerSkipFrame(h.CallerSkipFrame).Msg(r.Message)
	return nil
}

// appendAttr adds attr to event, group members are flattened as "group.key"
func appendAttr(e *zerolog.Event, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	key := prefix + attr.Key
	switch attr.Value.Kind() {
	case slog.KindBool:
		e.Bool(key, attr.Value.Bool())
	case slog.KindDuration:
		e.Dur(key, attr.Value.Duration())
	case slog.KindFloat64:
		e.Float64(key, attr.Value.Float64())
	case slog.KindInt64:
		e.Int64(key, attr.Value.Int64())
	case slog.KindString:
		e.Str(key, attr.Value.String())
	case slog.KindTime:
		e.Time(key, attr.Value.Time())
	case slog.KindUint64:
		e.Uint64(key, attr.Value.Uint64())
	case slog.KindGroup:
		if attr.Key != "" {
			prefix = key + "."
		}
		for _, a := range attr.Value.Group() {
			appendAttr(e, prefix, a)
		}
	default:
		if err, ok := attr.Value.Any().(error); ok {
			e.AnErr(key, err)
			return
		}
		e.Any(key, attr.Value.Any())
	}
}

func (h *SLogHandler) clone() *SLogHandler {
	return &SLogHandler{
		attrs:           append([]slog.Attr{}, h.attrs...),
		groups:          append([]string{}, h.groups...),
		CallerSkipFrame: h.CallerSkipFrame,
		GroupsFieldName: h.GroupsFieldName,
	}
}

// WithAttrs implements slog.Handler interface
func (h *SLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nested := h.clone()
	nested.attrs = append(nested.attrs, attrs...)
	return nested
}

// WithGroup implements slog.Handler interface
func (h *SLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nested := h.clone()
	nested.groups = append(nested.groups, name)
	return nested
}
