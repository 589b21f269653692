// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	FormatPretty = "pretty"
	FormatJSON   = "json"
	FormatText   = "text"
)

func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}

// New returns a logger writing to w in the given format.
func New(w io.Writer, format string, level slog.Level, addSource bool) (*slog.Logger, error) {
	var h slog.Handler
	switch strings.ToLower(format) {
	case FormatPretty, "":
		h = NewJSONLineHandler(w, Options{Level: level, AddSource: addSource, Indent: true})
	case FormatJSON:
		h = NewJSONLineHandler(w, Options{Level: level, AddSource: addSource})
	case FormatText:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level, AddSource: addSource})
	default:
		return nil, fmt.Errorf("unknown log format %q (want pretty, json or text)", format)
	}
	return slog.New(h), nil
}
