package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Options configures a JSONLineHandler.
type Options struct {
	Level     slog.Leveler
	AddSource bool
	// Indent switches from one compact object per line to indented objects.
	Indent bool
}

// JSONLineHandler writes one JSON object per record. Unlike
// slog.JSONHandler it renders error values as their message and can emit
// indented output for reading in a terminal.
type JSONLineHandler struct {
	w    io.Writer
	mu   *sync.Mutex
	opts Options

	attrs  []slog.Attr
	groups []string
}

func NewJSONLineHandler(w io.Writer, opts Options) *JSONLineHandler {
	if opts.Level == nil {
		opts.Level = slog.LevelInfo
	}
	return &JSONLineHandler{w: w, mu: &sync.Mutex{}, opts: opts}
}

func (h *JSONLineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *JSONLineHandler) Handle(_ context.Context, r slog.Record) error {
	payload := make(map[string]any, 6+len(h.attrs)+r.NumAttrs())

	when := r.Time
	if when.IsZero() {
		when = time.Now()
	}
	payload["time"] = when.Format(time.RFC3339Nano)
	payload["level"] = r.Level.String()
	payload["msg"] = r.Message
	if h.opts.AddSource {
		if src := sourceFromPC(r.PC); src != "" {
			payload["source"] = src
		}
	}

	// h.attrs already carry the groups that were open when they were added.
	for _, a := range h.attrs {
		addAttr(payload, nil, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(payload, h.groups, a)
		return true
	})

	var b []byte
	var err error
	if h.opts.Indent {
		b, err = json.MarshalIndent(payload, "", "  ")
	} else {
		b, err = json.Marshal(payload)
	}
	if err != nil {
		b = []byte(`{"time":` + strconv.Quote(payload["time"].(string)) +
			`,"level":` + strconv.Quote(r.Level.String()) +
			`,"msg":` + strconv.Quote(r.Message) +
			`,"log_error":` + strconv.Quote(err.Error()) + `}`)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(append(b, '\n'))
	return err
}

func (h *JSONLineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	if len(h.groups) == 0 {
		clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
		return &clone
	}
	// Nest the new attrs under the open groups.
	nested := slog.Attr{Key: h.groups[len(h.groups)-1], Value: slog.GroupValue(attrs...)}
	for i := len(h.groups) - 2; i >= 0; i-- {
		nested = slog.Attr{Key: h.groups[i], Value: slog.GroupValue(nested)}
	}
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), nested)
	return &clone
}

func (h *JSONLineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func addAttr(root map[string]any, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	dst := root
	for _, g := range groups {
		m, ok := dst[g].(map[string]any)
		if !ok {
			m = map[string]any{}
			dst[g] = m
		}
		dst = m
	}
	addAttrToMap(dst, a)
}

func addAttrToMap(dst map[string]any, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() != slog.KindGroup {
		dst[a.Key] = valueToAny(v)
		return
	}
	attrs := v.Group()
	if len(attrs) == 0 {
		return
	}
	// An empty key inlines the group's attrs.
	child := dst
	if a.Key != "" {
		m, ok := dst[a.Key].(map[string]any)
		if !ok {
			m = map[string]any{}
			dst[a.Key] = m
		}
		child = m
	}
	for _, ga := range attrs {
		ga.Value = ga.Value.Resolve()
		if ga.Key != "" || ga.Value.Kind() == slog.KindGroup {
			addAttrToMap(child, ga)
		}
	}
}

func valueToAny(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			return x.Error()
		case fmt.Stringer:
			return x.String()
		default:
			return x
		}
	default:
		return v.String()
	}
}

func sourceFromPC(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	frames := runtime.CallersFrames([]uintptr{pc})
	f, _ := frames.Next()
	if f.File == "" {
		return ""
	}
	file := f.File
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		file = file[idx+1:]
	}
	return file + ":" + strconv.Itoa(f.Line)
}
