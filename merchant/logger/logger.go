package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorWhite  = "\033[37m"
)

type LogType string

const (
	TypeCommand LogType = "CMD"
	TypeDB      LogType = "DB"
	TypeSystem  LogType = "SYS"
	TypeError   LogType = "ERR"
	TypeStock   LogType = "STOCK"
)

// CustomHandler prints one coloured line per record. The type, status, name and user_name
// attributes are folded into the message; everything else is appended as key=value.
type CustomHandler struct {
	mu     *sync.Mutex
	out    io.Writer
	level  slog.Leveler
	color  bool
	attrs  []slog.Attr
	groups []string
}

type Option func(*CustomHandler)

func WithWriter(w io.Writer) Option {
	return func(h *CustomHandler) { h.out = w }
}

func WithLevel(level slog.Leveler) Option {
	return func(h *CustomHandler) { h.level = level }
}

// WithoutColor strips ANSI codes, for log files and tests.
func WithoutColor() Option {
	return func(h *CustomHandler) { h.color = false }
}

func NewHandler(opts ...Option) *CustomHandler {
	h := &CustomHandler{
		mu:    &sync.Mutex{},
		out:   os.Stdout,
		level: slog.LevelDebug,
		color: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *CustomHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &c
}

func (h *CustomHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.groups = append(append([]string{}, h.groups...), name)
	return &c
}

type recordInfo struct {
	logType  LogType
	status   string
	name     string
	userName string
	err      string
	location string
	extra    []slog.Attr
}

func (h *CustomHandler) Handle(_ context.Context, r slog.Record) error {
	if shouldSkipLog(r.Message) {
		return nil
	}

	info := recordInfo{logType: TypeSystem}
	for _, a := range h.attrs {
		info.absorb(a)
	}
	bound := len(info.extra)
	r.Attrs(func(a slog.Attr) bool {
		info.absorb(a)
		return true
	})

	message := r.Message
	if r.Level >= slog.LevelError {
		if info.location == "" {
			info.location = sourceLocation(r.PC)
		}
		if info.location != "" {
			message = fmt.Sprintf("%s (%s)", message, info.location)
		}
		if info.err != "" {
			message = fmt.Sprintf("%s: %s", message, info.err)
		}
	}
	if info.name != "" && info.userName != "" {
		message = fmt.Sprintf("%s [%s by %s]", message, info.name, info.userName)
	}
	if info.status != "" {
		message = fmt.Sprintf("%s [Status: %s]", message, info.status)
	}

	var b strings.Builder
	b.WriteString(message)
	prefix := strings.Join(h.groups, ".")
	for i, a := range info.extra {
		key := a.Key
		if prefix != "" && i >= bound {
			key = prefix + "." + key
		}
		fmt.Fprintf(&b, " %s=%v", key, a.Value)
	}

	levelColor, levelText := levelStyle(r.Level)
	white, reset := colorWhite, colorReset
	if !h.color {
		levelColor, white, reset = "", "", ""
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintf(h.out, "%s[Merchant] [%s] [%s%s%s] [%s] %s%s\n",
		white,
		r.Time.Format("15:04:05"),
		levelColor,
		levelText,
		white,
		info.logType,
		b.String(),
		reset,
	)
	return err
}

func (i *recordInfo) absorb(a slog.Attr) {
	switch a.Key {
	case "type":
		i.logType = typeOf(a.Value.String())
	case "status":
		i.status = a.Value.String()
	case "name":
		i.name = a.Value.String()
	case "user_name":
		i.userName = a.Value.String()
	case "error":
		i.err = fmt.Sprintf("%v", a.Value.Any())
	case "error_location":
		i.location = a.Value.String()
	default:
		i.extra = append(i.extra, a)
	}
}

func typeOf(v string) LogType {
	switch v {
	case "cmd", "component":
		return TypeCommand
	case "db":
		return TypeDB
	case "error":
		return TypeError
	case "stock":
		return TypeStock
	default:
		return TypeSystem
	}
}

func levelStyle(level slog.Level) (string, string) {
	switch {
	case level >= slog.LevelError:
		return colorRed, "ERROR"
	case level >= slog.LevelWarn:
		return colorYellow, "WARN"
	case level >= slog.LevelInfo:
		return colorGreen, "INFO"
	default:
		return colorPurple, "DEBUG"
	}
}

// disgo chatters at debug level about rate limit buckets and gateway frames.
var skippedMessages = []string{
	"locking buckets",
	"unlocking buckets",
	"gateway event",
	"cleaning up bucket",
	"cleaned up rate limit buckets",
	"binary message received",
	"received gateway message",
	"locking gateway rate limiter",
	"unlocking gateway rate limiter",
	"sending gateway command",
	"new request",
	"new response",
	"locking rest bucket",
	"unlocking rest bucket",
	"rate limit response headers",
	"sending heartbeat",
}

func shouldSkipLog(msg string) bool {
	msg = strings.ToLower(msg)
	for _, skip := range skippedMessages {
		if strings.Contains(msg, skip) {
			return true
		}
	}
	return false
}

func sourceLocation(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	if frame.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
}

// Setup installs the handler as the slog default.
func Setup(level slog.Level, opts ...Option) {
	opts = append([]Option{WithLevel(level)}, opts...)
	slog.SetDefault(slog.New(NewHandler(opts...)))
}
