package printer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

type Formatter func(string, ...interface{}) string

// PrinterConfig holds the look of every line: a module column, a level
// symbol and the message followed by its attributes.
type PrinterConfig struct {
	Writer               io.Writer
	FirstColumnFormatter Formatter
	OutputFormatter      Formatter
	DebugFormatter       Formatter
	InfoFormatter        Formatter
	WarnFormatter        Formatter
	ErrorFormatter       Formatter
	DebugSymbol          string
	InfoSymbol           string
	WarnSymbol           string
	ErrorSymbol          string
}

func newColor(nocolor bool, attrs ...color.Attribute) Formatter {
	c := color.New(attrs...)
	if nocolor {
		c.DisableColor()
	} else {
		c.EnableColor()
	}
	return c.SprintfFunc()
}

func DefaultPrinterConfig(nocolor bool) *PrinterConfig {
	return &PrinterConfig{
		Writer:               os.Stderr,
		FirstColumnFormatter: newColor(nocolor, color.FgBlue, color.Bold),
		OutputFormatter:      newColor(nocolor, color.FgHiYellow),
		DebugFormatter:       newColor(nocolor, color.FgHiBlack),
		InfoFormatter:        newColor(nocolor, color.FgGreen, color.Bold),
		WarnFormatter:        newColor(nocolor, color.FgYellow, color.Bold),
		ErrorFormatter:       newColor(nocolor, color.FgRed, color.Bold),
		DebugSymbol:          "[~]",
		InfoSymbol:           "[*]",
		WarnSymbol:           "[!]",
		ErrorSymbol:          "[-]",
	}
}

type HandlerOptions struct {
	Level   slog.Leveler
	Module  string
	NoColor bool
	Config  *PrinterConfig
}

// Handler is a slog.Handler printing one status line per record:
//
//	MODULE  [*] message                                 key=value
type Handler struct {
	mu     *sync.Mutex
	opts   HandlerOptions
	config *PrinterConfig
	attrs  string
	group  string
}

func NewHandler(w io.Writer, opts *HandlerOptions) *Handler {
	var o HandlerOptions
	if opts != nil {
		o = *opts
	}
	if o.Level == nil {
		o.Level = slog.LevelInfo
	}
	cfg := o.Config
	if cfg == nil {
		cfg = DefaultPrinterConfig(o.NoColor)
	}
	if w != nil {
		c := *cfg
		c.Writer = w
		cfg = &c
	}
	return &Handler{mu: &sync.Mutex{}, opts: o, config: cfg}
}

// New returns a logger printing to w at the given level.
func New(w io.Writer, module string, level slog.Level, nocolor bool) *slog.Logger {
	return slog.New(NewHandler(w, &HandlerOptions{Level: level, Module: module, NoColor: nocolor}))
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *Handler) symbol(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return h.config.ErrorFormatter("%s ", h.config.ErrorSymbol)
	case level >= slog.LevelWarn:
		return h.config.WarnFormatter("%s ", h.config.WarnSymbol)
	case level >= slog.LevelInfo:
		return h.config.InfoFormatter("%s ", h.config.InfoSymbol)
	}
	return h.config.DebugFormatter("%s ", h.config.DebugSymbol)
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var row strings.Builder
	if h.opts.Module != "" {
		row.WriteString(h.config.FirstColumnFormatter("%-8s", h.opts.Module))
	}
	row.WriteString(h.symbol(r.Level))
	row.WriteString(fmt.Sprintf("%-40s", r.Message))

	var attrs strings.Builder
	attrs.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&attrs, h.group, a)
		return true
	})
	if attrs.Len() > 0 {
		row.WriteString(h.config.OutputFormatter("%s", strings.TrimSpace(attrs.String())))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.config.Writer, strings.TrimRight(row.String(), " "))
	return err
}

func writeAttr(b *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(b, key, ga)
		}
		return
	}
	val := a.Value.String()
	if strings.ContainsAny(val, " \t\"") {
		val = fmt.Sprintf("%q", val)
	}
	fmt.Fprintf(b, " %s=%s", key, val)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		writeAttr(&b, h.group, a)
	}
	c := *h
	c.attrs = b.String()
	return &c
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	if c.group != "" {
		c.group += "." + name
	} else {
		c.group = name
	}
	return &c
}
