package logger

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const filteredField = "_filtered"

// AsyncHook writes entries from a background goroutine so request handling never waits on I/O.
// Entries are dropped when the buffer is full.
type AsyncHook struct {
	writers []io.Writer
	entries chan *logrus.Entry
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

// NewAsyncHookWithWriters starts the writer goroutine.
func NewAsyncHookWithWriters(writers []io.Writer, bufferSize int) *AsyncHook {
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	h := &AsyncHook{
		writers: writers,
		entries: make(chan *logrus.Entry, bufferSize),
	}
	h.wg.Add(1)
	go h.processEntries()
	return h
}

func (h *AsyncHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *AsyncHook) Fire(entry *logrus.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		h.write(entry)
		return nil
	}

	select {
	case h.entries <- entry:
	default:
	}
	return nil
}

func (h *AsyncHook) processEntries() {
	defer h.wg.Done()

	for entry := range h.entries {
		func() {
			defer func() {
				if r := recover(); r != nil {
					fmt.Fprintf(os.Stderr, "[LOGGER PANIC] recovered: %v\n", r)
					debug.PrintStack()
				}
			}()
			h.write(entry)
		}()
	}
}

func (h *AsyncHook) write(entry *logrus.Entry) {
	if filtered, ok := entry.Data[filteredField].(bool); ok && filtered {
		return
	}
	if _, ok := entry.Data[filteredField]; ok {
		clean := *entry
		clean.Data = make(logrus.Fields, len(entry.Data))
		for k, v := range entry.Data {
			if k != filteredField {
				clean.Data[k] = v
			}
		}
		entry = &clean
	}

	data, err := entry.Logger.Formatter.Format(entry)
	if err != nil {
		return
	}
	for _, w := range h.writers {
		_, _ = w.Write(data)
	}
}

// Close drains pending entries.
func (h *AsyncHook) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	close(h.entries)
	h.mu.Unlock()

	h.wg.Wait()
	return nil
}

// FilterHook marks entries outside the configured module and level allow-lists.
// AsyncHook skips marked entries.
type FilterHook struct {
	modules  map[string]bool
	logTypes map[string]bool
}

func NewFilterHook(cfg *LogConfig) *FilterHook {
	return &FilterHook{
		modules:  parseFilter(cfg.FilterModules),
		logTypes: parseFilter(cfg.FilterLogTypes),
	}
}

// parseFilter turns "a,b,c" into a lookup set. Nil means allow all.
func parseFilter(s string) map[string]bool {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return nil
	}
	out := make(map[string]bool)
	for _, v := range strings.Split(s, ",") {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out[v] = true
		}
	}
	return out
}

func (h *FilterHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *FilterHook) Fire(entry *logrus.Entry) error {
	if h.logTypes != nil && !h.logTypes[entry.Level.String()] {
		entry.Data[filteredField] = true
		return nil
	}
	if h.modules != nil {
		// entries without a module always pass
		if module, ok := entry.Data["module"].(string); ok && module != "" && !h.modules[strings.ToLower(module)] {
			entry.Data[filteredField] = true
		}
	}
	return nil
}
