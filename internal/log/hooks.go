package log

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// fileHook writes formatted entries to an open file at its own level. Hooks
// only see entries that already passed the logger's level, so the file can
// be less verbose than the console but not more.
type fileHook struct {
	mu  sync.Mutex
	w   io.Writer
	lvl logrus.Level
	fmt logrus.Formatter
}

func newFileHook(w io.Writer, lvl logrus.Level) *fileHook {
	return &fileHook{w: w, lvl: lvl, fmt: &logrus.TextFormatter{FullTimestamp: true}}
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels[:h.lvl+1]
}

func (h *fileHook) Fire(e *logrus.Entry) error {
	line, err := h.fmt.Format(e)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(line)
	return err
}

// memoryHook keeps the last N formatted lines in a ring buffer, used by
// diagnostics tooling that wants recent log context without tailing a file.
type memoryHook struct {
	mu    sync.Mutex
	lines []string
	cap   int
	lvl   logrus.Level
	fmt   logrus.Formatter
}

func newMemoryHook(capacity int, lvl logrus.Level) *memoryHook {
	return &memoryHook{cap: capacity, lvl: lvl, fmt: &logrus.TextFormatter{FullTimestamp: true}}
}

func (h *memoryHook) Levels() []logrus.Level {
	return logrus.AllLevels[:h.lvl+1]
}

func (h *memoryHook) Fire(e *logrus.Entry) error {
	line, err := h.fmt.Format(e)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lines = append(h.lines, string(line))
	if len(h.lines) > h.cap {
		h.lines = h.lines[len(h.lines)-h.cap:]
	}
	return nil
}

func (h *memoryHook) snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.lines))
	copy(out, h.lines)
	return out
}
