// Package log wires a single process-wide logrus logger, following Design
// Note "Logging": no package-init side effects, one thread-safe value
// configured at startup via Init, memory-buffer and file sinks attached as
// logrus hooks, each guarding its own writes with its own mutex.
package log

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu     sync.Mutex
	logger = logrus.New()
	ring   *memoryHook
)

func init() {
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.InfoLevel)
}

// Options configures the logger level and two optional sinks: an
// append-only file sink (no rotation) and a capped in-memory ring buffer
// used by diagnostics tooling.
type Options struct {
	Level        string
	FilePath     string
	FileLevel    string
	MemoryCap    int
	MemoryLevel  string
}

// Init (re)configures the package logger. Safe to call once at program
// startup; concurrent calls are serialized.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	if opts.Level != "" {
		lvl, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return err
		}
		logger.SetLevel(lvl)
	}

	if opts.FilePath != "" {
		f, err := os.OpenFile(opts.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		lvl := logger.Level
		if opts.FileLevel != "" {
			if l, err := logrus.ParseLevel(opts.FileLevel); err == nil {
				lvl = l
			}
		}
		logger.AddHook(newFileHook(f, lvl))
	}

	if opts.MemoryCap > 0 {
		lvl := logger.Level
		if opts.MemoryLevel != "" {
			if l, err := logrus.ParseLevel(opts.MemoryLevel); err == nil {
				lvl = l
			}
		}
		ring = newMemoryHook(opts.MemoryCap, lvl)
		logger.AddHook(ring)
	}

	return nil
}

// L returns the shared logger. Never nil.
func L() *logrus.Logger {
	return logger
}

// RecentEntries returns the most recent lines captured by the in-memory
// sink, oldest first. Empty if no memory sink was configured.
func RecentEntries() []string {
	mu.Lock()
	defer mu.Unlock()
	if ring == nil {
		return nil
	}
	return ring.snapshot()
}
