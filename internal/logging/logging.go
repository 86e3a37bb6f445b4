// ABOUTME: Process-wide structured logger for tagfilter components.
// ABOUTME: Wraps charmbracelet/log with per-component prefixes on stderr.

package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu   sync.Mutex
	root = newRoot(os.Stderr)
)

func newRoot(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          "tagfilter",
		ReportTimestamp: true,
		Level:           log.WarnLevel,
	})
}

// Default returns the root logger.
func Default() *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	return root
}

// For returns a logger whose prefix names the component.
func For(component string) *log.Logger {
	return Default().WithPrefix("tagfilter/" + component)
}

// SetOutput redirects all future loggers to w. Loggers already handed out
// keep their writer.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	level := root.GetLevel()
	root = newRoot(w)
	root.SetLevel(level)
}

// SetLevel parses level ("debug", "info", "warn", "error") and applies it.
// An empty level leaves the current one.
func SetLevel(level string) error {
	level = strings.TrimSpace(level)
	if level == "" {
		return nil
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	Default().SetLevel(lvl)
	return nil
}

// Discard returns a logger that drops everything, for tests.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
