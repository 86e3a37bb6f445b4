// ABOUTME: Tests for the logging wrapper.
// ABOUTME: Verifies level parsing, prefixes and output redirection.

package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestSetLevel(t *testing.T) {
	defer func() { Default().SetLevel(log.WarnLevel) }()

	if err := SetLevel("debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Default().GetLevel() != log.DebugLevel {
		t.Errorf("expected debug level, got %v", Default().GetLevel())
	}

	if err := SetLevel(""); err != nil {
		t.Fatalf("empty level should be ignored: %v", err)
	}
	if err := SetLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestForPrefixesComponent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	For("storage").Warn("sync write failed", "key", "filters")

	out := buf.String()
	if !strings.Contains(out, "tagfilter/storage") {
		t.Errorf("expected component prefix in %q", out)
	}
	if !strings.Contains(out, "sync write failed") {
		t.Errorf("expected message in %q", out)
	}
}

func TestDiscard(t *testing.T) {
	Discard().Error("nothing to see")
}
