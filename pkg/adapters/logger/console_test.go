package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/user/playdecoder/pkg/ports"
)

func TestConsoleWriter_Levels(t *testing.T) {
	var stdout, stderr bytes.Buffer
	l := NewConsoleWriter(ports.LevelInfo, &stdout, &stderr)

	l.Debug("hidden %d", 1)
	l.Info("visible %d", 2)
	l.Warn("careful %d", 3)
	l.Error("broken %d", 4)

	if got := stdout.String(); got != "visible 2\n" {
		t.Errorf("unexpected stdout %q", got)
	}
	if got := stderr.String(); got != "careful 3\nbroken 4\n" {
		t.Errorf("unexpected stderr %q", got)
	}
}

func TestConsoleWriter_Component(t *testing.T) {
	var stdout bytes.Buffer
	l := NewConsoleWriter(ports.LevelDebug, &stdout, &stdout).WithComponent("decoder")

	l.Debug("step %d", 7)

	if got := stdout.String(); got != "[decoder] step 7\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestConsoleWriter_Quiet(t *testing.T) {
	var out bytes.Buffer
	l := NewConsoleWriter(ports.LevelQuiet, &out, &out)

	l.Error("should not appear")

	if out.Len() != 0 {
		t.Errorf("expected no output, got %q", out.String())
	}
}

func TestConsoleWriter_ConcurrentComponents(t *testing.T) {
	var out bytes.Buffer
	root := NewConsoleWriter(ports.LevelInfo, &out, &out)

	var wg sync.WaitGroup
	for _, name := range []string{"decoder", "session"} {
		l := root.WithComponent(name)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				l.Info("line %d", i)
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 200 {
		t.Fatalf("expected 200 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "[decoder] line ") && !strings.HasPrefix(line, "[session] line ") {
			t.Fatalf("interleaved line %q", line)
		}
	}
}

func TestNoop(t *testing.T) {
	l := NewNoop()
	if l.WithComponent("x") != ports.Logger(l) {
		t.Error("expected the same no-op logger")
	}
	l.Error("ignored %s", "x")
}
