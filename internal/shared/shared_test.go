package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogger(t *testing.T) {
	t.Run("ConfigureLogger", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&buf)
		ConfigureLogger(l, LogConfig{Level: "warn", Format: "json"})

		l.Info("hidden")
		l.Warn("shown", "key", "value")

		out := buf.String()
		if strings.Contains(out, "hidden") {
			t.Errorf("info line should be filtered at warn level: %s", out)
		}
		if !strings.Contains(out, `"key":"value"`) {
			t.Errorf("expected JSON output, got %s", out)
		}
	})

	t.Run("ConfigureLogger Unknown Level", func(t *testing.T) {
		l := NewLogger(&bytes.Buffer{})
		ConfigureLogger(l, LogConfig{Level: "loud"})
		if l.GetLevel() != log.InfoLevel {
			t.Errorf("expected info level fallback, got %v", l.GetLevel())
		}
	})

	t.Run("NewFileLogger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "plzip.log")
		l, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("failed to create file logger: %v", err)
		}
		l.Info("written")
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(content), "written") {
			t.Errorf("expected log file to contain message, got %q", content)
		}
	})
}

func TestMessagesFor(t *testing.T) {
	if got := MessagesFor("pt-BR").SearchFailed; got != "Erro ao buscar playlist" {
		t.Errorf("unexpected pt-BR message: %s", got)
	}
	if got := MessagesFor("xx").SearchFailed; got != MessagesFor("en").SearchFailed {
		t.Errorf("unknown locale should fall back to en, got %s", got)
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == "" || a == b {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a, b)
	}
}
