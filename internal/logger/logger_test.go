package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNew_WritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	log, err := New(Options{Dir: dir, Level: "debug"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Infow("sign-in ok", "user", "u1")
	_ = log.Sync()

	raw, err := os.ReadFile(filepath.Join(dir, time.Now().Format("2006-01-02")+".log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(string(raw)), "\n") {
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("line is not JSON: %q", line)
		}
		if rec["msg"] == "sign-in ok" {
			found = true
			if rec["user"] != "u1" || rec["level"] != "info" {
				t.Errorf("unexpected record: %v", rec)
			}
		}
	}
	if !found {
		t.Fatal("log line not written")
	}
	if zap.L() == prev {
		t.Error("global logger not replaced")
	}
}

func TestNew_DefaultDirUnderRoot(t *testing.T) {
	root := t.TempDir()
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	if _, err := New(Options{Root: root, Level: "bogus"}); err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "logs")); err != nil {
		t.Fatalf("logs dir not created: %v", err)
	}
}
