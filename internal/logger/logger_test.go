package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNew_WritesDailyFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	log, err := New(Options{Dir: dir, Level: "debug"})
	if err != nil {
		t.Fatal(err)
	}
	log.Debugw("hello", "k", "v")
	_ = log.Sync()

	name := filepath.Join(dir, time.Now().Format("2006-01-02")+".log")
	b, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("log file: %v", err)
	}
	if len(b) == 0 {
		t.Fatal("log file empty")
	}
	if zap.L() == prev {
		t.Fatal("global logger not replaced")
	}
}

func TestParseLevel(t *testing.T) {
	if _, err := New(Options{Dir: t.TempDir(), Level: "loud"}); err == nil {
		t.Fatal("bad level accepted")
	}
}
