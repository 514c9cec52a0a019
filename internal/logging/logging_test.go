package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSink_ConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	sink := Open(Options{Console: &buf})
	defer sink.Close()

	sink.Logger("sync").Printf("Scanned %d contacts", 3)

	if !strings.Contains(buf.String(), "[sync] ") || !strings.Contains(buf.String(), "Scanned 3 contacts") {
		t.Errorf("console output = %q", buf.String())
	}
}

func TestSink_TeesToFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "rolodex.log")
	sink := Open(Options{Console: &buf, File: path, MaxSizeMB: 1})

	sink.Logger("tagger").Println("batch 0 discarded")
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "[tagger] ") {
		t.Errorf("log file = %q", data)
	}
	if buf.Len() == 0 {
		t.Error("console received nothing")
	}
}

func TestSink_QuietStillWritesFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "rolodex.log")
	sink := Open(Options{Console: &buf, File: path, Quiet: true})

	sink.Logger("daemon").Println("hello")
	sink.Close()

	if buf.Len() != 0 {
		t.Errorf("quiet console received %q", buf.String())
	}
	data, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(data), "hello") {
		t.Errorf("log file = %q, err = %v", data, err)
	}
}
