package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// setupTestDir points the package at a temp log directory and resets the
// session state, restoring everything on cleanup.
func setupTestDir(t *testing.T) {
	t.Helper()

	tempDir := t.TempDir()

	origLogDir := logDir
	origInitErr := initErr
	origSessionID := sessionID

	logDir = tempDir
	initErr = nil
	initOnce = sync.Once{}
	initOnce.Do(func() {}) // mark initialized so NewLogger uses tempDir
	sessionID = ""
	sessionIDOnce = sync.Once{}

	// sync.Once must never be copied, so restore by re-priming fresh ones
	// with the saved values instead of saving the originals.
	t.Cleanup(func() {
		logDir = origLogDir
		initErr = origInitErr
		sessionID = origSessionID

		initOnce = sync.Once{}
		if origLogDir != "" || origInitErr != nil {
			initOnce.Do(func() {})
		}
		sessionIDOnce = sync.Once{}
		if origSessionID != "" {
			sessionIDOnce.Do(func() {})
		}
	})
}

func TestNewLoggerWritesToSessionFile(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("browser")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	logger.Infof("session started")
	logger.Warnf("cookie save failed: %v", os.ErrPermission)

	data, err := os.ReadFile(logger.LogPath())
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	content := string(data)
	if !strings.Contains(content, "[browser] [INFO] session started") {
		t.Errorf("expected info line, got:\n%s", content)
	}
	if !strings.Contains(content, "[WARN] cookie save failed") {
		t.Errorf("expected warn line, got:\n%s", content)
	}
}

func TestComponentsShareSessionFile(t *testing.T) {
	setupTestDir(t)

	a, err := NewLogger("auth")
	if err != nil {
		t.Fatalf("NewLogger(auth) failed: %v", err)
	}
	defer a.Close()

	b, err := NewLogger("publish")
	if err != nil {
		t.Fatalf("NewLogger(publish) failed: %v", err)
	}
	defer b.Close()

	if a.LogPath() != b.LogPath() {
		t.Errorf("expected shared log file, got %q and %q", a.LogPath(), b.LogPath())
	}
	if a.SessionID() != b.SessionID() {
		t.Errorf("expected shared session ID, got %q and %q", a.SessionID(), b.SessionID())
	}

	wantName := a.SessionID() + "-redpub.log"
	if filepath.Base(a.LogPath()) != wantName {
		t.Errorf("expected file name %q, got %q", wantName, filepath.Base(a.LogPath()))
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("bridge")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}
