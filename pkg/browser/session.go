// Package browser owns the controlled browser used to automate the
// Xiaohongshu creator UI: session lifecycle, credential persistence and the
// ordered-fallback locator engine that keeps the automation alive across
// unannounced markup changes.
package browser

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/creatorkit/redpub/pkg/logging"
	"github.com/playwright-community/playwright-go"
)

// Session is one browser process with one context and one active page. All
// methods must run on the bridge worker; Session does no locking of its own.
type Session struct {
	opts Options
	log  *logging.Logger

	pw      *playwright.Playwright
	browser playwright.Browser
	ctx     playwright.BrowserContext
	page    playwright.Page
}

// NewSession creates an unstarted session. logger may be nil.
func NewSession(opts Options, logger *logging.Logger) *Session {
	if opts.DataDir == "" {
		opts.DataDir = "data"
	}
	if logger == nil {
		logger, _ = logging.NewLogger("browser")
	}
	return &Session{opts: opts, log: logger}
}

// CookiesPath returns the cookie artifact path.
func (s *Session) CookiesPath() string {
	return filepath.Join(s.opts.DataDir, cookiesFileName)
}

// StorageStatePath returns the storage-state artifact path.
func (s *Session) StorageStatePath() string {
	return filepath.Join(s.opts.DataDir, storageStateFileName)
}

// Start launches the browser, creates the context and opens the page. When
// restoreSession is set and a persisted storage-state blob exists it is
// loaded at context creation; cookie-only restore runs afterward as well,
// for state persisted by older versions that only wrote cookies.
func (s *Session) Start(restoreSession bool) error {
	if err := os.MkdirAll(s.opts.DataDir, 0750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return fmt.Errorf("%w: install driver: %v", ErrLaunchFailed, err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("%w: start driver: %v", ErrLaunchFailed, err)
	}
	s.pw = pw

	browser, err := s.launchWithFallback()
	if err != nil {
		s.Close()
		return err
	}
	s.browser = browser

	ctxOpts := playwright.BrowserNewContextOptions{
		Viewport:  &playwright.Size{Width: viewportWidth, Height: viewportHeight},
		UserAgent: playwright.String(desktopUA),
	}
	if restoreSession {
		if _, statErr := os.Stat(s.StorageStatePath()); statErr == nil {
			ctxOpts.StorageStatePath = playwright.String(s.StorageStatePath())
			s.log.Infof("storage state found, restoring full login session")
		}
	}

	ctx, err := browser.NewContext(ctxOpts)
	if err != nil {
		s.Close()
		return fmt.Errorf("create context: %w", err)
	}
	s.ctx = ctx

	if restoreSession {
		s.loadCookies()
	}

	page, err := ctx.NewPage()
	if err != nil {
		s.Close()
		return fmt.Errorf("create page: %w", err)
	}
	s.page = page

	s.log.Infof("browser started (headless=%v)", s.opts.Headless)
	return nil
}

// launchWithFallback tries the installed Chrome first, then Edge, then the
// driver-bundled Chromium. Each failure is logged and the next channel tried.
func (s *Session) launchWithFallback() (playwright.Browser, error) {
	channels := []struct {
		channel string
		label   string
	}{
		{"chrome", "Chrome"},
		{"msedge", "Edge"},
		{"", "bundled Chromium"},
	}

	var lastErr error
	for _, c := range channels {
		opts := playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(s.opts.Headless),
			Args:     []string{"--disable-blink-features=AutomationControlled"},
		}
		if c.channel != "" {
			opts.Channel = playwright.String(c.channel)
		}

		browser, err := s.pw.Chromium.Launch(opts)
		if err == nil {
			s.log.Infof("browser launched via %s", c.label)
			return browser, nil
		}
		lastErr = err
		s.log.Warnf("%s launch failed, trying next channel: %v", c.label, err)
	}

	return nil, fmt.Errorf("%w: all launch channels exhausted: %v", ErrLaunchFailed, lastErr)
}

// loadCookies applies the persisted cookie set to the context. Missing or
// unreadable files are non-fatal.
func (s *Session) loadCookies() {
	data, err := os.ReadFile(s.CookiesPath())
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warnf("cookie file unreadable: %v", err)
		}
		return
	}

	var cookies []playwright.OptionalCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		s.log.Warnf("cookie file corrupt: %v", err)
		return
	}
	if err := s.ctx.AddCookies(cookies); err != nil {
		s.log.Warnf("cookie restore failed: %v", err)
		return
	}
	s.log.Infof("cookies restored (%d)", len(cookies))
}

// SaveCookies persists the context's cookie set. Failures are returned for
// logging but must not abort the flow that triggered the save.
func (s *Session) SaveCookies() error {
	if s.ctx == nil {
		return fmt.Errorf("no browser context")
	}
	cookies, err := s.ctx.Cookies()
	if err != nil {
		return fmt.Errorf("read cookies: %w", err)
	}
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}
	if err := os.WriteFile(s.CookiesPath(), data, 0600); err != nil {
		return fmt.Errorf("write cookies: %w", err)
	}
	return nil
}

// SaveStorageState persists the full credential blob (cookies plus client
// storage), the preferred artifact for session restore.
func (s *Session) SaveStorageState() error {
	if s.ctx == nil {
		return fmt.Errorf("no browser context")
	}
	if _, err := s.ctx.StorageState(s.StorageStatePath()); err != nil {
		return fmt.Errorf("write storage state: %w", err)
	}
	return nil
}

// persistCredentials refreshes both artifacts, logging failures. Called on
// every positive login determination so credentials self-heal.
func (s *Session) persistCredentials() {
	if err := s.SaveCookies(); err != nil {
		s.log.Errorf("cookie save failed: %v", err)
	}
	if err := s.SaveStorageState(); err != nil {
		s.log.Errorf("storage state save failed: %v", err)
	}
}

// PageOpen reports whether the session has a live page.
func (s *Session) PageOpen() bool {
	return s.page != nil && !s.page.IsClosed()
}

// Goto navigates the page.
func (s *Session) Goto(url string, opts GotoOptions) error {
	gotoOpts := playwright.PageGotoOptions{}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		gotoOpts.WaitUntil = &waitUntil
	}
	if opts.TimeoutMs > 0 {
		gotoOpts.Timeout = playwright.Float(opts.TimeoutMs)
	}
	if _, err := s.page.Goto(url, gotoOpts); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// WaitMillis blocks the page for the given settle delay.
func (s *Session) WaitMillis(ms float64) {
	if s.page != nil {
		s.page.WaitForTimeout(ms)
	}
}

// URL returns the current page URL.
func (s *Session) URL() string {
	if s.page == nil {
		return ""
	}
	return s.page.URL()
}

// MainSurface returns the page's main control surface.
func (s *Session) MainSurface() ControlSurface {
	return pageSurface{page: s.page}
}

// AllSurfaces returns the main frame plus every embedded frame, in scan
// order for the upload-control search.
func (s *Session) AllSurfaces() []ControlSurface {
	surfaces := []ControlSurface{frameSurface{frame: s.page.MainFrame()}}
	for _, frame := range s.page.Frames() {
		surfaces = append(surfaces, frameSurface{frame: frame})
	}
	return surfaces
}

// Keyboard returns the page keyboard for keystroke-emulation fallbacks.
func (s *Session) Keyboard() Keyboard {
	return pwKeyboard{page: s.page}
}

// Close tears down page, context, browser and driver in that order.
// Idempotent: closing a never-started or already-closed session is a no-op.
func (s *Session) Close() error {
	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}
	if s.ctx != nil {
		_ = s.ctx.Close()
		s.ctx = nil
	}
	if s.browser != nil {
		_ = s.browser.Close()
		s.browser = nil
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			s.log.Warnf("driver stop failed: %v", err)
		}
		s.pw = nil
	}
	s.log.Infof("browser closed")
	return nil
}

// Manager owns the process's single live session. Acquiring while one is
// live reuses it rather than silently replacing it, which is what prevents
// duplicate login popup windows.
type Manager struct {
	mu      sync.Mutex
	opts    Options
	log     *logging.Logger
	current *Session
}

// NewManager creates a session manager.
func NewManager(opts Options, logger *logging.Logger) *Manager {
	if logger == nil {
		logger, _ = logging.NewLogger("browser")
	}
	return &Manager{opts: opts, log: logger}
}

// Acquire returns the live session, or starts a fresh one when none is
// live.
func (m *Manager) Acquire(restoreSession bool) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current.PageOpen() {
		return m.current, nil
	}

	session := NewSession(m.opts, m.log)
	if err := session.Start(restoreSession); err != nil {
		return nil, err
	}
	m.current = session
	return session, nil
}

// Current returns the live session, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current.PageOpen() {
		return m.current
	}
	return nil
}

// CloseCurrent tears down the live session, if any.
func (m *Manager) CloseCurrent() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	err := m.current.Close()
	m.current = nil
	return err
}

// DataDir exposes the artifact directory for collaborators that persist
// adjacent state (the auth status record).
func (m *Manager) DataDir() string {
	if m.opts.DataDir == "" {
		return "data"
	}
	return m.opts.DataDir
}

// CookiesPath returns the cookie artifact path without requiring a live
// session.
func (m *Manager) CookiesPath() string {
	return filepath.Join(m.DataDir(), cookiesFileName)
}

// StorageStatePath returns the storage-state artifact path without
// requiring a live session.
func (m *Manager) StorageStatePath() string {
	return filepath.Join(m.DataDir(), storageStateFileName)
}
