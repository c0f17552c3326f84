// Package auth manages the platform login lifecycle: opening the QR login
// window, polling for scan completion, and keeping the on-disk credential
// artifacts consistent with what the browser last observed.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/creatorkit/redpub/pkg/browser"
	"github.com/creatorkit/redpub/pkg/logging"
)

const statusFileName = "xiaohongshu_auth_status.json"

const loginEntrySelector = `text="立即登录"`

// Result is the outcome of a login-lifecycle operation.
type Result struct {
	Success  bool              `json:"success"`
	Message  string            `json:"message,omitempty"`
	UserInfo *browser.UserInfo `json:"user_info,omitempty"`
}

// loginSession is the slice of a browser session the login flow drives.
// *browser.Session satisfies it.
type loginSession interface {
	PageOpen() bool
	Goto(url string, opts browser.GotoOptions) error
	WaitMillis(ms float64)
	MainSurface() browser.ControlSurface
	CheckLoginStatus(passive bool) *browser.LoginStatus
}

// Service runs the login lifecycle against the managed browser session and
// owns the auth status record on disk.
type Service struct {
	mu  sync.Mutex
	log *logging.Logger

	cookiesPath      string
	storageStatePath string
	statusPath       string

	// Session access, injected so tests can run without a browser.
	current  func() loginSession
	acquire  func(restoreSession bool) (loginSession, error)
	closeAll func() error
}

// NewService creates the auth service on top of the shared session manager.
// Sharing the manager with the publisher is what makes the duplicate-popup
// guard work across both flows. logger may be nil.
func NewService(manager *browser.Manager, logger *logging.Logger) *Service {
	if logger == nil {
		logger, _ = logging.NewLogger("auth")
	}
	return &Service{
		log:              logger,
		cookiesPath:      manager.CookiesPath(),
		storageStatePath: manager.StorageStatePath(),
		statusPath:       filepath.Join(manager.DataDir(), statusFileName),
		current: func() loginSession {
			if s := manager.Current(); s != nil {
				return s
			}
			return nil
		},
		acquire: func(restoreSession bool) (loginSession, error) {
			return manager.Acquire(restoreSession)
		},
		closeAll: manager.CloseCurrent,
	}
}

// Status reads the persisted login state. Disk only, no browser involved.
// A missing cookie file means logged-out no matter what the status record
// says: the record is a cache of the last check, the cookies are the
// credential.
func (s *Service) Status() *browser.LoginStatus {
	if _, err := os.Stat(s.cookiesPath); err != nil {
		return &browser.LoginStatus{}
	}

	data, err := os.ReadFile(s.statusPath)
	if err != nil {
		return &browser.LoginStatus{}
	}
	var status browser.LoginStatus
	if err := json.Unmarshal(data, &status); err != nil {
		s.log.Warnf("auth status record corrupt: %v", err)
		return &browser.LoginStatus{}
	}
	return &status
}

// StartLogin opens the QR login window. When a login window is already open
// the existing one is reported instead of opening a second popup. The fresh
// session deliberately skips credential restore so a stale historical login
// can never masquerade as the account being linked.
func (s *Service) StartLogin() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur := s.current(); cur != nil && cur.PageOpen() {
		return &Result{Success: true, Message: "登录窗口已打开，请在现有窗口中完成扫码"}
	}

	session, err := s.acquire(false)
	if err != nil {
		s.log.Errorf("login window launch failed: %v", err)
		return &Result{Message: fmt.Sprintf("启动登录失败: %v", err)}
	}

	if err := session.Goto(browser.CreatorHomeURL, browser.GotoOptions{}); err != nil {
		s.log.Errorf("login page navigation failed: %v", err)
		return &Result{Message: fmt.Sprintf("启动登录失败: %v", err)}
	}
	session.WaitMillis(1000)

	if control, err := session.MainSurface().Find(loginEntrySelector); err == nil && control != nil {
		if control.Click() == nil {
			session.WaitMillis(2000)
		}
	}

	s.log.Infof("login window opened, waiting for QR scan")
	return &Result{Success: true, Message: "请在弹出的浏览器窗口中扫码登录"}
}

// CheckLogin runs one passive status check against the open login window and
// persists the status record when the check confirms a login.
func (s *Service) CheckLogin() *browser.LoginStatus {
	cur := s.current()
	if cur == nil {
		return &browser.LoginStatus{Error: "浏览器未启动"}
	}

	status := cur.CheckLoginStatus(true)
	if status.LoggedIn {
		s.saveStatus(status)
	}
	return status
}

// CompleteLogin polls passive checks every two seconds until the scan is
// confirmed or the timeout elapses. The loop never navigates; moving the
// page would tear the QR code out from under the user mid-scan.
func (s *Service) CompleteLogin(timeoutSeconds int) *Result {
	cur := s.current()
	if cur == nil {
		return &Result{Message: "浏览器未启动"}
	}

	const pollIntervalMs = 2000
	attempts := timeoutSeconds * 1000 / pollIntervalMs
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		status := cur.CheckLoginStatus(true)
		if status.LoggedIn {
			s.saveStatus(status)
			s.log.Infof("QR login confirmed (user=%s)", userName(status))
			return &Result{Success: true, UserInfo: status.UserInfo, Message: "登录成功"}
		}
		cur.WaitMillis(pollIntervalMs)
	}

	s.log.Warnf("QR login wait timed out (%ds)", timeoutSeconds)
	return &Result{Message: "登录超时，请重试"}
}

// CloseBrowser tears down the login window. Called once a login is
// confirmed; the credentials are on disk and the window has served its
// purpose.
func (s *Service) CloseBrowser() error {
	return s.closeAll()
}

// Logout closes the browser first, then removes the credential artifacts.
// Order matters: a live session's polling could re-persist credentials
// after the delete. The final explicit logged-out record keeps concurrent
// status reads from seeing a stale value.
func (s *Service) Logout() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.closeAll(); err != nil {
		s.log.Warnf("session close during logout failed: %v", err)
	}

	for _, path := range []string{s.cookiesPath, s.statusPath, s.storageStatePath} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.log.Warnf("credential artifact removal failed: %v", err)
		}
	}

	s.saveStatus(&browser.LoginStatus{})

	s.log.Infof("logged out, credential artifacts removed")
	return &Result{Success: true, Message: "已退出登录"}
}

func (s *Service) saveStatus(status *browser.LoginStatus) {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		s.log.Errorf("auth status encode failed: %v", err)
		return
	}
	if err := os.WriteFile(s.statusPath, data, 0600); err != nil {
		s.log.Errorf("auth status write failed: %v", err)
	}
}

func userName(status *browser.LoginStatus) string {
	if status.UserInfo == nil {
		return ""
	}
	return status.UserInfo.Name
}
