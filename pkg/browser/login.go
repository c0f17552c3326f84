package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// loginProbe is the read surface a login-state check needs. The narrow
// interface exists so the decision algorithm can be exercised without a
// browser, including verifying that passive checks never navigate.
type loginProbe interface {
	Navigate(url string, opts GotoOptions) error
	SettleLoad(timeoutMs float64)
	Wait(ms float64)
	CurrentURL() string
	VisibleText() (string, error)
	MarkerText(selector string) (text string, found bool)
}

// evaluateLogin runs the login decision algorithm, in strict order: login
// URL pattern, then negative keyword scan, then positive marker scan. The
// negative signal always wins over any positive one.
func evaluateLogin(p loginProbe, passive bool) *LoginStatus {
	status := &LoginStatus{LastCheck: time.Now()}

	if passive {
		// Never navigate during a passive check: a redirect would invalidate
		// an in-flight QR scan. Only let any pending load settle.
		p.SettleLoad(2000)
	} else {
		if err := p.Navigate(CreatorHomeURL, GotoOptions{WaitUntil: "domcontentloaded", TimeoutMs: 15000}); err != nil {
			status.Error = fmt.Sprintf("navigate to creator home: %v", err)
			return status
		}
		p.Wait(2000)
	}

	if strings.Contains(strings.ToLower(p.CurrentURL()), "login") {
		return status
	}

	text, err := p.VisibleText()
	if err != nil {
		status.Error = fmt.Sprintf("read page text: %v", err)
		return status
	}
	for _, keyword := range loginKeywords {
		if strings.Contains(text, keyword) {
			return status
		}
	}

	name := PlaceholderUserName
	for _, selector := range userMarkerSelectors {
		marker, found := p.MarkerText(selector)
		if !found {
			continue
		}
		if trimmed := strings.TrimSpace(marker); trimmed != "" {
			name = trimmed
			break
		}
	}

	status.LoggedIn = true
	status.UserInfo = &UserInfo{Name: name}
	return status
}

// CheckLoginStatus determines whether the platform session is
// authenticated. passive checks never navigate; active checks load the
// creator home first. On a positive determination both credential artifacts
// are refreshed immediately. The check never raises: failures come back as
// a logged-out status carrying the error text.
func (s *Session) CheckLoginStatus(passive bool) *LoginStatus {
	if s.ctx == nil {
		return &LoginStatus{LastCheck: time.Now(), Error: "browser context not initialized"}
	}

	if s.page == nil || s.page.IsClosed() {
		page, err := s.ctx.NewPage()
		if err != nil {
			s.log.Warnf("login check: page reopen failed: %v", err)
			return &LoginStatus{LastCheck: time.Now(), Error: fmt.Sprintf("reopen page: %v", err)}
		}
		s.page = page
	}

	status := evaluateLogin(sessionProbe{s: s}, passive)
	if status.Error != "" {
		s.log.Warnf("login check failed: %s", status.Error)
		return status
	}

	if status.LoggedIn {
		s.persistCredentials()
	}
	return status
}

// sessionProbe adapts the live page to loginProbe.
type sessionProbe struct {
	s *Session
}

func (p sessionProbe) Navigate(url string, opts GotoOptions) error {
	return p.s.Goto(url, opts)
}

func (p sessionProbe) SettleLoad(timeoutMs float64) {
	// Best effort: a page with nothing in flight returns immediately, a
	// stuck load is abandoned at the timeout.
	state := playwright.LoadStateDomcontentloaded
	_ = p.s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   state,
		Timeout: playwright.Float(timeoutMs),
	})
}

func (p sessionProbe) Wait(ms float64) {
	p.s.WaitMillis(ms)
}

func (p sessionProbe) CurrentURL() string {
	return p.s.URL()
}

func (p sessionProbe) VisibleText() (string, error) {
	result, err := p.s.page.Evaluate("document.body ? document.body.innerText : ''")
	if err != nil {
		return "", err
	}
	text, _ := result.(string)
	return text, nil
}

func (p sessionProbe) MarkerText(selector string) (string, bool) {
	control, err := pageSurface{page: p.s.page}.Find(selector)
	if err != nil || control == nil {
		return "", false
	}
	text, err := control.Text()
	if err != nil {
		return "", true
	}
	return text, true
}
