// Package publish drives the multi-stage note-publish flow against the
// creator UI: navigation with a retry ladder, frame-scanning image upload,
// selector-fallback form filling and post-submit verification.
package publish

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/creatorkit/redpub/pkg/browser"
	"github.com/creatorkit/redpub/pkg/logging"
	"github.com/creatorkit/redpub/pkg/paths"
	"github.com/creatorkit/redpub/pkg/textutil"
)

// Page is what the orchestrator needs from a live browser session.
// *browser.Session satisfies it; tests drive the flow with fakes.
type Page interface {
	Goto(url string, opts browser.GotoOptions) error
	WaitMillis(ms float64)
	URL() string
	MainSurface() browser.ControlSurface
	AllSurfaces() []browser.ControlSurface
	Keyboard() browser.Keyboard
	CheckLoginStatus(passive bool) *browser.LoginStatus
}

var noteIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`note/([a-zA-Z0-9]+)`),
	regexp.MustCompile(`explore/([a-zA-Z0-9]+)`),
}

// Publisher runs publish flows on the managed browser session.
type Publisher struct {
	manager  *browser.Manager
	resolver *paths.Resolver
	log      *logging.Logger
}

// New creates a publisher. logger may be nil.
func New(manager *browser.Manager, resolver *paths.Resolver, logger *logging.Logger) *Publisher {
	if logger == nil {
		logger, _ = logging.NewLogger("publish")
	}
	return &Publisher{manager: manager, resolver: resolver, log: logger}
}

// Publish acquires the managed session and runs the flow. On confirmed
// success the session is closed; on failure it is deliberately left open so
// an operator can inspect the page the flow died on.
func (p *Publisher) Publish(req Request) *Result {
	trace := traceLabel(req.TraceID)

	// An invalid request must not cost a browser launch.
	if textutil.TruncateTitle(req.Title) == "" {
		p.log.Warnf("%s empty title, rejecting", trace)
		return failure(ErrInvalidRequest, "标题不能为空")
	}
	if len(req.ImageRefs) == 0 {
		p.log.Warnf("%s empty image list, rejecting", trace)
		return failure(ErrInvalidRequest, "请选择至少一张图片")
	}

	session, err := p.manager.Acquire(true)
	if err != nil {
		p.log.Errorf("%s session start failed: %v", trace, err)
		return failure(err, fmt.Sprintf("浏览器启动失败: %v", err))
	}

	result := p.publishOn(session, req)
	if result.Success {
		p.log.Infof("%s publish confirmed, closing browser", trace)
		if err := p.manager.CloseCurrent(); err != nil {
			p.log.Warnf("%s session close failed: %v", trace, err)
		}
	} else {
		p.log.Warnf("%s publish failed, leaving browser open for inspection", trace)
	}
	return result
}

// publishOn runs the stage machine against one page.
func (p *Publisher) publishOn(page Page, req Request) *Result {
	trace := traceLabel(req.TraceID)

	// Boundary truncation, applied exactly once.
	title := textutil.TruncateTitle(req.Title)
	content := textutil.TruncateContent(req.Content)
	if utf8.RuneCountInString(strings.TrimSpace(req.Title)) > textutil.MaxTitleLength {
		p.log.Warnf("%s title over %d chars, truncated", trace, textutil.MaxTitleLength)
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.Content)) > textutil.MaxContentLength {
		p.log.Warnf("%s content over %d chars, truncated", trace, textutil.MaxContentLength)
	}

	p.log.Infof("%s publish flow started (title_len=%d, content_len=%d, images=%d, tags=%d)",
		trace, utf8.RuneCountInString(title), utf8.RuneCountInString(content), len(req.ImageRefs), len(req.Tags))

	if title == "" {
		return failure(ErrInvalidRequest, "标题不能为空")
	}
	if len(req.ImageRefs) == 0 {
		// Rejected up front: an empty request must not touch the page.
		return failure(ErrInvalidRequest, "请选择至少一张图片")
	}

	status := page.CheckLoginStatus(true)
	p.log.Infof("%s login precondition: logged_in=%v", trace, status.LoggedIn)
	if !status.LoggedIn {
		return failure(ErrLoginRequired, "未登录，请先扫码登录")
	}

	if !p.navigateToPublish(page, trace) {
		return failure(ErrNavigationFailed, "打开小红书发布页超时，请检查网络或稍后重试")
	}

	imagePaths := p.resolveImages(req.ImageRefs, trace)
	if len(imagePaths) == 0 {
		return failure(ErrNoImages, "图片文件不存在或路径无效")
	}

	if err := p.uploadImages(page, imagePaths, trace); err != nil {
		return failure(err, "未找到可用的图片上传控件，请检查小红书页面结构是否变更")
	}

	if !p.waitEditorReady(page, trace) {
		return failure(ErrEditorNotReady, "图片上传后未等到标题/正文编辑区，请检查页面加载状态")
	}

	if err := p.fillTitle(page, title, trace); err != nil {
		return failure(err, "未找到标题输入框，发布中止（避免空内容误发布）")
	}
	page.WaitMillis(1000)

	if err := p.fillContent(page, content, trace); err != nil {
		return failure(err, "未找到正文输入区域，发布中止（避免空内容误发布）")
	}
	page.WaitMillis(1000)

	if len(req.Tags) > 0 {
		outcome := p.fillTags(page, req.Tags, trace)
		if outcome.Skipped {
			p.log.Warnf("%s tag stage skipped: %s", trace, outcome.Reason)
		} else {
			p.log.Infof("%s tags added: %d/%d", trace, outcome.Added, outcome.Attempted)
		}
	}

	if err := p.clickSubmit(page, trace); err != nil {
		return failure(err, "发布失败，请手动检查")
	}

	return p.verify(page, trace)
}

// navigateToPublish performs the two-stage navigation: bootstrap page, then
// the image-post variant. Each stage walks the retry ladder; the bootstrap
// stage additionally falls back to the plain publish URL.
func (p *Publisher) navigateToPublish(page Page, trace string) bool {
	bootstrapOK := false
	for attempt, opts := range navAttempts {
		p.log.Infof("%s opening publish page (attempt=%d, wait_until=%s, timeout=%.0f)",
			trace, attempt+1, opts.WaitUntil, opts.TimeoutMs)
		if err := page.Goto(bootstrapPublishURL, opts); err != nil {
			p.log.Warnf("%s publish page navigation failed (attempt=%d): %v", trace, attempt+1, err)
			page.WaitMillis(1000)
			continue
		}
		page.WaitMillis(1800)
		p.log.Infof("%s publish page loaded (attempt=%d, page_url=%s)", trace, attempt+1, page.URL())
		bootstrapOK = true
		break
	}

	if !bootstrapOK {
		p.log.Warnf("%s publish page retries exhausted, trying fallback URL: %s", trace, fallbackPublishURL)
		if err := page.Goto(fallbackPublishURL, browser.GotoOptions{WaitUntil: "domcontentloaded", TimeoutMs: 20000}); err != nil {
			p.log.Warnf("%s fallback URL failed: %v", trace, err)
			return false
		}
		page.WaitMillis(1200)
	}

	for attempt, opts := range navAttempts {
		p.log.Infof("%s switching to image post page (attempt=%d)", trace, attempt+1)
		if err := page.Goto(imageTargetURL, opts); err != nil {
			p.log.Warnf("%s image post page navigation failed (attempt=%d): %v", trace, attempt+1, err)
			page.WaitMillis(1000)
			continue
		}
		page.WaitMillis(1500)
		p.log.Infof("%s image post page loaded (attempt=%d, page_url=%s)", trace, attempt+1, page.URL())
		return true
	}
	return false
}

// resolveImages maps the logical references to existing files, dropping
// duplicates while keeping first-seen order.
func (p *Publisher) resolveImages(refs []string, trace string) []string {
	var resolved []string
	seen := make(map[string]struct{})

	for _, ref := range refs {
		path, tried, err := p.resolver.Resolve(ref)
		if err != nil {
			p.log.Warnf("%s image reference unresolved: %q (tried %d candidates)", trace, ref, len(tried))
			continue
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		resolved = append(resolved, path)
	}

	p.log.Infof("%s image path check: total=%d, valid=%d", trace, len(refs), len(resolved))
	return resolved
}

// uploadImages clicks a best-effort upload entry, then scans the main frame
// and every embedded frame for a file input that accepts the paths.
func (p *Publisher) uploadImages(page Page, imagePaths []string, trace string) error {
	// Some layouts only render the file input after the entry control is
	// clicked; a miss here is not fatal.
	if selector, err := browser.ClickFirst(page.MainSurface(), uploadEntryCandidates); err == nil {
		p.log.Infof("%s upload entry clicked: selector=%s", trace, selector)
		page.WaitMillis(300)
	} else {
		p.log.Debugf("%s no upload entry control hit: %v", trace, err)
	}

	selector, err := browser.SetFilesFirst(page.AllSurfaces(), fileInputCandidates, imagePaths)
	if err != nil {
		p.log.Warnf("%s no usable file input found: %v", trace, err)
		return err
	}
	p.log.Infof("%s %d image(s) selected (selector=%s)", trace, len(imagePaths), selector)
	return nil
}

// waitEditorReady polls for any known title/content editor after a settle
// window; filling before the editors mount would be lost.
func (p *Publisher) waitEditorReady(page Page, trace string) bool {
	page.WaitMillis(1200)

	const pollIntervalMs, timeoutMs = 500, 20000
	for attempt := 0; attempt < timeoutMs/pollIntervalMs; attempt++ {
		if _, selector, err := browser.FirstMatch(page.MainSurface(), editorReadyCandidates); err == nil {
			p.log.Infof("%s editor ready (selector=%s, attempt=%d)", trace, selector, attempt+1)
			return true
		}
		page.WaitMillis(pollIntervalMs)
	}

	p.log.Warnf("%s editor ready wait timed out (%dms)", trace, timeoutMs)
	return false
}

func (p *Publisher) fillTitle(page Page, title, trace string) error {
	control, selector, err := browser.FirstMatch(page.MainSurface(), titleCandidates)
	if err != nil {
		p.log.Warnf("%s no title input found", trace)
		return err
	}

	if err := control.Fill(title); err != nil {
		p.log.Debugf("%s title fill rejected, using keyboard (selector=%s): %v", trace, selector, err)
		if err := p.typeInto(page, control, title); err != nil {
			return err
		}
	}
	p.log.Infof("%s title filled (selector=%s, len=%d)", trace, selector, utf8.RuneCountInString(title))
	return nil
}

func (p *Publisher) fillContent(page Page, content, trace string) error {
	control, selector, err := browser.FirstMatch(page.MainSurface(), contentCandidates)
	if err != nil {
		p.log.Warnf("%s no content editor found", trace)
		return err
	}

	// contenteditable regions usually reject direct assignment; go straight
	// to keystrokes for them.
	editable, _ := control.Attr("contenteditable")
	if editable == "true" {
		if err := p.typeInto(page, control, content); err != nil {
			return err
		}
	} else if err := control.Fill(content); err != nil {
		p.log.Debugf("%s content fill rejected, using keyboard (selector=%s): %v", trace, selector, err)
		if err := p.typeInto(page, control, content); err != nil {
			return err
		}
	}
	p.log.Infof("%s content filled (selector=%s, len=%d)", trace, selector, utf8.RuneCountInString(content))
	return nil
}

// typeInto is the keystroke-emulation fallback: focus, select all, type.
func (p *Publisher) typeInto(page Page, control browser.Control, text string) error {
	if err := control.Click(); err != nil {
		return fmt.Errorf("focus control: %w", err)
	}
	kb := page.Keyboard()
	if err := kb.Press("Control+A"); err != nil {
		return fmt.Errorf("select all: %w", err)
	}
	if err := kb.Type(text); err != nil {
		return fmt.Errorf("type text: %w", err)
	}
	return nil
}

// fillTags is strictly best-effort: whatever happens here, the publish
// continues.
func (p *Publisher) fillTags(page Page, tags []string, trace string) TagsOutcome {
	outcome := TagsOutcome{}

	if selector, err := browser.ClickFirst(page.MainSurface(), tagEntryCandidates); err == nil {
		p.log.Infof("%s tag entry clicked: selector=%s", trace, selector)
		page.WaitMillis(300)
	}

	kb := page.Keyboard()
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		outcome.Attempted++

		// Preferred path: a tag input plus Enter to confirm.
		if control, selector, err := browser.FirstMatch(page.MainSurface(), tagInputCandidates); err == nil {
			if addTagViaInput(control, kb, tag) {
				p.log.Infof("%s tag added via input: %s (selector=%s)", trace, tag, selector)
				outcome.Added++
				page.WaitMillis(250)
				continue
			}
		}

		// Fallback: append "#tag" at the end of the content editor.
		if control, _, err := browser.FirstMatch(page.MainSurface(), browser.CandidateList{`div[contenteditable="true"]`}); err == nil {
			if control.Click() == nil && kb.Press("End") == nil && kb.Type("\n#"+tag) == nil {
				p.log.Infof("%s tag appended to content: %s", trace, tag)
				outcome.Added++
				continue
			}
		}

		outcome.Skipped = true
		outcome.Reason = fmt.Sprintf("no tag input or content area for %q", tag)
		return outcome
	}
	return outcome
}

func addTagViaInput(control browser.Control, kb browser.Keyboard, tag string) bool {
	if control.Click() != nil {
		return false
	}
	if control.Fill(tag) != nil {
		if kb.Press("Control+A") != nil || kb.Type(tag) != nil {
			return false
		}
	}
	return kb.Press("Enter") == nil
}

func (p *Publisher) clickSubmit(page Page, trace string) error {
	selector, err := browser.ClickFirst(page.MainSurface(), submitCandidates)
	if err != nil {
		p.log.Warnf("%s no submit control found", trace)
		return err
	}
	p.log.Infof("%s submit clicked (selector=%s)", trace, selector)
	page.WaitMillis(3000)
	return nil
}

// verify reads the post-submit URL and extracts the note identity. A submit
// click without a confirmable identity is not a success.
func (p *Publisher) verify(page Page, trace string) *Result {
	page.WaitMillis(2000)

	currentURL := page.URL()
	noteID := extractNoteID(currentURL)
	p.log.Infof("%s post-submit page: url=%s, note_id=%s", trace, currentURL, orUnknown(noteID))

	if noteID == "" {
		return &Result{
			URL:          currentURL,
			ErrorMessage: fmt.Sprintf("无法确认发布成功，当前页面: %s", currentURL),
			Err:          ErrVerificationFailed,
		}
	}

	return &Result{
		Success: true,
		NoteID:  noteID,
		URL:     fmt.Sprintf(publishedNoteURLFormat, noteID),
	}
}

func extractNoteID(url string) string {
	for _, pattern := range noteIDPatterns {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
