package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/creatorkit/redpub/pkg/auth"
	"github.com/creatorkit/redpub/pkg/bridge"
	"github.com/creatorkit/redpub/pkg/browser"
	"github.com/creatorkit/redpub/pkg/logging"
	"github.com/creatorkit/redpub/pkg/publish"
	"github.com/creatorkit/redpub/pkg/refine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	status         *browser.LoginStatus
	startResult    *auth.Result
	checkResult    *browser.LoginStatus
	completeResult *auth.Result
	logoutResult   *auth.Result

	completeTimeout int
	browserClosed   int
}

func (f *fakeAuth) Status() *browser.LoginStatus     { return f.status }
func (f *fakeAuth) StartLogin() *auth.Result         { return f.startResult }
func (f *fakeAuth) CheckLogin() *browser.LoginStatus { return f.checkResult }

func (f *fakeAuth) CompleteLogin(timeoutSeconds int) *auth.Result {
	f.completeTimeout = timeoutSeconds
	return f.completeResult
}

func (f *fakeAuth) CloseBrowser() error  { f.browserClosed++; return nil }
func (f *fakeAuth) Logout() *auth.Result { return f.logoutResult }

type fakePublisher struct {
	lastReq publish.Request
	result  *publish.Result
}

func (f *fakePublisher) Publish(req publish.Request) *publish.Result {
	f.lastReq = req
	return f.result
}

type fakeRefiner struct {
	titleResult   *refine.TitleResult
	contentResult *refine.ContentResult
	allResult     *refine.AllResult
}

func (f *fakeRefiner) RefineTitle(ctx context.Context, title string) *refine.TitleResult {
	return f.titleResult
}

func (f *fakeRefiner) RefineContent(ctx context.Context, content string) *refine.ContentResult {
	return f.contentResult
}

func (f *fakeRefiner) RefineAll(ctx context.Context, title, content string) *refine.AllResult {
	return f.allResult
}

type harness struct {
	auth      *fakeAuth
	publisher *fakePublisher
	refiner   *fakeRefiner
	router    http.Handler
}

func newAPIHarness(t *testing.T) *harness {
	t.Helper()
	b := bridge.New()
	t.Cleanup(b.Stop)

	h := &harness{
		auth:      &fakeAuth{},
		publisher: &fakePublisher{},
		refiner:   &fakeRefiner{},
	}
	handler := NewHandler(b, h.auth, h.publisher, h.refiner, logging.Discard())
	h.router = NewRouter(handler)
	return h
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthStatusRoute(t *testing.T) {
	h := newAPIHarness(t)
	h.auth.status = &browser.LoginStatus{LoggedIn: true, UserInfo: &browser.UserInfo{Name: "测试用户"}}

	rec := doJSON(t, h.router, "GET", "/api/xiaohongshu/auth/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status browser.LoginStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.LoggedIn)
	assert.Equal(t, "测试用户", status.UserInfo.Name)
}

func TestStartLoginRoute(t *testing.T) {
	h := newAPIHarness(t)
	h.auth.startResult = &auth.Result{Success: true, Message: "请在弹出的浏览器窗口中扫码登录"}

	rec := doJSON(t, h.router, "POST", "/api/xiaohongshu/auth/login", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "扫码登录")
}

func TestCompleteLoginClosesBrowserOnSuccess(t *testing.T) {
	h := newAPIHarness(t)
	h.auth.completeResult = &auth.Result{Success: true, Message: "登录成功"}

	rec := doJSON(t, h.router, "POST", "/api/xiaohongshu/auth/login/complete", `{"timeout": 30}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30, h.auth.completeTimeout)
	assert.Equal(t, 1, h.auth.browserClosed)
}

func TestCompleteLoginDefaultsAndKeepsWindowOnTimeout(t *testing.T) {
	h := newAPIHarness(t)
	h.auth.completeResult = &auth.Result{Message: "登录超时，请重试"}

	rec := doJSON(t, h.router, "POST", "/api/xiaohongshu/auth/login/complete", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 120, h.auth.completeTimeout)
	assert.Equal(t, 0, h.auth.browserClosed, "a timed-out login must keep the window for another attempt")
}

func TestLogoutRoute(t *testing.T) {
	h := newAPIHarness(t)
	h.auth.logoutResult = &auth.Result{Success: true, Message: "已退出登录"}

	rec := doJSON(t, h.router, "POST", "/api/xiaohongshu/auth/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "已退出登录")
}

func TestPublishRoute(t *testing.T) {
	h := newAPIHarness(t)
	h.publisher.result = &publish.Result{Success: true, NoteID: "abc123", URL: "https://www.xiaohongshu.com/explore/abc123"}

	body := `{"publish_id": "run-7", "title": "标题", "content": "正文", "image_paths": ["/output/a/1.png"], "tags": ["旅行"]}`
	rec := doJSON(t, h.router, "POST", "/api/xiaohongshu/publish", body)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "run-7", h.publisher.lastReq.TraceID)
	assert.Equal(t, "标题", h.publisher.lastReq.Title)
	assert.Equal(t, []string{"/output/a/1.png"}, h.publisher.lastReq.ImageRefs)

	var result publish.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "abc123", result.NoteID)
}

func TestPublishRouteGeneratesTraceID(t *testing.T) {
	h := newAPIHarness(t)
	h.publisher.result = &publish.Result{Success: true}

	rec := doJSON(t, h.router, "POST", "/api/xiaohongshu/publish", `{"title": "标题", "image_paths": ["x.png"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, h.publisher.lastReq.TraceID, 8)
}

func TestPublishRouteRejectsBadJSON(t *testing.T) {
	h := newAPIHarness(t)

	rec := doJSON(t, h.router, "POST", "/api/xiaohongshu/publish", "{broken")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestRefineTitleRoute(t *testing.T) {
	h := newAPIHarness(t)
	h.refiner.titleResult = &refine.TitleResult{Success: true, OptimizedTitle: "✨新标题"}

	rec := doJSON(t, h.router, "POST", "/api/xiaohongshu/refine/title", `{"title": "旧标题"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "✨新标题")
}

func TestRefineTitleRouteRejectsEmpty(t *testing.T) {
	h := newAPIHarness(t)

	rec := doJSON(t, h.router, "POST", "/api/xiaohongshu/refine/title", `{"title": "  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefineAllRouteRejectsBothEmpty(t *testing.T) {
	h := newAPIHarness(t)

	rec := doJSON(t, h.router, "POST", "/api/xiaohongshu/refine/all", `{"title": "", "content": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefineRoutesWithoutProvider(t *testing.T) {
	b := bridge.New()
	t.Cleanup(b.Stop)
	handler := NewHandler(b, &fakeAuth{}, &fakePublisher{}, nil, logging.Discard())
	router := NewRouter(handler)

	rec := doJSON(t, router, "POST", "/api/xiaohongshu/refine/title", `{"title": "标题"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "未配置文本服务商")
}

func TestMethodNotAllowed(t *testing.T) {
	h := newAPIHarness(t)

	rec := doJSON(t, h.router, "GET", "/api/xiaohongshu/auth/login", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = doJSON(t, h.router, "POST", "/api/xiaohongshu/auth/status", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	// An unknown path is still a 404, not a 405.
	rec = doJSON(t, h.router, "GET", "/api/xiaohongshu/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
