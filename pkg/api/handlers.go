// Package api exposes the publish orchestrator over HTTP: login lifecycle,
// note publishing and content refinement. Every handler that touches the
// browser funnels its work through the bridge so browser state is only ever
// driven from one goroutine.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/creatorkit/redpub/pkg/auth"
	"github.com/creatorkit/redpub/pkg/bridge"
	"github.com/creatorkit/redpub/pkg/browser"
	"github.com/creatorkit/redpub/pkg/logging"
	"github.com/creatorkit/redpub/pkg/publish"
	"github.com/creatorkit/redpub/pkg/refine"
)

// authService is the login lifecycle the handlers drive.
type authService interface {
	Status() *browser.LoginStatus
	StartLogin() *auth.Result
	CheckLogin() *browser.LoginStatus
	CompleteLogin(timeoutSeconds int) *auth.Result
	CloseBrowser() error
	Logout() *auth.Result
}

// publisher runs publish flows.
type publisher interface {
	Publish(req publish.Request) *publish.Result
}

// Refiner rewrites note copy. A nil Refiner means no text provider is
// configured; the refine routes then report that instead of failing.
type Refiner interface {
	RefineTitle(ctx context.Context, title string) *refine.TitleResult
	RefineContent(ctx context.Context, content string) *refine.ContentResult
	RefineAll(ctx context.Context, title, content string) *refine.AllResult
}

// Handler holds the HTTP handler dependencies.
type Handler struct {
	bridge    *bridge.Bridge
	auth      authService
	publisher publisher
	refiner   Refiner
	log       *logging.Logger
}

// NewHandler creates the API handler. ref may be nil; the refine routes
// then report the missing configuration. logger may be nil.
func NewHandler(b *bridge.Bridge, authSvc authService, pub publisher, ref Refiner, logger *logging.Logger) *Handler {
	if logger == nil {
		logger, _ = logging.NewLogger("api")
	}
	return &Handler{bridge: b, auth: authSvc, publisher: pub, refiner: ref, log: logger}
}

// AuthStatus handles GET /api/xiaohongshu/auth/status.
func (h *Handler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.auth.Status())
}

// StartLogin handles POST /api/xiaohongshu/auth/login.
func (h *Handler) StartLogin(w http.ResponseWriter, r *http.Request) {
	result, err := bridge.Submit(h.bridge, func() (*auth.Result, error) {
		return h.auth.StartLogin(), nil
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CheckLogin handles GET /api/xiaohongshu/auth/login/check.
func (h *Handler) CheckLogin(w http.ResponseWriter, r *http.Request) {
	status, err := bridge.Submit(h.bridge, func() (*browser.LoginStatus, error) {
		return h.auth.CheckLogin(), nil
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// CompleteLogin handles POST /api/xiaohongshu/auth/login/complete. The body
// may carry {"timeout": seconds}; the default waits two minutes.
func (h *Handler) CompleteLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Timeout int `json:"timeout"`
	}
	if r.Body != nil {
		// A missing or empty body keeps the default.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	if body.Timeout <= 0 {
		body.Timeout = 120
	}

	result, err := bridge.Submit(h.bridge, func() (*auth.Result, error) {
		result := h.auth.CompleteLogin(body.Timeout)
		if result.Success {
			// Credentials are persisted; the login window is done.
			if err := h.auth.CloseBrowser(); err != nil {
				h.log.Warnf("login window close failed: %v", err)
			}
		}
		return result, nil
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Logout handles POST /api/xiaohongshu/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	result, err := bridge.Submit(h.bridge, func() (*auth.Result, error) {
		return h.auth.Logout(), nil
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// publishRequest is the publish route body.
type publishRequest struct {
	PublishID  string   `json:"publish_id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	ImagePaths []string `json:"image_paths"`
	Tags       []string `json:"tags"`
}

// PublishNote handles POST /api/xiaohongshu/publish.
func (h *Handler) PublishNote(w http.ResponseWriter, r *http.Request) {
	var body publishRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	traceID := body.PublishID
	if traceID == "" {
		traceID = uuid.New().String()[:8]
	}

	h.log.Infof("[publish:%s] request received (title_len=%d, images=%d, tags=%d)",
		traceID, len(body.Title), len(body.ImagePaths), len(body.Tags))

	result, err := bridge.Submit(h.bridge, func() (*publish.Result, error) {
		return h.publisher.Publish(publish.Request{
			Title:     body.Title,
			Content:   body.Content,
			ImageRefs: body.ImagePaths,
			Tags:      body.Tags,
			TraceID:   traceID,
		}), nil
	})
	if err != nil {
		h.log.Errorf("[publish:%s] bridge failure: %v", traceID, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.log.Infof("[publish:%s] request finished success=%v", traceID, result.Success)
	writeJSON(w, http.StatusOK, result)
}

// RefineTitle handles POST /api/xiaohongshu/refine/title.
func (h *Handler) RefineTitle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(body.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "标题不能为空"})
		return
	}
	if h.refiner == nil {
		writeRefinerMissing(w)
		return
	}
	writeJSON(w, http.StatusOK, h.refiner.RefineTitle(r.Context(), body.Title))
}

// RefineContent handles POST /api/xiaohongshu/refine/content.
func (h *Handler) RefineContent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(body.Content) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "正文不能为空"})
		return
	}
	if h.refiner == nil {
		writeRefinerMissing(w)
		return
	}
	writeJSON(w, http.StatusOK, h.refiner.RefineContent(r.Context(), body.Content))
}

// RefineAll handles POST /api/xiaohongshu/refine/all.
func (h *Handler) RefineAll(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(body.Title) == "" && strings.TrimSpace(body.Content) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "标题和正文不能同时为空"})
		return
	}
	if h.refiner == nil {
		writeRefinerMissing(w)
		return
	}
	writeJSON(w, http.StatusOK, h.refiner.RefineAll(r.Context(), body.Title, body.Content))
}

func writeRefinerMissing(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"success": false,
		"error":   "未配置文本服务商，无法优化内容",
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"success": false, "error": err.Error()})
}
