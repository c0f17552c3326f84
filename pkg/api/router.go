package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

const basePath = "/api/xiaohongshu"

// NewRouter builds the service router. Routes are registered on the root
// router with full paths: a PathPrefix subrouter swallows method mismatches
// into the parent's 404 handling, and a wrong method on a known path must
// be a 405.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc(basePath+"/auth/status", h.AuthStatus).Methods("GET")
	r.HandleFunc(basePath+"/auth/login", h.StartLogin).Methods("POST")
	r.HandleFunc(basePath+"/auth/login/check", h.CheckLogin).Methods("GET")
	r.HandleFunc(basePath+"/auth/login/complete", h.CompleteLogin).Methods("POST")
	r.HandleFunc(basePath+"/auth/logout", h.Logout).Methods("POST")

	r.HandleFunc(basePath+"/publish", h.PublishNote).Methods("POST")

	r.HandleFunc(basePath+"/refine/title", h.RefineTitle).Methods("POST")
	r.HandleFunc(basePath+"/refine/content", h.RefineContent).Methods("POST")
	r.HandleFunc(basePath+"/refine/all", h.RefineAll).Methods("POST")

	r.Use(corsMiddleware)

	return r
}

// corsMiddleware lets the local editor frontend call the API from another
// origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
