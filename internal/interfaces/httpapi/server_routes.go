package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerRunRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.HandleFunc("GET /v1/runs", handler.ListRuns)
	mux.Handle("POST /v1/internal/runs", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.TriggerRun)))
}
