package server

import (
	"log"
	"net/http"

	"bootstrapper/internal/gateway/handler"
	"bootstrapper/internal/gateway/middleware"
)

func NewMux(h *handler.Handler, logger *log.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /scan", h.HandleScan)
	mux.HandleFunc("POST /plan", h.HandlePlan)
	mux.HandleFunc("POST /execute", h.HandleExecute)
	mux.HandleFunc("GET /execute/ws", h.HandleExecuteWS)

	mux.HandleFunc("GET /runs/{run_id}", h.HandleRunResult)
	mux.HandleFunc("GET /runs/{run_id}/files", h.HandleRunFiles)
	mux.HandleFunc("GET /runs/{run_id}/files/{path...}", h.HandleRunFile)

	mux.Handle(handler.NewPlanServiceHandler(h))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	return middleware.CORS(middleware.Logging(logger, mux))
}
