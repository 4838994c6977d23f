package server

import "net/http"

// Router wires the handler's endpoints onto a ServeMux.
func Router(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /webhook", h.Verify)
	mux.HandleFunc("POST /webhook", h.HandleEvent)
	mux.HandleFunc("GET /{$}", h.Health)

	return mux
}
