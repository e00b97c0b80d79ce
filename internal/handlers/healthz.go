package handlers

import "net/http"

// Version is stamped into the healthz response; set at build time.
var Version = "dev"

type healthResponse struct {
	Version   string `json:"version"`
	Timestamp uint64 `json:"timestamp"`
}

// GetHealthz implements GET /healthz, requiring no authentication.
func (h *Handlers) GetHealthz(w http.ResponseWriter, r *http.Request) {
	writeData(w, healthResponse{Version: Version, Timestamp: h.now()})
}
