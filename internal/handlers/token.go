package handlers

import (
	"net/http"
	"time"

	"github.com/dreamware/csync/internal/apperr"
)

type tokenResponse struct {
	Token       string `json:"token"`
	ExpireAfter uint64 `json:"expire_after"`
}

// GetToken implements GET /token: mints a JWT for the authenticated caller.
func (h *Handlers) GetToken(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	result, err := h.JWT.Generate(user, time.Now())
	if err != nil {
		h.Log.Error().Err(err).Msg("generate token failed")
		writeError(w, apperr.Internal(err))
		return
	}

	writeData(w, tokenResponse{Token: result.Token, ExpireAfter: result.ExpireAfter})
}
