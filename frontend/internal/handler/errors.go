package handler

import (
	"net/http"

	"github.com/itchan-dev/blogfront/frontend/internal/middleware"
	"github.com/itchan-dev/blogfront/shared/errors"
	"github.com/itchan-dev/blogfront/shared/logger"
)

// sessionRejected ends the session when the API refused the token. The 401
// it writes is turned into a login redirect by the auth middleware.
func (h *Handler) sessionRejected(w http.ResponseWriter, r *http.Request, err error) bool {
	if errors.StatusCode(err) != http.StatusUnauthorized {
		return false
	}
	if cerr := h.session(r).Clear(); cerr != nil {
		logger.Log.Error("clearing rejected session", "error", cerr)
	}
	w.WriteHeader(http.StatusUnauthorized)
	return true
}

// apiFailure reports a failed call and sends the visitor to target.
func (h *Handler) apiFailure(w http.ResponseWriter, r *http.Request, err error, action, target string) {
	if h.sessionRejected(w, r, err) {
		return
	}
	logger.Log.Error("api call failed", "action", action, "path", r.URL.Path, "error", err)
	h.redirectWithFlash(w, r, target, middleware.FlashError, errors.UserMessage(err))
}

// statusFor picks the status a page is rendered with after a failed call.
func statusFor(err error) int {
	if code := errors.StatusCode(err); code >= 400 {
		return code
	}
	return http.StatusBadGateway
}
