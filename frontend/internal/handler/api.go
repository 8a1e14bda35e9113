package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/itchan-dev/blogfront/shared/api"
	"github.com/itchan-dev/blogfront/shared/domain"
	"github.com/itchan-dev/blogfront/shared/errors"
	"github.com/itchan-dev/blogfront/shared/logger"
	"github.com/itchan-dev/blogfront/shared/utils"
)

type commentsJSON struct {
	Success  bool             `json:"success"`
	Comments []domain.Comment `json:"comments"`
}

// CommentsAPIHandler serves a blog's flattened comments as JSON.
func (h *Handler) CommentsAPIHandler(w http.ResponseWriter, r *http.Request) {
	s := h.session(r).Read()
	if !s.Present() {
		utils.WriteJSON(w, http.StatusUnauthorized, api.ErrorResponse{Message: "Please log in to continue"})
		return
	}

	flat, err := h.Comments.Load(r.Context(), s.Token, chi.URLParam(r, "id"))
	if err != nil {
		status := statusFor(err)
		if status == http.StatusUnauthorized {
			if cerr := h.session(r).Clear(); cerr != nil {
				logger.Log.Error("clearing rejected session", "error", cerr)
			}
		}
		logger.Log.Error("loading comments for api", "error", err)
		utils.WriteJSON(w, status, api.ErrorResponse{Message: errors.UserMessage(err)})
		return
	}
	utils.WriteJSON(w, http.StatusOK, commentsJSON{Success: true, Comments: flat})
}
