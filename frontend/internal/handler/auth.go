package handler

import (
	"net/http"
	"strings"

	frontend_domain "github.com/itchan-dev/blogfront/frontend/internal/domain"
	"github.com/itchan-dev/blogfront/frontend/internal/middleware"
	"github.com/itchan-dev/blogfront/frontend/internal/session"
	"github.com/itchan-dev/blogfront/shared/api"
	"github.com/itchan-dev/blogfront/shared/errors"
	"github.com/itchan-dev/blogfront/shared/logger"
	"github.com/itchan-dev/blogfront/shared/utils"
)

const (
	MsgLoginSuccess     = "Login successful!"
	MsgSignupSuccess    = "Signup successful! You can now login."
	MsgProfileRequired  = "Profile image is required."
	MsgInvalidLogin     = "Please enter a valid email and password."
	MsgLoggedOut        = "You have been logged out."
	signupPath          = "/auth?mode=signup"
	loginPath           = "/auth"
	profileImageField   = "profileImage"
	multipartOverheadMB = 1 << 20
)

func (h *Handler) AuthGetHandler(w http.ResponseWriter, r *http.Request) {
	data := frontend_domain.AuthPageData{Mode: frontend_domain.AuthModeLogin}
	if r.URL.Query().Get("mode") == frontend_domain.AuthModeSignup {
		data.Mode = frontend_domain.AuthModeSignup
	}
	h.renderTemplate(w, r, "auth.html", data)
}

func (h *Handler) LoginPostHandler(w http.ResponseWriter, r *http.Request) {
	req := api.LoginRequest{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	if err := utils.Validator().Struct(req); err != nil {
		h.setFlash(w, emailPrefill, req.Email)
		h.redirectWithFlash(w, r, loginPath, middleware.FlashError, MsgInvalidLogin)
		return
	}

	resp, err := h.APIClient.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		logger.Log.Error("during login API call", "error", err)
		h.setFlash(w, emailPrefill, req.Email)
		h.redirectWithFlash(w, r, loginPath, middleware.FlashError, errors.UserMessage(err))
		return
	}

	if err := h.session(r).Save(session.Session{Token: resp.Token, User: resp.User}); err != nil {
		logger.Log.Error("saving session", "error", err)
		h.redirectWithFlash(w, r, loginPath, middleware.FlashError, errors.MsgUnavailable)
		return
	}
	h.redirectWithFlash(w, r, "/dashboard", middleware.FlashSuccess, MsgLoginSuccess)
}

func (h *Handler) SignupPostHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.Public.Uploads.MaxImageBytes + multipartOverheadMB); err != nil {
		logger.Log.Warn("parsing signup form", "error", err)
		h.redirectWithFlash(w, r, signupPath, middleware.FlashError, MsgProfileRequired)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	file, header, err := r.FormFile(profileImageField)
	if err != nil {
		h.setFlash(w, emailPrefill, email)
		h.redirectWithFlash(w, r, signupPath, middleware.FlashError, MsgProfileRequired)
		return
	}
	defer file.Close()

	req := api.SignupRequest{
		Email:    email,
		Password: password,
		ProfileImage: &api.File{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     file,
		},
	}
	if err := utils.Validator().Struct(req); err != nil {
		h.setFlash(w, emailPrefill, email)
		h.redirectWithFlash(w, r, signupPath, middleware.FlashError, MsgInvalidLogin)
		return
	}

	if err := h.APIClient.Signup(r.Context(), req); err != nil {
		logger.Log.Error("during signup API call", "error", err)
		h.setFlash(w, emailPrefill, email)
		h.redirectWithFlash(w, r, signupPath, middleware.FlashError, errors.UserMessage(err))
		return
	}

	h.setFlash(w, emailPrefill, email)
	h.redirectWithFlash(w, r, loginPath, middleware.FlashSuccess, MsgSignupSuccess)
}

func (h *Handler) LogoutGetHandler(w http.ResponseWriter, r *http.Request) {
	h.renderTemplate(w, r, "confirm.html", frontend_domain.ConfirmPageData{
		Heading:    "Log out",
		Message:    "Are you sure you want to log out?",
		Action:     "/logout",
		CancelPath: "/dashboard",
	})
}

// LogoutPostHandler clears the session only when the form confirms it.
func (h *Handler) LogoutPostHandler(w http.ResponseWriter, r *http.Request) {
	if r.FormValue("confirm") != "yes" {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	if err := h.session(r).Clear(); err != nil {
		logger.Log.Error("clearing session", "error", err)
	}
	h.redirectWithFlash(w, r, loginPath, middleware.FlashSuccess, MsgLoggedOut)
}
