package middleware

import (
	"context"
	"net/http"

	"github.com/itchan-dev/blogfront/frontend/internal/guard"
	"github.com/itchan-dev/blogfront/frontend/internal/session"
	"github.com/itchan-dev/blogfront/shared/logger"
)

const (
	MsgLoginRequired  = "Please log in to continue"
	MsgSessionExpired = "Your session has expired. Please log in again."
)

type sessionContextKey struct{}

// Session binds the cookie store to every request so handlers and templates
// can see who is logged in.
func Session(store *session.CookieStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), sessionContextKey{}, store.Bind(w, r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionStore returns the store bound by Session, or an empty one.
func SessionStore(r *http.Request) session.Store {
	if s, ok := r.Context().Value(sessionContextKey{}).(session.Store); ok {
		return s
	}
	return session.NewMemory()
}

// Auth redirects visitors without a session to the login view.
type Auth struct {
	secureCookies bool
}

func NewAuth(secureCookies bool) *Auth {
	return &Auth{secureCookies: secureCookies}
}

// NeedAuth consults the guard before the view renders. A 401 written by the
// view later (the API rejected the token) also ends at the login view.
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if guard.Check(SessionStore(r)) == guard.RedirectToLogin {
				redirectToLogin(w, r, a.secureCookies, MsgLoginRequired)
				return
			}
			wrapper := &authRedirectWriter{
				ResponseWriter: w,
				request:        r,
				secureCookies:  a.secureCookies,
			}
			next.ServeHTTP(wrapper, r)
		})
	}
}

// authRedirectWriter turns a 401 into a redirect to login.
type authRedirectWriter struct {
	http.ResponseWriter
	request       *http.Request
	secureCookies bool
	redirected    bool
}

func (w *authRedirectWriter) WriteHeader(statusCode int) {
	if w.redirected {
		return
	}
	if statusCode == http.StatusUnauthorized {
		w.redirected = true
		logger.Log.Info("api rejected session", "path", w.request.URL.Path)
		redirectToLogin(w.ResponseWriter, w.request, w.secureCookies, MsgSessionExpired)
		return
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *authRedirectWriter) Write(data []byte) (int, error) {
	if w.redirected {
		return len(data), nil
	}
	return w.ResponseWriter.Write(data)
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, secureCookies bool, message string) {
	SetFlash(w, FlashError, message, secureCookies)
	http.Redirect(w, r, guard.LoginPath, http.StatusSeeOther)
}
