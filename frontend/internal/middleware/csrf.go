package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/itchan-dev/blogfront/shared/csrf"
	"github.com/itchan-dev/blogfront/shared/logger"
)

const (
	csrfCookieName = "csrf_token"
	csrfFormField  = "csrf_token"
	csrfHeader     = "X-CSRF-Token"
	csrfCookieAge  = 24 * 60 * 60

	defaultMaxFormBytes = 32 << 20
)

var errNoCSRFCookie = errors.New("csrf cookie missing")

type csrfContextKey struct{}

type CSRFConfig struct {
	SecureCookies bool
	Signer        *csrf.Signer
	// MaxFormBytes bounds multipart parsing on upload forms.
	MaxFormBytes int64
}

func (c CSRFConfig) maxForm() int64 {
	if c.MaxFormBytes <= 0 {
		return defaultMaxFormBytes
	}
	return c.MaxFormBytes
}

// GenerateCSRFToken makes a token available to templates, issuing a new
// cookie when the current one is missing or was signed with another key.
func GenerateCSRFToken(config CSRFConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := currentToken(r, config.Signer)
			if err != nil {
				token, err = config.Signer.GenerateToken()
				if err != nil {
					logger.Log.Error("failed to generate CSRF token", "error", err)
					http.Error(w, "Internal server error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     csrfCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: true,
					Secure:   config.SecureCookies,
					SameSite: http.SameSiteLaxMode,
					MaxAge:   csrfCookieAge,
				})
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfContextKey{}, token)))
		})
	}
}

func currentToken(r *http.Request, signer *csrf.Signer) (string, error) {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil {
		return "", errNoCSRFCookie
	}
	if !signer.ValidateToken(cookie.Value, cookie.Value) {
		return "", errors.New("csrf cookie not signed by this server")
	}
	return cookie.Value, nil
}

// ValidateCSRFToken rejects state-changing requests whose submitted token
// does not match the cookie. Scripts send it in X-CSRF-Token, forms in the
// csrf_token field.
func ValidateCSRFToken(config CSRFConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !changesState(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(csrfCookieName)
			if err != nil {
				logger.Log.Warn("CSRF token cookie missing", "path", r.URL.Path)
				http.Error(w, "CSRF token missing", http.StatusForbidden)
				return
			}
			submitted, err := submittedToken(r, config.maxForm())
			if err != nil {
				logger.Log.Warn("failed to parse form", "path", r.URL.Path, "error", err)
				http.Error(w, "Invalid form data", http.StatusBadRequest)
				return
			}
			if !config.Signer.ValidateToken(cookie.Value, submitted) {
				logger.Log.Warn("CSRF token validation failed", "path", r.URL.Path)
				http.Error(w, "CSRF token invalid", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func changesState(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// submittedToken parses the body as a side effect, so handlers downstream
// read an already parsed form.
func submittedToken(r *http.Request, maxForm int64) (string, error) {
	if v := r.Header.Get(csrfHeader); v != "" {
		return v, nil
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxForm); err != nil {
			return "", err
		}
	} else if r.Form == nil {
		if err := r.ParseForm(); err != nil {
			return "", err
		}
	}
	return r.FormValue(csrfFormField), nil
}

func GetCSRFTokenFromContext(r *http.Request) string {
	token, _ := r.Context().Value(csrfContextKey{}).(string)
	return token
}
