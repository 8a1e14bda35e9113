package middleware

import (
	"encoding/base64"
	"net/http"
)

const (
	FlashError   = "flash_error"
	FlashSuccess = "flash_success"
)

// SetFlash stores a one-shot message for the next rendered page, base64
// encoded so any characters survive the cookie.
func SetFlash(w http.ResponseWriter, name, message string, secureCookies bool) {
	http.SetCookie(w, flashCookie(name, base64.StdEncoding.EncodeToString([]byte(message)), 300, secureCookies))
}

// PopFlash returns the message and expires the cookie.
func PopFlash(w http.ResponseWriter, r *http.Request, name string, secureCookies bool) string {
	cookie, err := r.Cookie(name)
	if err != nil || cookie.Value == "" {
		return ""
	}
	http.SetCookie(w, flashCookie(name, "", -1, secureCookies))
	decoded, err := base64.StdEncoding.DecodeString(cookie.Value)
	if err != nil {
		return ""
	}
	return string(decoded)
}

func flashCookie(name, value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
