// Package guard decides whether a protected view may be shown.
package guard

import "github.com/itchan-dev/blogfront/frontend/internal/session"

// LoginPath is where an unauthenticated visitor is sent.
const LoginPath = "/auth"

type Decision int

const (
	Render Decision = iota + 1
	RedirectToLogin
)

func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case RedirectToLogin:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decide looks only at token presence. The token is not validated here; the
// API rejects a stale one on the first call.
func Decide(s session.Session) Decision {
	if s.Present() {
		return Render
	}
	return RedirectToLogin
}

// Check reads the store at the moment of navigation.
func Check(store session.Store) Decision {
	return Decide(store.Read())
}
