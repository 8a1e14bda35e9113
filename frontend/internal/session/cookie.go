package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/itchan-dev/blogfront/shared/domain"
	"github.com/itchan-dev/blogfront/shared/logger"
)

const CookieName = "session"

// cookieClaims mirror the two fixed storage keys: the token and the
// serialized user record.
type cookieClaims struct {
	Token string `json:"token"`
	User  string `json:"user"`
	jwt.RegisteredClaims
}

// CookieStore keeps the session in a signed cookie. A cookie that was altered
// or signed with another key reads as absent.
type CookieStore struct {
	Notifier
	key    []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewCookieStore(key []byte, ttl time.Duration, secure bool) *CookieStore {
	return &CookieStore{key: key, ttl: ttl, secure: secure, now: time.Now}
}

func (c *CookieStore) Encode(s Session) (string, error) {
	if !s.complete() {
		return "", ErrIncomplete
	}
	user, err := json.Marshal(s.User)
	if err != nil {
		return "", fmt.Errorf("encode session user: %w", err)
	}
	now := c.now()
	claims := cookieClaims{
		Token: s.Token,
		User:  string(user),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

func (c *CookieStore) Decode(value string) (Session, error) {
	var claims cookieClaims
	_, err := jwt.ParseWithClaims(value, &claims, func(t *jwt.Token) (interface{}, error) {
		return c.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
	if err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	if claims.Token == "" || claims.User == "" {
		return Session{}, ErrIncomplete
	}
	var user domain.User
	if err := json.Unmarshal([]byte(claims.User), &user); err != nil {
		return Session{}, fmt.Errorf("decode session user: %w", err)
	}
	return Session{Token: claims.Token, User: &user}, nil
}

// Bind returns the Store view of one HTTP exchange.
func (c *CookieStore) Bind(w http.ResponseWriter, r *http.Request) Store {
	return &requestStore{store: c, w: w, r: r}
}

type requestStore struct {
	store   *CookieStore
	w       http.ResponseWriter
	r       *http.Request
	loaded  bool
	current Session
}

func (rs *requestStore) Read() Session {
	if rs.loaded {
		return rs.current
	}
	rs.loaded = true
	cookie, err := rs.r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return rs.current
	}
	s, err := rs.store.Decode(cookie.Value)
	if err != nil {
		if !errors.Is(err, jwt.ErrTokenExpired) {
			logger.Log.Warn("discarding session cookie", "path", rs.r.URL.Path, "error", err)
		}
		return rs.current
	}
	rs.current = s
	return rs.current
}

func (rs *requestStore) Save(s Session) error {
	value, err := rs.store.Encode(s)
	if err != nil {
		return err
	}
	http.SetCookie(rs.w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(rs.store.ttl.Seconds()),
		HttpOnly: true,
		Secure:   rs.store.secure,
		SameSite: http.SameSiteLaxMode,
	})
	rs.loaded = true
	rs.current = s
	rs.store.publish(Event{Kind: Saved, Session: s})
	return nil
}

func (rs *requestStore) Clear() error {
	was := rs.Read().Present()
	http.SetCookie(rs.w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   rs.store.secure,
		SameSite: http.SameSiteLaxMode,
	})
	rs.current = Session{}
	if was {
		rs.store.publish(Event{Kind: Cleared})
	}
	return nil
}
