package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/itchan-dev/blogfront/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amit() Session {
	return Session{Token: "abc", User: &domain.User{Id: "u1", Name: "Amit", Email: "amit@example.com"}}
}

func record(n *Notifier) *[]Event {
	var events []Event
	n.Subscribe(func(e Event) { events = append(events, e) })
	return &events
}

func TestMemory(t *testing.T) {
	t.Run("save and read back", func(t *testing.T) {
		m := NewMemory()
		events := record(&m.Notifier)

		require.NoError(t, m.Save(amit()))
		got := m.Read()
		assert.Equal(t, "abc", got.Token)
		assert.Equal(t, "Amit", got.User.Name)
		require.Len(t, *events, 1)
		assert.Equal(t, Saved, (*events)[0].Kind)
	})

	t.Run("incomplete session is rejected", func(t *testing.T) {
		m := NewMemory()
		assert.ErrorIs(t, m.Save(Session{Token: "abc"}), ErrIncomplete)
		assert.ErrorIs(t, m.Save(Session{User: &domain.User{Name: "Amit"}}), ErrIncomplete)
		assert.False(t, m.Read().Present())
	})

	t.Run("clear removes both halves", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.Save(amit()))
		events := record(&m.Notifier)

		require.NoError(t, m.Clear())
		got := m.Read()
		assert.Empty(t, got.Token)
		assert.Nil(t, got.User)
		require.Len(t, *events, 1)
		assert.Equal(t, Cleared, (*events)[0].Kind)
	})

	t.Run("clear on empty store is a no-op", func(t *testing.T) {
		m := NewMemory()
		events := record(&m.Notifier)
		require.NoError(t, m.Clear())
		assert.Empty(t, *events)
	})
}

func TestNotifier_Cancel(t *testing.T) {
	m := NewMemory()
	calls := 0
	cancel := m.Subscribe(func(Event) { calls++ })
	require.NoError(t, m.Save(amit()))
	cancel()
	require.NoError(t, m.Clear())
	assert.Equal(t, 1, calls)
}

func TestCookieStore(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")

	roundTrip := func(t *testing.T, c *CookieStore, s Session) *http.Cookie {
		t.Helper()
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		require.NoError(t, c.Bind(rec, req).Save(s))
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		return cookies[0]
	}

	t.Run("saved session is read on the next request", func(t *testing.T) {
		c := NewCookieStore(key, time.Hour, false)
		cookie := roundTrip(t, c, amit())
		assert.Equal(t, CookieName, cookie.Name)
		assert.True(t, cookie.HttpOnly)

		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(cookie)
		got := c.Bind(httptest.NewRecorder(), req).Read()
		assert.Equal(t, "abc", got.Token)
		require.NotNil(t, got.User)
		assert.Equal(t, "Amit", got.User.Name)
	})

	t.Run("read after save in the same request", func(t *testing.T) {
		c := NewCookieStore(key, time.Hour, false)
		store := c.Bind(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/auth/login", nil))
		assert.False(t, store.Read().Present())
		require.NoError(t, store.Save(amit()))
		assert.Equal(t, "abc", store.Read().Token)
	})

	t.Run("tampered cookie reads as absent", func(t *testing.T) {
		c := NewCookieStore(key, time.Hour, false)
		cookie := roundTrip(t, c, amit())
		cookie.Value = cookie.Value[:len(cookie.Value)-2] + "xx"

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		assert.False(t, c.Bind(httptest.NewRecorder(), req).Read().Present())
	})

	t.Run("cookie signed with another key reads as absent", func(t *testing.T) {
		other := NewCookieStore([]byte("another-key-another-key-another!"), time.Hour, false)
		cookie := roundTrip(t, other, amit())

		c := NewCookieStore(key, time.Hour, false)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		assert.False(t, c.Bind(httptest.NewRecorder(), req).Read().Present())
	})

	t.Run("expired cookie reads as absent", func(t *testing.T) {
		c := NewCookieStore(key, time.Minute, false)
		issued := time.Now()
		c.now = func() time.Time { return issued }
		cookie := roundTrip(t, c, amit())

		c.now = func() time.Time { return issued.Add(2 * time.Minute) }
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		assert.False(t, c.Bind(httptest.NewRecorder(), req).Read().Present())
	})

	t.Run("clear expires the cookie and publishes", func(t *testing.T) {
		c := NewCookieStore(key, time.Hour, false)
		cookie := roundTrip(t, c, amit())
		events := record(&c.Notifier)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		req.AddCookie(cookie)
		store := c.Bind(rec, req)
		require.NoError(t, store.Clear())

		assert.False(t, store.Read().Present())
		cleared := rec.Result().Cookies()
		require.Len(t, cleared, 1)
		assert.Equal(t, -1, cleared[0].MaxAge)
		require.Len(t, *events, 1)
		assert.Equal(t, Cleared, (*events)[0].Kind)
	})

	t.Run("incomplete session is not written", func(t *testing.T) {
		c := NewCookieStore(key, time.Hour, false)
		rec := httptest.NewRecorder()
		err := c.Bind(rec, httptest.NewRequest(http.MethodGet, "/", nil)).Save(Session{Token: "abc"})
		assert.ErrorIs(t, err, ErrIncomplete)
		assert.Empty(t, rec.Result().Cookies())
	})
}
