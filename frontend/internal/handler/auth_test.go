package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/itchan-dev/blogfront/frontend/internal/guard"
	"github.com/itchan-dev/blogfront/frontend/internal/middleware"
	"github.com/itchan-dev/blogfront/frontend/internal/session"
	"github.com/itchan-dev/blogfront/shared/api"
	"github.com/itchan-dev/blogfront/shared/domain"
	"github.com/itchan-dev/blogfront/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthGetHandler(t *testing.T) {
	env := newTestEnv(t, &mockAPI{})

	w := env.do(httptest.NewRequest(http.MethodGet, "/auth", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/auth/login"`)

	w = env.do(httptest.NewRequest(http.MethodGet, "/auth?mode=signup", nil))
	assert.Contains(t, w.Body.String(), `action="/auth/signup"`)
	assert.Contains(t, w.Body.String(), `name="profileImage"`)
}

func TestLoginPostHandler(t *testing.T) {
	t.Run("success saves the session and opens the dashboard", func(t *testing.T) {
		m := &mockAPI{LoginFunc: func(ctx context.Context, email, password string) (api.LoginResponse, error) {
			assert.Equal(t, "amit@example.com", email)
			assert.Equal(t, "secret", password)
			return api.LoginResponse{Token: "abc", User: &domain.User{Id: "u1", Name: "Amit"}}, nil
		}}
		env := newTestEnv(t, m)

		w := env.do(postForm("/auth/login", url.Values{"email": {"amit@example.com"}, "password": {"secret"}}))
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/dashboard", w.Header().Get("Location"))
		assert.Equal(t, MsgLoginSuccess, flash(t, w, middleware.FlashSuccess))

		cookie := findCookie(w, session.CookieName)
		require.NotNil(t, cookie)
		s, err := env.store.Decode(cookie.Value)
		require.NoError(t, err)
		assert.Equal(t, "abc", s.Token)
		assert.Equal(t, "Amit", s.User.Name)
		assert.Equal(t, guard.Render, guard.Decide(s))
	})

	t.Run("server message is shown verbatim", func(t *testing.T) {
		m := &mockAPI{LoginFunc: func(context.Context, string, string) (api.LoginResponse, error) {
			return api.LoginResponse{}, &errors.ErrorWithStatusCode{Message: "Invalid credentials", StatusCode: 401}
		}}
		env := newTestEnv(t, m)

		w := env.do(postForm("/auth/login", url.Values{"email": {"amit@example.com"}, "password": {"wrong"}}))
		assert.Equal(t, "/auth", w.Header().Get("Location"))
		assert.Equal(t, "Invalid credentials", flash(t, w, middleware.FlashError))
		assert.Equal(t, "amit@example.com", flash(t, w, emailPrefill))
		assert.Nil(t, findCookie(w, session.CookieName))
	})

	t.Run("transport failure shows the generic message", func(t *testing.T) {
		m := &mockAPI{LoginFunc: func(context.Context, string, string) (api.LoginResponse, error) {
			return api.LoginResponse{}, errors.ErrBackendUnavailable
		}}
		env := newTestEnv(t, m)
		w := env.do(postForm("/auth/login", url.Values{"email": {"amit@example.com"}, "password": {"x"}}))
		assert.Equal(t, errors.MsgUnavailable, flash(t, w, middleware.FlashError))
	})

	t.Run("malformed input never calls the API", func(t *testing.T) {
		m := &mockAPI{}
		env := newTestEnv(t, m)
		w := env.do(postForm("/auth/login", url.Values{"email": {"not-an-email"}, "password": {""}}))
		assert.Equal(t, MsgInvalidLogin, flash(t, w, middleware.FlashError))
		assert.Empty(t, m.Calls())
	})
}

func TestSignupPostHandler(t *testing.T) {
	t.Run("profile image is required", func(t *testing.T) {
		m := &mockAPI{}
		env := newTestEnv(t, m)
		req := postMultipart(t, "/auth/signup", map[string]string{"email": "amit@example.com", "password": "secret"}, nil)

		w := env.do(req)
		assert.Equal(t, signupPath, w.Header().Get("Location"))
		assert.Equal(t, MsgProfileRequired, flash(t, w, middleware.FlashError))
		assert.Empty(t, m.Calls())
	})

	t.Run("success returns to login", func(t *testing.T) {
		data := pngData(t)
		m := &mockAPI{SignupFunc: func(ctx context.Context, req api.SignupRequest) error {
			assert.Equal(t, "amit@example.com", req.Email)
			require.NotNil(t, req.ProfileImage)
			assert.Equal(t, "me.png", req.ProfileImage.Filename)
			got, _ := io.ReadAll(req.ProfileImage.Content)
			assert.Equal(t, data, got)
			return nil
		}}
		env := newTestEnv(t, m)
		req := postMultipart(t, "/auth/signup",
			map[string]string{"email": "amit@example.com", "password": "secret"},
			&filePart{field: "profileImage", filename: "me.png", contentType: "image/png", data: data})

		w := env.do(req)
		assert.Equal(t, "/auth", w.Header().Get("Location"))
		assert.Equal(t, MsgSignupSuccess, flash(t, w, middleware.FlashSuccess))
		assert.Equal(t, []string{"Signup"}, m.Calls())
	})

	t.Run("server failure", func(t *testing.T) {
		m := &mockAPI{SignupFunc: func(context.Context, api.SignupRequest) error {
			return &errors.ErrorWithStatusCode{Message: "User already exists", StatusCode: 409}
		}}
		env := newTestEnv(t, m)
		req := postMultipart(t, "/auth/signup",
			map[string]string{"email": "amit@example.com", "password": "secret"},
			&filePart{field: "profileImage", filename: "me.png", contentType: "image/png", data: pngData(t)})

		w := env.do(req)
		assert.Equal(t, signupPath, w.Header().Get("Location"))
		assert.Equal(t, "User already exists", flash(t, w, middleware.FlashError))
	})
}

func TestLogout(t *testing.T) {
	t.Run("confirmation page", func(t *testing.T) {
		env := newTestEnv(t, &mockAPI{})
		w := env.do(httptest.NewRequest(http.MethodGet, "/logout", nil), env.loginCookie(t))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `name="confirm" value="yes"`)
	})

	t.Run("confirmed clears the session", func(t *testing.T) {
		env := newTestEnv(t, &mockAPI{})
		w := env.do(postForm("/logout", url.Values{"confirm": {"yes"}}), env.loginCookie(t))
		assert.Equal(t, "/auth", w.Header().Get("Location"))
		cleared := findCookie(w, session.CookieName)
		require.NotNil(t, cleared)
		assert.Equal(t, -1, cleared.MaxAge)
	})

	t.Run("not confirmed keeps the session", func(t *testing.T) {
		env := newTestEnv(t, &mockAPI{})
		w := env.do(postForm("/logout", url.Values{}), env.loginCookie(t))
		assert.Equal(t, "/dashboard", w.Header().Get("Location"))
		assert.Nil(t, findCookie(w, session.CookieName))
	})
}
