package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/itchan-dev/blogfront/frontend/internal/comments"
	"github.com/itchan-dev/blogfront/frontend/internal/middleware"
	"github.com/itchan-dev/blogfront/shared/api"
	"github.com/itchan-dev/blogfront/shared/domain"
	"github.com/itchan-dev/blogfront/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threadWithReply() []domain.Comment {
	return []domain.Comment{{
		Id:      "c1",
		Content: "Great post",
		User:    &domain.User{Name: "Ravi"},
		Replies: []domain.Comment{{Id: "r1", Content: "Thanks!", User: &domain.User{Name: "Amit"}}},
	}}
}

func TestBlogsGetHandler(t *testing.T) {
	long := strings.Repeat("x", 200)
	m := &mockAPI{ListAllBlogsFunc: func(context.Context, string) ([]domain.Blog, error) {
		return []domain.Blog{{Id: "b1", Title: "Long one", Description: long, User: &domain.User{Name: "Ravi"}}}, nil
	}}
	env := newTestEnv(t, m)
	w := env.do(httptest.NewRequest(http.MethodGet, "/blogs", nil), env.loginCookie(t))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, strings.Repeat("x", 150)+"...")
	assert.NotContains(t, body, strings.Repeat("x", 151))
	assert.Contains(t, body, "Ravi")
	assert.Contains(t, body, "https://via.placeholder.com/40")
}

func TestBlogGetHandler(t *testing.T) {
	t.Run("blog with flattened comments", func(t *testing.T) {
		m := &mockAPI{
			GetBlogFunc: func(ctx context.Context, token string, id domain.BlogId) (domain.Blog, error) {
				return domain.Blog{Id: id, Title: "Hello world", Description: "Body"}, nil
			},
			ListCommentsFunc: func(context.Context, string, domain.BlogId) ([]domain.Comment, error) {
				return threadWithReply(), nil
			},
		}
		env := newTestEnv(t, m)
		w := env.do(httptest.NewRequest(http.MethodGet, "/blogs/b1", nil), env.loginCookie(t))

		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "Hello world")
		first := strings.Index(body, `id="comment-c1"`)
		second := strings.Index(body, `id="comment-r1"`)
		require.NotEqual(t, -1, first)
		require.NotEqual(t, -1, second)
		assert.Less(t, first, second)
		assert.Contains(t, body, `class="comment reply" id="comment-r1"`)
		assert.Contains(t, body, "/blogs/b1?replyTo=c1")
		assert.NotContains(t, body, "?replyTo=r1")
	})

	t.Run("reply target banner", func(t *testing.T) {
		m := &mockAPI{ListCommentsFunc: func(context.Context, string, domain.BlogId) ([]domain.Comment, error) {
			return threadWithReply(), nil
		}}
		env := newTestEnv(t, m)
		w := env.do(httptest.NewRequest(http.MethodGet, "/blogs/b1?replyTo=r1", nil), env.loginCookie(t))

		body := w.Body.String()
		assert.Contains(t, body, "Replying to comment by Ravi")
		assert.Contains(t, body, `name="parentCommentId" value="c1"`)
	})

	t.Run("comment failure still renders the blog", func(t *testing.T) {
		m := &mockAPI{
			GetBlogFunc: func(ctx context.Context, token string, id domain.BlogId) (domain.Blog, error) {
				return domain.Blog{Id: id, Title: "Hello world"}, nil
			},
			ListCommentsFunc: func(context.Context, string, domain.BlogId) ([]domain.Comment, error) {
				return nil, errors.ErrBackendUnavailable
			},
		}
		env := newTestEnv(t, m)
		w := env.do(httptest.NewRequest(http.MethodGet, "/blogs/b1", nil), env.loginCookie(t))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Hello world")
		assert.Contains(t, w.Body.String(), MsgCommentsFailed)
	})

	t.Run("missing blog", func(t *testing.T) {
		m := &mockAPI{GetBlogFunc: func(context.Context, string, domain.BlogId) (domain.Blog, error) {
			return domain.Blog{}, &errors.ErrorWithStatusCode{Message: "Blog not found", StatusCode: 404}
		}}
		env := newTestEnv(t, m)
		w := env.do(httptest.NewRequest(http.MethodGet, "/blogs/gone", nil), env.loginCookie(t))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Failed to load blog.")
		assert.Equal(t, []string{"GetBlog"}, m.Calls())
	})
}

func TestCommentPostHandler(t *testing.T) {
	t.Run("blank comment never calls the API", func(t *testing.T) {
		m := &mockAPI{}
		env := newTestEnv(t, m)
		w := env.do(postForm("/blogs/b1/comments", url.Values{"content": {"   "}}), env.loginCookie(t))

		assert.Equal(t, "/blogs/b1", w.Header().Get("Location"))
		assert.Equal(t, comments.MsgEmptyComment, flash(t, w, middleware.FlashError))
		assert.Empty(t, m.Calls())
	})

	t.Run("reply posts and leaves loading to the next page", func(t *testing.T) {
		m := &mockAPI{AddCommentFunc: func(ctx context.Context, token string, blogID domain.BlogId, req api.CreateCommentRequest) (domain.Comment, error) {
			assert.Equal(t, "abc", token)
			assert.Equal(t, "b1", blogID)
			assert.Equal(t, "Thanks!", req.Content)
			require.NotNil(t, req.ParentCommentId)
			assert.Equal(t, "c1", *req.ParentCommentId)
			return domain.Comment{}, nil
		}}
		env := newTestEnv(t, m)
		w := env.do(postForm("/blogs/b1/comments", url.Values{"content": {"Thanks!"}, "parentCommentId": {"c1"}}), env.loginCookie(t))

		assert.Equal(t, "/blogs/b1#comments", w.Header().Get("Location"))
		assert.Equal(t, MsgCommentAdded, flash(t, w, middleware.FlashSuccess))
		assert.Equal(t, []string{"AddComment"}, m.Calls())
	})

	t.Run("top-level comment has no parent", func(t *testing.T) {
		m := &mockAPI{AddCommentFunc: func(ctx context.Context, token string, blogID domain.BlogId, req api.CreateCommentRequest) (domain.Comment, error) {
			assert.Nil(t, req.ParentCommentId)
			return domain.Comment{}, nil
		}}
		env := newTestEnv(t, m)
		env.do(postForm("/blogs/b1/comments", url.Values{"content": {"Nice"}, "parentCommentId": {""}}), env.loginCookie(t))
		assert.Equal(t, []string{"AddComment"}, m.Calls())
	})

	t.Run("stored comment is reported even when the thread fails to load", func(t *testing.T) {
		m := &mockAPI{ListCommentsFunc: func(context.Context, string, domain.BlogId) ([]domain.Comment, error) {
			return nil, errors.ErrBackendUnavailable
		}}
		env := newTestEnv(t, m)
		w := env.do(postForm("/blogs/b1/comments", url.Values{"content": {"Nice"}}), env.loginCookie(t))
		assert.Equal(t, "/blogs/b1#comments", w.Header().Get("Location"))
		assert.Equal(t, MsgCommentAdded, flash(t, w, middleware.FlashSuccess))

		page := env.do(httptest.NewRequest(http.MethodGet, "/blogs/b1", nil), env.loginCookie(t))
		require.Equal(t, http.StatusOK, page.Code)
		assert.Contains(t, page.Body.String(), MsgCommentsFailed)
		assert.Equal(t, []string{"AddComment", "GetBlog", "ListComments"}, m.Calls())
	})

	t.Run("posted from the dashboard returns there", func(t *testing.T) {
		m := &mockAPI{}
		env := newTestEnv(t, m)
		w := env.do(postForm("/blogs/b1/comments", url.Values{"content": {"Nice"}, "from": {"dashboard"}}), env.loginCookie(t))
		assert.Equal(t, "/dashboard?view=b1#comments", w.Header().Get("Location"))

		w = env.do(postForm("/blogs/b1/comments", url.Values{"content": {" "}, "parentCommentId": {"c1"}, "from": {"dashboard"}}), env.loginCookie(t))
		assert.Equal(t, "/dashboard?view=b1&replyTo=c1", w.Header().Get("Location"))
	})

	t.Run("reply target gone", func(t *testing.T) {
		m := &mockAPI{AddCommentFunc: func(context.Context, string, domain.BlogId, api.CreateCommentRequest) (domain.Comment, error) {
			return domain.Comment{}, &errors.ErrorWithStatusCode{Message: "Parent comment not found", StatusCode: 404}
		}}
		env := newTestEnv(t, m)
		w := env.do(postForm("/blogs/b1/comments", url.Values{"content": {"hi"}, "parentCommentId": {"gone"}}), env.loginCookie(t))
		assert.Equal(t, "/blogs/b1", w.Header().Get("Location"))
		assert.Equal(t, MsgReplyTargetMissed, flash(t, w, middleware.FlashError))
	})
}

func TestCommentsAPIHandler(t *testing.T) {
	t.Run("flattened json", func(t *testing.T) {
		m := &mockAPI{ListCommentsFunc: func(context.Context, string, domain.BlogId) ([]domain.Comment, error) {
			return threadWithReply(), nil
		}}
		env := newTestEnv(t, m)
		w := env.do(httptest.NewRequest(http.MethodGet, "/api/blogs/b1/comments", nil), env.loginCookie(t))

		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Success  bool             `json:"success"`
			Comments []domain.Comment `json:"comments"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body.Success)
		require.Len(t, body.Comments, 2)
		assert.Nil(t, body.Comments[0].ParentCommentId)
		require.NotNil(t, body.Comments[1].ParentCommentId)
		assert.Equal(t, "c1", *body.Comments[1].ParentCommentId)
		assert.Empty(t, body.Comments[0].Replies)
	})

	t.Run("no session", func(t *testing.T) {
		m := &mockAPI{}
		env := newTestEnv(t, m)
		w := env.do(httptest.NewRequest(http.MethodGet, "/api/blogs/b1/comments", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, m.Calls())
	})

	t.Run("api failure", func(t *testing.T) {
		m := &mockAPI{ListCommentsFunc: func(context.Context, string, domain.BlogId) ([]domain.Comment, error) {
			return nil, &errors.ErrorWithStatusCode{Message: "Blog not found", StatusCode: 404}
		}}
		env := newTestEnv(t, m)
		w := env.do(httptest.NewRequest(http.MethodGet, "/api/blogs/b1/comments", nil), env.loginCookie(t))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Blog not found")
	})
}
