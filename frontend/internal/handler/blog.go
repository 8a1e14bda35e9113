package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	frontend_domain "github.com/itchan-dev/blogfront/frontend/internal/domain"
	"github.com/itchan-dev/blogfront/frontend/internal/middleware"
	"github.com/itchan-dev/blogfront/shared/domain"
	"github.com/itchan-dev/blogfront/shared/errors"
	"github.com/itchan-dev/blogfront/shared/logger"
)

const (
	MsgBlogLoadFailed    = "Failed to load blog. It may have been deleted or you don't have permission to view it."
	MsgCommentsFailed    = "Failed to load comments"
	MsgCommentAdded      = "Comment added successfully!"
	MsgReplyTargetMissed = "The comment you are replying to no longer exists."
)

func (h *Handler) BlogsGetHandler(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.APIClient.ListAllBlogs(r.Context(), h.token(r))
	if err != nil {
		if h.sessionRejected(w, r, err) {
			return
		}
		logger.Log.Error("listing all blogs", "error", err)
		h.renderTemplateWithError(w, r, statusFor(err), "blogs.html", frontend_domain.BlogsPageData{}, errors.UserMessage(err))
		return
	}
	data := frontend_domain.BlogsPageData{Blogs: make([]frontend_domain.BlogCard, 0, len(blogs))}
	for _, b := range blogs {
		data.Blogs = append(data.Blogs, h.renderBlogCard(b))
	}
	h.renderTemplate(w, r, "blogs.html", data)
}

// BlogGetHandler shows a blog with its comment thread. A failed comment load
// still renders the blog.
func (h *Handler) BlogGetHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	token := h.token(r)

	blog, err := h.APIClient.GetBlog(r.Context(), token, id)
	if err != nil {
		if h.sessionRejected(w, r, err) {
			return
		}
		logger.Log.Error("loading blog", "id", id, "error", err)
		h.renderTemplateWithError(w, r, statusFor(err), "blog.html", frontend_domain.BlogPageData{}, MsgBlogLoadFailed)
		return
	}

	thread, ok := h.commentThread(w, r, id, blogPath(id), "")
	if !ok {
		return
	}
	h.renderTemplate(w, r, "blog.html", frontend_domain.BlogPageData{Blog: h.renderBlogDetail(blog), Thread: thread})
}

// commentThread loads the comments of blog id for display on page. It
// reports false when the session was rejected and a redirect already sent.
func (h *Handler) commentThread(w http.ResponseWriter, r *http.Request, id, page, from string) (*frontend_domain.CommentThread, bool) {
	thread := &frontend_domain.CommentThread{
		BlogId:    id,
		PagePath:  page,
		From:      from,
		CSRFToken: middleware.GetCSRFTokenFromContext(r),
	}
	flat, err := h.Comments.Load(r.Context(), h.token(r), id)
	if err != nil {
		if h.sessionRejected(w, r, err) {
			return nil, false
		}
		logger.Log.Error("loading comments", "blog", id, "error", err)
		thread.Error = MsgCommentsFailed
	}
	thread.Comments = h.renderComments(flat)
	thread.ReplyTo = replyTarget(thread.Comments, r.URL.Query().Get("replyTo"))
	return thread, true
}

func (h *Handler) renderComments(flat []domain.Comment) []frontend_domain.CommentView {
	views := make([]frontend_domain.CommentView, 0, len(flat))
	for _, c := range flat {
		views = append(views, h.renderComment(c))
	}
	return views
}

// replyTarget resolves ?replyTo=. Replies nest one level deep, so choosing a
// reply targets its top-level parent.
func replyTarget(views []frontend_domain.CommentView, id string) *frontend_domain.CommentView {
	if id == "" {
		return nil
	}
	for i := range views {
		if views[i].Id != id {
			continue
		}
		if views[i].IsReply() {
			return replyTarget(views, views[i].ParentId)
		}
		return &views[i]
	}
	return nil
}

func blogPath(id string) string {
	return "/blogs/" + url.PathEscape(id)
}

const fromDashboard = "dashboard"

func dashboardBlogPath(id string) string {
	return dashboardPath + "?view=" + url.QueryEscape(id)
}

// commentReturnPath is the page a comment form was posted from.
func commentReturnPath(r *http.Request, id string) string {
	if r.FormValue("from") == fromDashboard {
		return dashboardBlogPath(id)
	}
	return blogPath(id)
}

func withQuery(path, key, value string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + key + "=" + url.QueryEscape(value)
}

// CommentPostHandler posts only. The page it redirects to loads the thread,
// so a failed reload after a stored post still reports the comment as added.
func (h *Handler) CommentPostHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	content := r.FormValue("content")
	parentID := strings.TrimSpace(r.FormValue("parentCommentId"))

	page := commentReturnPath(r, id)
	back := page
	if parentID != "" {
		back = withQuery(page, "replyTo", parentID)
	}

	if _, err := h.Comments.Post(r.Context(), h.token(r), id, content, parentID); err != nil {
		if errors.IsValidation(err) {
			h.redirectWithFlash(w, r, back, middleware.FlashError, errors.UserMessage(err))
			return
		}
		if parentID != "" && errors.StatusCode(err) == http.StatusNotFound {
			h.redirectWithFlash(w, r, page, middleware.FlashError, MsgReplyTargetMissed)
			return
		}
		h.apiFailure(w, r, err, "add comment", back)
		return
	}
	h.redirectWithFlash(w, r, page+"#comments", middleware.FlashSuccess, MsgCommentAdded)
}
