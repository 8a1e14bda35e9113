package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/itchan-dev/blogfront/frontend/internal/blogform"
	frontend_domain "github.com/itchan-dev/blogfront/frontend/internal/domain"
	"github.com/itchan-dev/blogfront/frontend/internal/middleware"
	"github.com/itchan-dev/blogfront/shared/errors"
	"github.com/itchan-dev/blogfront/shared/logger"
)

const (
	MsgBlogDeleted = "Blog deleted successfully!"
	dashboardPath  = "/dashboard"
	imageField     = "image"
)

func (h *Handler) DashboardGetHandler(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.APIClient.ListMyBlogs(r.Context(), h.token(r))
	if err != nil {
		if h.sessionRejected(w, r, err) {
			return
		}
		logger.Log.Error("listing own blogs", "error", err)
		h.renderTemplateWithError(w, r, statusFor(err), "dashboard.html", frontend_domain.DashboardPageData{}, errors.UserMessage(err))
		return
	}

	data := frontend_domain.DashboardPageData{Blogs: make([]frontend_domain.BlogCard, 0, len(blogs))}
	selected := r.URL.Query().Get("view")
	for _, b := range blogs {
		data.Blogs = append(data.Blogs, h.renderBlogCard(b))
		if selected != "" && b.Id == selected {
			data.Selected = h.renderBlogDetail(b)
		}
	}
	if data.Selected != nil {
		thread, ok := h.commentThread(w, r, selected, dashboardBlogPath(selected), fromDashboard)
		if !ok {
			return
		}
		data.Thread = thread
	}
	h.renderTemplate(w, r, "dashboard.html", data)
}

func (h *Handler) newForm() *blogform.Controller {
	return blogform.New(h.APIClient, h.Stager)
}

// restoreForm rebuilds the draft carried in the form's hidden fields and
// applies the visible ones.
func (h *Handler) restoreForm(r *http.Request) *blogform.Controller {
	c := h.newForm()
	c.Restore(blogform.Draft{
		Id:            r.FormValue("id"),
		ExistingImage: r.FormValue("existing_image"),
		PendingKey:    r.FormValue("pending_key"),
	})
	_ = c.SetField(blogform.FieldTitle, r.FormValue(blogform.FieldTitle))
	_ = c.SetField(blogform.FieldDescription, r.FormValue(blogform.FieldDescription))
	return c
}

func (h *Handler) formPage(c *blogform.Controller) frontend_domain.BlogFormPageData {
	d, _ := c.Draft()
	data := frontend_domain.BlogFormPageData{
		Editing:       d.Mode() == blogform.Edit,
		Id:            d.Id,
		Title:         d.Title,
		Description:   d.Description,
		ExistingImage: d.ExistingImage,
		PendingKey:    d.PendingKey,
		MaxImageBytes: h.Public.Uploads.MaxImageBytes,
	}
	p := c.Preview()
	switch {
	case p.StagedKey != "":
		data.PreviewURL = "/drafts/" + p.StagedKey + "/preview"
		data.BlurHash = p.BlurHash
	case p.ExistingImage != "":
		data.PreviewURL = h.APIClient.ImageURL(p.ExistingImage)
	}
	return data
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, c *blogform.Controller, errMsg string) {
	h.renderTemplateWithError(w, r, status, "blog_form.html", h.formPage(c), errMsg)
}

func (h *Handler) BlogNewGetHandler(w http.ResponseWriter, r *http.Request) {
	c := h.newForm()
	c.OpenForCreate()
	h.renderForm(w, r, http.StatusOK, c, "")
}

func (h *Handler) BlogEditGetHandler(w http.ResponseWriter, r *http.Request) {
	blog, err := h.APIClient.GetBlog(r.Context(), h.token(r), chi.URLParam(r, "id"))
	if err != nil {
		h.apiFailure(w, r, err, "load blog for edit", dashboardPath)
		return
	}
	c := h.newForm()
	c.OpenForEdit(blog)
	h.renderForm(w, r, http.StatusOK, c, "")
}

// stageUpload stages the image part of the request, if there is one.
func (h *Handler) stageUpload(r *http.Request, c *blogform.Controller) (bool, error) {
	file, header, err := r.FormFile(imageField)
	if err != nil {
		return false, nil
	}
	defer file.Close()
	if _, err := c.SetImage(header.Filename, header.Header.Get("Content-Type"), file); err != nil {
		return true, err
	}
	return true, nil
}

// BlogImagePostHandler stages a chosen image and shows the form with its
// preview.
func (h *Handler) BlogImagePostHandler(w http.ResponseWriter, r *http.Request) {
	c := h.restoreForm(r)
	staged, err := h.stageUpload(r, c)
	switch {
	case err != nil:
		logger.Log.Warn("staging image", "error", err)
		h.renderForm(w, r, http.StatusBadRequest, c, errors.UserMessage(err))
	case !staged:
		h.renderForm(w, r, http.StatusBadRequest, c, blogform.MsgImageRequired)
	default:
		h.renderForm(w, r, http.StatusOK, c, "")
	}
}

// BlogSavePostHandler submits the draft. A file sent along with the form is
// staged first, so the form also works as a single submit.
func (h *Handler) BlogSavePostHandler(w http.ResponseWriter, r *http.Request) {
	c := h.restoreForm(r)
	if _, err := h.stageUpload(r, c); err != nil {
		h.renderForm(w, r, http.StatusBadRequest, c, errors.UserMessage(err))
		return
	}

	res, err := c.Submit(r.Context(), h.token(r))
	if err != nil {
		if h.sessionRejected(w, r, err) {
			return
		}
		status := http.StatusBadRequest
		if !errors.IsValidation(err) {
			logger.Log.Error("saving blog", "error", err)
			status = statusFor(err)
		}
		h.renderForm(w, r, status, c, blogform.FailureMessage(err))
		return
	}
	logger.Log.Info("blog saved", "id", res.Blog.Id, "mode", res.Mode)
	h.redirectWithFlash(w, r, dashboardPath, middleware.FlashSuccess, res.Message)
}

func (h *Handler) BlogCancelPostHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.restoreForm(r).Cancel(); err != nil {
		logger.Log.Warn("discarding draft", "error", err)
	}
	http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
}

func (h *Handler) BlogDeleteGetHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.renderTemplate(w, r, "confirm.html", frontend_domain.ConfirmPageData{
		Heading:    "Delete blog",
		Message:    "Are you sure you want to delete this blog?",
		Action:     "/dashboard/blogs/" + url.PathEscape(id) + "/delete",
		CancelPath: dashboardPath,
	})
}

// BlogDeletePostHandler deletes only when confirmed; the dashboard then
// lists blogs again.
func (h *Handler) BlogDeletePostHandler(w http.ResponseWriter, r *http.Request) {
	if r.FormValue("confirm") != "yes" {
		http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.APIClient.DeleteBlog(r.Context(), h.token(r), id); err != nil {
		h.apiFailure(w, r, err, "delete blog", dashboardPath)
		return
	}
	logger.Log.Info("blog deleted", "id", id)
	h.redirectWithFlash(w, r, dashboardPath, middleware.FlashSuccess, MsgBlogDeleted)
}

// DraftPreviewHandler serves a staged image's thumbnail.
func (h *Handler) DraftPreviewHandler(w http.ResponseWriter, r *http.Request) {
	path, err := h.Stager.PreviewPath(chi.URLParam(r, "key"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeFile(w, r, path)
}
