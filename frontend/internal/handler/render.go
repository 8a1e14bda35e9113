package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	frontend_domain "github.com/itchan-dev/blogfront/frontend/internal/domain"
	"github.com/itchan-dev/blogfront/frontend/internal/middleware"
	"github.com/itchan-dev/blogfront/shared/domain"
	"github.com/itchan-dev/blogfront/shared/logger"
	shared_mw "github.com/itchan-dev/blogfront/shared/middleware"
)

const (
	baseTemplate     = "base.html"
	partialsTemplate = "partials.html"
	emailPrefill     = "email_prefill"
)

// TemplateData wraps page-specific data with common template data.
// Templates access page data via .Data and common data via .Common.
type TemplateData struct {
	Data   any
	Common frontend_domain.CommonTemplateData
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("Jan 2, 2006 15:04")
}

func bytesToMB(bytes int64) int64 {
	return bytes / (1024 * 1024)
}

// LoadTemplates parses every page in fsys together with the base layout and
// the shared partials.
func LoadTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	funcs := template.FuncMap{
		"formatTime": formatTime,
		"bytesToMB":  bytesToMB,
	}
	templates := make(map[string]*template.Template)
	for _, f := range files {
		name := f.Name()
		if path.Ext(name) != ".html" || name == baseTemplate || name == partialsTemplate {
			continue
		}
		tmpl, err := template.New(baseTemplate).Funcs(funcs).ParseFS(fsys, baseTemplate, partialsTemplate, name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		templates[name] = tmpl
	}
	return templates, nil
}

func (h *Handler) getTemplate(name string) (*template.Template, bool) {
	tmpl, ok := h.Templates[name]
	return tmpl, ok
}

func (h *Handler) initCommonTemplateData(w http.ResponseWriter, r *http.Request) frontend_domain.CommonTemplateData {
	secure := h.Public.SecureCookies
	common := frontend_domain.CommonTemplateData{
		Error:            middleware.PopFlash(w, r, middleware.FlashError, secure),
		Success:          middleware.PopFlash(w, r, middleware.FlashSuccess, secure),
		EmailPlaceholder: middleware.PopFlash(w, r, emailPrefill, secure),
		CSRFToken:        middleware.GetCSRFTokenFromContext(r),
		RequestID:        shared_mw.GetRequestID(r.Context()),
	}
	if s := h.session(r).Read(); s.Present() {
		common.User = s.User
		common.UserImageURL = h.author(s.User, frontend_domain.PlaceholderAvatar).ImageURL
	}
	return common
}

func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	h.renderTemplateWithError(w, r, http.StatusOK, name, data, "")
}

func (h *Handler) renderTemplateWithError(w http.ResponseWriter, r *http.Request, status int, name string, data any, errMsg string) {
	tmpl, ok := h.getTemplate(name)
	if !ok {
		http.Error(w, fmt.Sprintf("Template %s not found", name), http.StatusInternalServerError)
		return
	}

	common := h.initCommonTemplateData(w, r)
	if errMsg != "" {
		common.Error = errMsg
	}

	wrapped := TemplateData{
		Data:   data,
		Common: common,
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, wrapped); err != nil {
		logger.Log.Error("error executing template", "template", name, "error", err)
		http.Error(w, "Internal Server Error rendering template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) imageOr(path, placeholder string) string {
	if url := h.APIClient.ImageURL(path); url != "" {
		return url
	}
	return placeholder
}

func (h *Handler) author(u *domain.User, placeholder string) frontend_domain.Author {
	a := frontend_domain.Author{Name: u.DisplayName("Unknown"), ImageURL: placeholder}
	if u != nil {
		a.ImageURL = h.imageOr(u.ProfileImage, placeholder)
	}
	return a
}

func (h *Handler) renderBlogCard(b domain.Blog) frontend_domain.BlogCard {
	return frontend_domain.BlogCard{
		Id:        b.Id,
		Title:     b.Title,
		Excerpt:   frontend_domain.Excerpt(h.TextProcessor.PlainText(b.Description), frontend_domain.ExcerptLength),
		ImageURL:  h.imageOr(b.Image, frontend_domain.PlaceholderImage),
		Author:    h.author(b.User, frontend_domain.PlaceholderAvatar),
		CreatedAt: b.CreatedAt,
	}
}

func (h *Handler) renderBlogDetail(b domain.Blog) *frontend_domain.BlogDetail {
	return &frontend_domain.BlogDetail{
		Id:          b.Id,
		Title:       b.Title,
		Description: h.TextProcessor.Render(b.Description),
		ImageURL:    h.imageOr(b.Image, frontend_domain.PlaceholderImage),
		Author:      h.author(b.User, frontend_domain.PlaceholderAvatar),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
		Updated:     b.WasUpdated(),
	}
}

func (h *Handler) renderComment(c domain.Comment) frontend_domain.CommentView {
	v := frontend_domain.CommentView{
		Id:        c.Id,
		Content:   strings.TrimSpace(c.Content),
		Author:    h.author(c.User, frontend_domain.PlaceholderAvatar),
		CreatedAt: c.CreatedAt,
	}
	if c.ParentCommentId != nil {
		v.ParentId = *c.ParentCommentId
		v.Author = h.author(c.User, frontend_domain.PlaceholderAvatarTiny)
	}
	return v
}
