package handler

import (
	"context"
	"html/template"
	"net/http"

	"github.com/itchan-dev/blogfront/frontend/internal/blogform"
	"github.com/itchan-dev/blogfront/frontend/internal/comments"
	"github.com/itchan-dev/blogfront/frontend/internal/markdown"
	"github.com/itchan-dev/blogfront/frontend/internal/middleware"
	"github.com/itchan-dev/blogfront/frontend/internal/session"
	"github.com/itchan-dev/blogfront/shared/api"
	"github.com/itchan-dev/blogfront/shared/config"
	"github.com/itchan-dev/blogfront/shared/domain"
)

// API is the blog API as the web handlers use it.
type API interface {
	blogform.API
	comments.API
	Login(ctx context.Context, email, password string) (api.LoginResponse, error)
	Signup(ctx context.Context, req api.SignupRequest) error
	ListMyBlogs(ctx context.Context, token string) ([]domain.Blog, error)
	ListAllBlogs(ctx context.Context, token string) ([]domain.Blog, error)
	GetBlog(ctx context.Context, token string, id domain.BlogId) (domain.Blog, error)
	DeleteBlog(ctx context.Context, token string, id domain.BlogId) error
	ImageURL(path string) string
}

type Handler struct {
	Templates     map[string]*template.Template
	Public        config.Public
	TextProcessor *markdown.TextProcessor
	APIClient     API
	Comments      *comments.Assembler
	Stager        *blogform.Stager
}

func New(templates map[string]*template.Template, publicCfg config.Public, textProcessor *markdown.TextProcessor, apiClient API, stager *blogform.Stager) *Handler {
	return &Handler{
		Templates:     templates,
		Public:        publicCfg,
		TextProcessor: textProcessor,
		APIClient:     apiClient,
		Comments:      comments.NewAssembler(apiClient),
		Stager:        stager,
	}
}

func (h *Handler) session(r *http.Request) session.Store {
	return middleware.SessionStore(r)
}

func (h *Handler) token(r *http.Request) string {
	return h.session(r).Read().Token
}

func (h *Handler) setFlash(w http.ResponseWriter, name, message string) {
	middleware.SetFlash(w, name, message, h.Public.SecureCookies)
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, target, name, message string) {
	h.setFlash(w, name, message)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func RootHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/auth", http.StatusSeeOther)
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
