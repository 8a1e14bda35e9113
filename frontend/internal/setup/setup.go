package setup

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/itchan-dev/blogfront/frontend/internal/apiclient"
	"github.com/itchan-dev/blogfront/frontend/internal/blogform"
	"github.com/itchan-dev/blogfront/frontend/internal/handler"
	"github.com/itchan-dev/blogfront/frontend/internal/markdown"
	"github.com/itchan-dev/blogfront/frontend/internal/middleware"
	"github.com/itchan-dev/blogfront/frontend/internal/session"
	"github.com/itchan-dev/blogfront/frontend/templates"
	"github.com/itchan-dev/blogfront/shared/config"
	"github.com/itchan-dev/blogfront/shared/csrf"
	"github.com/itchan-dev/blogfront/shared/logger"
	"github.com/itchan-dev/blogfront/shared/middleware/ratelimiter"
	"github.com/itchan-dev/blogfront/shared/utils"
)

const (
	stageSweepInterval   = 10 * time.Minute
	limiterSweepInterval = 5 * time.Minute
	limiterIdle          = 15 * time.Minute
)

type Dependencies struct {
	Handler     *handler.Handler
	Public      config.Public
	Sessions    *session.CookieStore
	Auth        *middleware.Auth
	CSRF        middleware.CSRFConfig
	AuthLimiter *ratelimiter.KeyedLimiter
	Stager      *blogform.Stager
	CancelFunc  context.CancelFunc
}

func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	logger.Initialize(cfg.Public.Log.Level, cfg.Public.Log.JSON)

	sessionKey, err := utils.DeriveKey(cfg.SessionSecret(), utils.PurposeSession)
	if err != nil {
		return nil, err
	}
	csrfKey, err := utils.DeriveKey(cfg.SessionSecret(), utils.PurposeCSRF)
	if err != nil {
		return nil, err
	}

	tmpls, err := handler.LoadTemplates(templateFS(cfg.Public.TemplateDir))
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	uploads := cfg.Public.Uploads
	stager, err := blogform.NewStager(uploads.StageDir, uploads.StageTTL, uploads.MaxImageBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image staging: %w", err)
	}

	apiClient := apiclient.New(cfg.Public.APIBaseURL, cfg.Public.ImageBaseURL)
	h := handler.New(tmpls, cfg.Public, markdown.New(), apiClient, stager)

	limiter := ratelimiter.New(cfg.Public.RateLimit.AuthPerMinute, cfg.Public.RateLimit.AuthBurst, limiterIdle)

	// Create cancellable context for background tasks
	ctx, cancel := context.WithCancel(context.Background())
	go stager.Run(ctx, stageSweepInterval)
	go sweepLimiter(ctx, limiter)

	logger.Log.Info("dependencies ready",
		"api", cfg.Public.APIBaseURL,
		"stage_dir", uploads.StageDir,
		"embedded_templates", cfg.Public.TemplateDir == "")

	return &Dependencies{
		Handler:  h,
		Public:   cfg.Public,
		Sessions: session.NewCookieStore(sessionKey, cfg.Public.SessionTTL, cfg.Public.SecureCookies),
		Auth:     middleware.NewAuth(cfg.Public.SecureCookies),
		CSRF: middleware.CSRFConfig{
			SecureCookies: cfg.Public.SecureCookies,
			Signer:        csrf.NewSigner(csrfKey),
			MaxFormBytes:  uploads.MaxImageBytes + 1<<20,
		},
		AuthLimiter: limiter,
		Stager:      stager,
		CancelFunc:  cancel,
	}, nil
}

// templateFS serves templates from dir when set, so they can be edited
// without a rebuild.
func templateFS(dir string) fs.FS {
	if dir == "" {
		return templates.FS
	}
	return os.DirFS(dir)
}

func sweepLimiter(ctx context.Context, limiter *ratelimiter.KeyedLimiter) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Sweep(); n > 0 {
				logger.Log.Debug("rate limiter swept", "removed", n)
			}
		}
	}
}
