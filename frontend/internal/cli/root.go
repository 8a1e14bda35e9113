// Package cli implements blogctl, a terminal client for the blog API. Its
// session lives in a file instead of a browser cookie.
package cli

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/itchan-dev/blogfront/frontend/internal/apiclient"
	"github.com/itchan-dev/blogfront/frontend/internal/guard"
	"github.com/itchan-dev/blogfront/frontend/internal/markdown"
	"github.com/itchan-dev/blogfront/frontend/internal/session"
	"github.com/itchan-dev/blogfront/shared/config"
	"github.com/itchan-dev/blogfront/shared/errors"
	"github.com/itchan-dev/blogfront/shared/logger"
)

const (
	annotationAuth = "auth"
	authRequired   = "required"

	MsgNotLoggedIn    = "not logged in: run \"blogctl login\" first"
	MsgSessionExpired = "your session has expired: run \"blogctl login\" again"
)

type options struct {
	configDir   string
	apiURL      string
	imageURL    string
	sessionFile string
	stageDir    string
	logLevel    string
}

// app is filled in by the root pre-run hook and shared by every command.
type app struct {
	out           io.Writer
	in            *bufio.Reader
	store         *session.FileStore
	client        *apiclient.APIClient
	text          *markdown.TextProcessor
	stageDir      string
	maxImageBytes int64
}

func NewRootCmd() *cobra.Command {
	opts := &options{}
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "blogctl",
		Short:         "Read and write blogs from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.init(cmd, opts); err != nil {
				return err
			}
			if needsLogin(cmd) && guard.Check(a.store) == guard.RedirectToLogin {
				return stderrors.New(MsgNotLoggedIn)
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configDir, "config", "c", "", "folder holding public.yaml")
	flags.StringVar(&opts.apiURL, "api-url", "", "blog API base URL (default $BLOGFRONT_API_BASE_URL)")
	flags.StringVar(&opts.imageURL, "image-url", "", "image base URL (default $BLOGFRONT_IMAGE_BASE_URL)")
	flags.StringVar(&opts.sessionFile, "session-file", "", "session file path")
	flags.StringVar(&opts.stageDir, "stage-dir", "", "directory for images pending upload")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	rootCmd.AddCommand(
		newLoginCommand(a),
		newSignupCommand(a),
		newLogoutCommand(a),
		newWhoamiCommand(a),
		newBlogsCommand(a),
		newCommentsCommand(a),
		newWatchCommand(a),
	)
	return rootCmd
}

func (a *app) init(cmd *cobra.Command, opts *options) error {
	logger.InitializeWriter(cmd.ErrOrStderr(), opts.logLevel, false)

	var public config.Public
	if opts.configDir != "" {
		p, err := config.LoadPublic(opts.configDir)
		if err != nil {
			return err
		}
		public = p
	}
	apiURL := firstNonEmpty(opts.apiURL, public.APIBaseURL, os.Getenv("BLOGFRONT_API_BASE_URL"))
	if apiURL == "" {
		return stderrors.New("no API URL: pass --api-url or --config, or set BLOGFRONT_API_BASE_URL")
	}
	imageURL := firstNonEmpty(opts.imageURL, public.ImageBaseURL, os.Getenv("BLOGFRONT_IMAGE_BASE_URL"))

	path := opts.sessionFile
	if path == "" {
		p, err := session.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	a.out = cmd.OutOrStdout()
	a.in = bufio.NewReader(cmd.InOrStdin())
	a.store = session.NewFileStore(path)
	a.client = apiclient.New(apiURL, imageURL)
	a.text = markdown.New()
	a.stageDir = firstNonEmpty(opts.stageDir, public.Uploads.StageDir, filepath.Join(os.TempDir(), "blogctl-stage"))
	a.maxImageBytes = public.Uploads.MaxImageBytes
	return nil
}

func needsLogin(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationAuth] == authRequired {
			return true
		}
	}
	return false
}

func requireLogin() map[string]string {
	return map[string]string{annotationAuth: authRequired}
}

func (a *app) token() string {
	return a.store.Read().Token
}

// fail turns an API error into the message shown to the user. A rejected
// token ends the stored session.
func (a *app) fail(err error, action string) error {
	logger.Log.Debug("api call failed", "action", action, "error", err)
	if errors.StatusCode(err) == http.StatusUnauthorized {
		if cerr := a.store.Clear(); cerr != nil {
			logger.Log.Error("clearing rejected session", "error", cerr)
		}
		return stderrors.New(MsgSessionExpired)
	}
	return stderrors.New(errors.UserMessage(err))
}

// confirm asks a yes/no question unless yes is already set.
func (a *app) confirm(yes bool, question string) bool {
	if yes {
		return true
	}
	fmt.Fprintf(a.out, "%s [y/N] ", question)
	answer, _ := a.in.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func (a *app) prompt(label string) string {
	fmt.Fprintf(a.out, "%s: ", label)
	line, _ := a.in.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
