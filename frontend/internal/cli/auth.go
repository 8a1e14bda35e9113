package cli

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/itchan-dev/blogfront/frontend/internal/session"
	"github.com/itchan-dev/blogfront/shared/api"
	"github.com/itchan-dev/blogfront/shared/utils"
)

func newLoginCommand(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = a.prompt("Email")
			}
			if password == "" {
				password = a.prompt("Password")
			}
			req := api.LoginRequest{Email: strings.TrimSpace(email), Password: password}
			if err := utils.Validator().Struct(req); err != nil {
				return fmt.Errorf("please enter a valid email and password")
			}

			resp, err := a.client.Login(cmd.Context(), req.Email, req.Password)
			if err != nil {
				return a.fail(err, "login")
			}
			if err := a.store.Save(session.Session{Token: resp.Token, User: resp.User}); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Login successful! Welcome, %s.\n", resp.User.DisplayName("User"))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	return cmd
}

func newSignupCommand(a *app) *cobra.Command {
	var email, password, image string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openImage(image)
			if err != nil {
				return err
			}
			defer f.Close()

			req := api.SignupRequest{
				Email:        strings.TrimSpace(email),
				Password:     password,
				ProfileImage: &api.File{Filename: filepath.Base(image), ContentType: imageType(image), Content: f},
			}
			if err := utils.Validator().Struct(req); err != nil {
				return fmt.Errorf("please enter a valid email and password")
			}
			if err := a.client.Signup(cmd.Context(), req); err != nil {
				return a.fail(err, "signup")
			}
			fmt.Fprintln(a.out, "Signup successful! You can now login.")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&image, "profile-image", "", "profile image file")
	_ = cmd.MarkFlagRequired("profile-image")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.store.Read().Present() {
				fmt.Fprintln(a.out, "Not logged in.")
				return nil
			}
			if !a.confirm(yes, "Are you sure you want to log out?") {
				fmt.Fprintln(a.out, "Cancelled.")
				return nil
			}
			if err := a.store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation")
	return cmd
}

func newWhoamiCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "whoami",
		Short:       "Show the logged in user",
		Args:        cobra.NoArgs,
		Annotations: requireLogin(),
		RunE: func(cmd *cobra.Command, args []string) error {
			u := a.store.Read().User
			if u != nil && u.Email != "" {
				fmt.Fprintf(a.out, "%s <%s>\n", u.DisplayName("User"), u.Email)
			} else {
				fmt.Fprintln(a.out, u.DisplayName("User"))
			}
			return nil
		},
	}
}

func openImage(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("an image file is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return f, nil
}

// imageType guesses the content type from the extension, then from the
// file's first bytes.
func imageType(path string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		return t
	}
	f, err := os.Open(path)
	if err != nil {
		return "application/octet-stream"
	}
	defer f.Close()
	head := make([]byte, 512)
	n, _ := f.Read(head)
	return http.DetectContentType(head[:n])
}
