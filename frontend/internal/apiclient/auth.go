package apiclient

import (
	"context"
	"io"
	"net/http"

	"github.com/itchan-dev/blogfront/shared/api"
	internal_errors "github.com/itchan-dev/blogfront/shared/errors"
)

// Login exchanges credentials for a token and the user's profile.
func (c *APIClient) Login(ctx context.Context, email, password string) (api.LoginResponse, error) {
	var out api.LoginResponse
	req := api.LoginRequest{Email: email, Password: password}
	if err := c.doJSON(ctx, "login", http.MethodPost, "/auth/login", req, &out); err != nil {
		return api.LoginResponse{}, err
	}
	if out.Token == "" || out.User == nil {
		return api.LoginResponse{}, &internal_errors.ErrorWithStatusCode{
			Message:    "Login response did not include a session.",
			StatusCode: http.StatusBadGateway,
		}
	}
	return out, nil
}

// Signup registers a user. The API answers with a bare success; the caller
// logs in separately.
func (c *APIClient) Signup(ctx context.Context, req api.SignupRequest) error {
	fields := []formField{
		{"email", req.Email},
		{"password", req.Password},
	}
	resp, err := c.doMultipart(ctx, "signup", http.MethodPost, "/auth/signup", fields, "profileImage", req.ProfileImage)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
