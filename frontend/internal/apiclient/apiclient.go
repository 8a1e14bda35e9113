package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/itchan-dev/blogfront/shared/api"
	internal_errors "github.com/itchan-dev/blogfront/shared/errors"
	"github.com/itchan-dev/blogfront/shared/logger"
	"github.com/itchan-dev/blogfront/shared/middleware/metrics"
)

// maxErrorBody caps how much of a failure body is read for its message.
const maxErrorBody = 64 << 10

// APIClient struct handles all communication with the blog API.
type APIClient struct {
	BaseURL      string
	ImageBaseURL string
	HttpClient   *http.Client
}

// New creates a client for the API at baseURL. Image paths returned by the
// API resolve against imageBaseURL.
func New(baseURL, imageBaseURL string) *APIClient {
	return &APIClient{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ImageBaseURL: strings.TrimRight(imageBaseURL, "/"),
		HttpClient:   &http.Client{},
	}
}

type requestOption func(*http.Request)

// withBearer is applied to every authenticated endpoint, even with an empty
// token: the API decides whether to reject the call.
func withBearer(token string) requestOption {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func withContentType(contentType string) requestOption {
	return func(req *http.Request) {
		req.Header.Set("Content-Type", contentType)
	}
}

// do is the single, unified helper for making API requests. Non-2xx answers
// are turned into *ErrorWithStatusCode; the caller owns the body on success.
func (c *APIClient) do(ctx context.Context, endpoint, method, path string, body io.Reader, opts ...requestOption) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create API request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		metrics.APICalls.WithLabelValues(endpoint, "unavailable").Inc()
		return nil, fmt.Errorf("%w: %s %s: %v", internal_errors.ErrBackendUnavailable, method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		metrics.APICalls.WithLabelValues(endpoint, "rejected").Inc()
		apiErr := errorFromResponse(resp)
		logger.Log.Debug("api call rejected", "endpoint", endpoint, "status", resp.StatusCode, "message", apiErr.Message)
		return nil, apiErr
	}
	metrics.APICalls.WithLabelValues(endpoint, "ok").Inc()
	return resp, nil
}

// doJSON sends an optional JSON body and decodes a JSON answer into out.
func (c *APIClient) doJSON(ctx context.Context, endpoint, method, path string, in, out any, opts ...requestOption) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", endpoint, err)
		}
		body = bytes.NewReader(data)
		opts = append(opts, withContentType("application/json"))
	}

	resp, err := c.do(ctx, endpoint, method, path, body, opts...)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("cannot decode %s response: %w", endpoint, err)
	}
	return nil
}

// errorFromResponse prefers the API's own "message"; anything else gets the
// generic failure text.
func errorFromResponse(resp *http.Response) *internal_errors.ErrorWithStatusCode {
	apiErr := &internal_errors.ErrorWithStatusCode{
		Message:    internal_errors.MsgRequestFailed,
		StatusCode: resp.StatusCode,
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}
	var body api.ErrorResponse
	if err := json.Unmarshal(data, &body); err == nil && strings.TrimSpace(body.Message) != "" {
		apiErr.Message = body.Message
	}
	return apiErr
}

// ImageURL resolves an image path returned by the API. Empty paths stay empty
// so callers can pick their own placeholder; absolute URLs pass through.
func (c *APIClient) ImageURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.ImageBaseURL + "/" + strings.TrimLeft(path, "/")
}
