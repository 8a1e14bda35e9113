package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/itchan-dev/blogfront/shared/api"
	"github.com/itchan-dev/blogfront/shared/domain"
	internal_errors "github.com/itchan-dev/blogfront/shared/errors"
)

// ListMyBlogs returns the blogs owned by the token's user.
func (c *APIClient) ListMyBlogs(ctx context.Context, token string) ([]domain.Blog, error) {
	var out api.BlogsResponse
	if err := c.doJSON(ctx, "list_my_blogs", http.MethodGet, "/blogs", nil, &out, withBearer(token)); err != nil {
		return nil, err
	}
	return out.Blogs, nil
}

// ListAllBlogs returns every user's blogs.
func (c *APIClient) ListAllBlogs(ctx context.Context, token string) ([]domain.Blog, error) {
	var out api.BlogsResponse
	if err := c.doJSON(ctx, "list_all_blogs", http.MethodGet, "/blogs/all", nil, &out, withBearer(token)); err != nil {
		return nil, err
	}
	return out.Blogs, nil
}

func (c *APIClient) GetBlog(ctx context.Context, token string, id domain.BlogId) (domain.Blog, error) {
	var out api.BlogResponse
	if err := c.doJSON(ctx, "get_blog", http.MethodGet, "/blogs/"+url.PathEscape(id), nil, &out, withBearer(token)); err != nil {
		return domain.Blog{}, err
	}
	if out.Blog == nil {
		return domain.Blog{}, &internal_errors.ErrorWithStatusCode{Message: "Blog not found", StatusCode: http.StatusNotFound}
	}
	return *out.Blog, nil
}

func (c *APIClient) CreateBlog(ctx context.Context, token string, payload api.BlogPayload) (domain.Blog, error) {
	return c.sendBlog(ctx, "create_blog", http.MethodPost, "/blogs", token, payload)
}

func (c *APIClient) UpdateBlog(ctx context.Context, token string, id domain.BlogId, payload api.BlogPayload) (domain.Blog, error) {
	return c.sendBlog(ctx, "update_blog", http.MethodPut, "/blogs/"+url.PathEscape(id), token, payload)
}

func (c *APIClient) DeleteBlog(ctx context.Context, token string, id domain.BlogId) error {
	return c.doJSON(ctx, "delete_blog", http.MethodDelete, "/blogs/"+url.PathEscape(id), nil, nil, withBearer(token))
}

func (c *APIClient) sendBlog(ctx context.Context, endpoint, method, path, token string, payload api.BlogPayload) (domain.Blog, error) {
	fields := []formField{
		{"title", payload.Title},
		{"description", payload.Description},
	}
	resp, err := c.doMultipart(ctx, endpoint, method, path, fields, "image", payload.Image, withBearer(token))
	if err != nil {
		return domain.Blog{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Blog{}, fmt.Errorf("read %s response: %w", endpoint, err)
	}
	return decodeBlog(data)
}

// decodeBlog accepts {"blog": {...}} as well as a bare blog object. An empty
// body is a success without details.
func decodeBlog(data []byte) (domain.Blog, error) {
	if len(data) == 0 {
		return domain.Blog{}, nil
	}
	var wrapped api.BlogResponse
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return domain.Blog{}, fmt.Errorf("cannot decode blog response: %w", err)
	}
	if wrapped.Blog != nil {
		return *wrapped.Blog, nil
	}
	var bare domain.Blog
	if err := json.Unmarshal(data, &bare); err != nil {
		return domain.Blog{}, fmt.Errorf("cannot decode blog response: %w", err)
	}
	return bare, nil
}
