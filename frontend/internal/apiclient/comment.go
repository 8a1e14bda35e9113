package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/itchan-dev/blogfront/shared/api"
	"github.com/itchan-dev/blogfront/shared/domain"
)

// ListComments returns the nested comment set of a blog exactly as the API
// orders it. success:false or a missing list yields no comments.
func (c *APIClient) ListComments(ctx context.Context, token string, blogID domain.BlogId) ([]domain.Comment, error) {
	var out api.CommentsResponse
	if err := c.doJSON(ctx, "list_comments", http.MethodGet, "/comments/"+url.PathEscape(blogID), nil, &out, withBearer(token)); err != nil {
		return nil, err
	}
	if !out.Success || out.Comments == nil {
		return []domain.Comment{}, nil
	}
	return out.Comments, nil
}

// AddComment posts a top-level comment, or a reply when ParentCommentId is set.
func (c *APIClient) AddComment(ctx context.Context, token string, blogID domain.BlogId, req api.CreateCommentRequest) (domain.Comment, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("failed to marshal comment: %w", err)
	}
	resp, err := c.do(ctx, "add_comment", http.MethodPost, "/comments/"+url.PathEscape(blogID), bytes.NewReader(data),
		withBearer(token), withContentType("application/json"))
	if err != nil {
		return domain.Comment{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return domain.Comment{}, nil
	}
	// The created comment is informational; callers refetch the thread anyway.
	var wrapped struct {
		Comment *domain.Comment `json:"comment"`
	}
	if json.Unmarshal(body, &wrapped) == nil && wrapped.Comment != nil {
		return *wrapped.Comment, nil
	}
	var bare domain.Comment
	_ = json.Unmarshal(body, &bare)
	return bare, nil
}
