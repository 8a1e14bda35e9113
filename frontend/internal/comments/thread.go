package comments

import (
	"context"
	"fmt"
	"strings"

	"github.com/itchan-dev/blogfront/shared/api"
	"github.com/itchan-dev/blogfront/shared/domain"
	"github.com/itchan-dev/blogfront/shared/errors"
)

const MsgEmptyComment = "Comment cannot be empty."

// API is the part of the API client the assembler calls.
type API interface {
	ListComments(ctx context.Context, token string, blogID domain.BlogId) ([]domain.Comment, error)
	AddComment(ctx context.Context, token string, blogID domain.BlogId, req api.CreateCommentRequest) (domain.Comment, error)
}

type Assembler struct {
	api API
}

func NewAssembler(api API) *Assembler {
	return &Assembler{api: api}
}

// Load fetches the blog's comments and flattens them.
func (a *Assembler) Load(ctx context.Context, token string, blogID domain.BlogId) ([]domain.Comment, error) {
	raw, err := a.api.ListComments(ctx, token, blogID)
	if err != nil {
		return nil, err
	}
	return Flatten(raw), nil
}

// ReloadError reports a comment that was stored but whose thread could not
// be fetched again. Callers must treat the post as done.
type ReloadError struct {
	Posted domain.Comment
	Err    error
}

func (e *ReloadError) Error() string { return "reload comments: " + e.Err.Error() }

func (e *ReloadError) Unwrap() error { return e.Err }

// Post submits content as a top-level comment, or as a reply when parentID
// is non-empty. Blank content is rejected without a request. A reply target
// that no longer exists fails like any API error.
func (a *Assembler) Post(ctx context.Context, token string, blogID domain.BlogId, content string, parentID string) (domain.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return domain.Comment{}, errors.Validation("content", MsgEmptyComment)
	}
	req := api.CreateCommentRequest{Content: content}
	if parentID != "" {
		req.ParentCommentId = &parentID
	}
	posted, err := a.api.AddComment(ctx, token, blogID, req)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("add comment: %w", err)
	}
	return posted, nil
}

// Add posts like Post, then reloads the whole set. When only the reload
// fails the error is a *ReloadError.
func (a *Assembler) Add(ctx context.Context, token string, blogID domain.BlogId, content string, parentID string) ([]domain.Comment, error) {
	posted, err := a.Post(ctx, token, blogID, content, parentID)
	if err != nil {
		return nil, err
	}
	flat, err := a.Load(ctx, token, blogID)
	if err != nil {
		return nil, &ReloadError{Posted: posted, Err: err}
	}
	return flat, nil
}
