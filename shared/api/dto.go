package api

import (
	"io"

	"github.com/itchan-dev/blogfront/shared/domain"
)

// Request and response bodies of the remote blog API.

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// SignupRequest is sent as multipart; ProfileImage is required by the form.
type SignupRequest struct {
	Email        string `validate:"required,email"`
	Password     string `validate:"required"`
	ProfileImage *File  `validate:"required"`
}

type BlogsResponse struct {
	Blogs []domain.Blog `json:"blogs"`
}

type BlogResponse struct {
	Blog *domain.Blog `json:"blog"`
}

// BlogPayload is the multipart body of create and update requests.
type BlogPayload struct {
	Title       string
	Description string
	Image       *File // optional on update
}

type CommentsResponse struct {
	Success  bool             `json:"success"`
	Comments []domain.Comment `json:"comments"`
}

type CreateCommentRequest struct {
	Content         string  `json:"content"`
	ParentCommentId *string `json:"parentCommentId,omitempty"`
}

// ErrorResponse is the failure body; Message is shown to users verbatim.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// File is an upload part. Content is read once while the request streams.
type File struct {
	Filename    string
	ContentType string
	Content     io.Reader
}
