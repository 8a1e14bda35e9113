package domain

import "time"

type BlogId = string

type Blog struct {
	Id          BlogId    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image,omitempty"` // relative to the image base URL
	User        *User     `json:"user,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WasUpdated reports whether the blog was edited after creation.
func (b Blog) WasUpdated() bool {
	return !b.UpdatedAt.IsZero() && !b.UpdatedAt.Equal(b.CreatedAt)
}
