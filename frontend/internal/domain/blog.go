package frontend_domain

import (
	"html/template"
	"time"
)

// ExcerptLength is how much of a description the all-blogs list shows.
const ExcerptLength = 150

type Author struct {
	Name     string
	ImageURL string
}

// BlogCard is a list entry.
type BlogCard struct {
	Id        string
	Title     string
	Excerpt   string
	ImageURL  string
	Author    Author
	CreatedAt time.Time
}

// BlogDetail is a blog as its own page shows it.
type BlogDetail struct {
	Id          string
	Title       string
	Description template.HTML
	ImageURL    string
	Author      Author
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Updated     bool
}

// Excerpt cuts text to n characters and marks the cut with "...".
func Excerpt(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
