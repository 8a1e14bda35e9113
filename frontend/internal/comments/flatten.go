// Package comments turns the API's nested comment set into the flat,
// render-ordered list a blog page shows, and adds new comments to it.
package comments

import "github.com/itchan-dev/blogfront/shared/domain"

// Flatten emits each top-level comment followed immediately by its replies,
// both in server order. Replies carry their parent's id; only one level of
// nesting exists, so a reply's own replies are dropped.
//
// A top-level comment keeps its own parent link, which lets already-flat
// input pass through unchanged.
func Flatten(raw []domain.Comment) []domain.Comment {
	size := len(raw)
	for _, c := range raw {
		size += len(c.Replies)
	}
	flat := make([]domain.Comment, 0, size)

	for _, c := range raw {
		replies := c.Replies
		c.Replies = nil
		flat = append(flat, c)

		for _, r := range replies {
			parent := c.Id
			r.ParentCommentId = &parent
			r.Replies = nil
			flat = append(flat, r)
		}
	}
	return flat
}
