package frontend_domain

import (
	"net/url"
	"strings"
	"time"
)

type CommentView struct {
	Id        string
	Content   string
	Author    Author
	CreatedAt time.Time
	ParentId  string
}

func (c CommentView) IsReply() bool {
	return c.ParentId != ""
}

// CommentThread is a rendered comment section. PagePath is the page it is
// shown on; reply links and the form's return path are built from it.
type CommentThread struct {
	BlogId    string
	PagePath  string
	From      string
	Comments  []CommentView
	Error     string
	ReplyTo   *CommentView
	CSRFToken string
}

// ReplyURL reopens the page with the reply form aimed at id.
func (t CommentThread) ReplyURL(id string) string {
	sep := "?"
	if strings.Contains(t.PagePath, "?") {
		sep = "&"
	}
	return t.PagePath + sep + "replyTo=" + url.QueryEscape(id) + "#comment-form"
}
