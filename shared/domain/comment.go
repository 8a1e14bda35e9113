package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

type CommentId = string

// Comment is both the wire shape (top-level entries carry Replies) and the
// flattened view entity (Replies empty, ParentCommentId set on replies).
type Comment struct {
	Id              CommentId  `json:"_id"`
	Content         string     `json:"content"`
	User            *User      `json:"user,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	ParentCommentId *CommentId `json:"parentCommentId"`
	Replies         []Comment  `json:"replies,omitempty"`
}

func (c Comment) IsReply() bool {
	return c.ParentCommentId != nil
}

// UnmarshalJSON accepts the parent link as either "parentCommentId" or
// "parentComment", the latter as a bare id or a populated {"_id": ...} object.
func (c *Comment) UnmarshalJSON(data []byte) error {
	type plain Comment
	var aux struct {
		plain
		ParentComment json.RawMessage `json:"parentComment"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = Comment(aux.plain)
	if c.ParentCommentId != nil && *c.ParentCommentId == "" {
		c.ParentCommentId = nil
	}
	if c.ParentCommentId == nil {
		if id := parseRef(aux.ParentComment); id != "" {
			c.ParentCommentId = &id
		}
	}
	return nil
}

func parseRef(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		Id string `json:"_id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Id
	}
	return ""
}
