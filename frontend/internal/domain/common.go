package frontend_domain

import "github.com/itchan-dev/blogfront/shared/domain"

// Image shown when a blog or profile has no picture.
const (
	PlaceholderImage      = "https://via.placeholder.com/80"
	PlaceholderAvatar     = "https://via.placeholder.com/40"
	PlaceholderAvatarTiny = "https://via.placeholder.com/30"
)

// CommonTemplateData holds fields that are common to all page templates.
// Available in templates as .Common via the TemplateData wrapper.
type CommonTemplateData struct {
	Error            string
	Success          string
	User             *domain.User
	UserImageURL     string
	CSRFToken        string
	EmailPlaceholder string // Pre-filled email for auth forms (from cookie, not URL)
	RequestID        string
}

func (c CommonTemplateData) LoggedIn() bool {
	return c.User != nil
}
