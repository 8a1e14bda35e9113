package frontend_domain

const (
	AuthModeLogin  = "login"
	AuthModeSignup = "signup"
)

type AuthPageData struct {
	Mode string
}

func (d AuthPageData) Signup() bool {
	return d.Mode == AuthModeSignup
}

// DashboardPageData lists the user's own blogs. Selected is set when one
// blog's details are opened.
type DashboardPageData struct {
	Blogs    []BlogCard
	Selected *BlogDetail
	Thread   *CommentThread
}

type BlogFormPageData struct {
	Editing       bool
	Id            string
	Title         string
	Description   string
	ExistingImage string
	PendingKey    string
	PreviewURL    string
	BlurHash      string
	MaxImageBytes int64
}

// ConfirmPageData backs every "are you sure" page.
type ConfirmPageData struct {
	Heading    string
	Message    string
	Action     string
	CancelPath string
}

type BlogsPageData struct {
	Blogs []BlogCard
}

type BlogPageData struct {
	Blog   *BlogDetail
	Thread *CommentThread
}
