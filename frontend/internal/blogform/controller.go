// Package blogform holds the state of an open create or edit form for a blog
// post and turns it into a create or update call.
package blogform

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"

	"github.com/itchan-dev/blogfront/shared/api"
	"github.com/itchan-dev/blogfront/shared/domain"
	"github.com/itchan-dev/blogfront/shared/errors"
	"github.com/itchan-dev/blogfront/shared/logger"
	"github.com/itchan-dev/blogfront/shared/utils"
)

const (
	FieldTitle       = "title"
	FieldDescription = "description"

	MsgTitleRequired       = "Title is required."
	MsgDescriptionRequired = "Description is required."
	MsgImageRequired       = "Please select an image."
	MsgCreated             = "Blog added successfully!"
	MsgUpdated             = "Blog updated successfully!"
	MsgSaveFailed          = "Failed to save blog. Please try again."
)

var (
	ErrNoDraft      = stderrors.New("no blog form is open")
	ErrUnknownField = stderrors.New("unknown blog form field")
)

type Mode int

const (
	Create Mode = iota + 1
	Edit
)

func (m Mode) String() string {
	switch m {
	case Create:
		return "create"
	case Edit:
		return "edit"
	default:
		return "closed"
	}
}

// Draft is the local form state. Id is empty while creating.
type Draft struct {
	Id            domain.BlogId
	Title         string `validate:"notblank"`
	Description   string `validate:"notblank"`
	ExistingImage string
	PendingKey    string
}

func (d Draft) Mode() Mode {
	if d.Id == "" {
		return Create
	}
	return Edit
}

// Preview is what the form shows as the image: the staged upload when there
// is one, else the blog's current image.
type Preview struct {
	StagedKey     string
	BlurHash      string
	ExistingImage string
}

func (p Preview) Empty() bool {
	return p.StagedKey == "" && p.ExistingImage == ""
}

type API interface {
	CreateBlog(ctx context.Context, token string, payload api.BlogPayload) (domain.Blog, error)
	UpdateBlog(ctx context.Context, token string, id domain.BlogId, payload api.BlogPayload) (domain.Blog, error)
}

// Result of a successful submit. The caller refreshes the blog list.
type Result struct {
	Blog    domain.Blog
	Mode    Mode
	Message string
}

// Controller is not safe for concurrent use; each request or command owns one.
type Controller struct {
	api    API
	stager *Stager
	draft  *Draft
}

func New(api API, stager *Stager) *Controller {
	return &Controller{api: api, stager: stager}
}

func (c *Controller) OpenForCreate() {
	c.draft = &Draft{}
}

func (c *Controller) OpenForEdit(blog domain.Blog) {
	c.draft = &Draft{
		Id:            blog.Id,
		Title:         blog.Title,
		Description:   blog.Description,
		ExistingImage: blog.Image,
	}
}

// Restore reopens a draft carried over from a previous request. A pending
// key that no longer resolves is dropped.
func (c *Controller) Restore(d Draft) {
	if d.PendingKey != "" && c.stager != nil {
		if _, err := c.stager.Get(d.PendingKey); err != nil {
			logger.Log.Debug("dropping expired staged image", "key", d.PendingKey)
			d.PendingKey = ""
		}
	}
	c.draft = &d
}

func (c *Controller) Draft() (Draft, bool) {
	if c.draft == nil {
		return Draft{}, false
	}
	return *c.draft, true
}

func (c *Controller) SetField(name, value string) error {
	if c.draft == nil {
		return ErrNoDraft
	}
	switch name {
	case FieldTitle:
		c.draft.Title = value
	case FieldDescription:
		c.draft.Description = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// SetImage stages a new pending file, replacing any earlier one.
func (c *Controller) SetImage(filename, contentType string, r io.Reader) (Stage, error) {
	if c.draft == nil {
		return Stage{}, ErrNoDraft
	}
	stage, err := c.stager.Put(filename, contentType, r)
	if err != nil {
		return Stage{}, err
	}
	if old := c.draft.PendingKey; old != "" {
		if err := c.stager.Remove(old); err != nil {
			logger.Log.Warn("removing replaced staged image", "key", old, "error", err)
		}
	}
	c.draft.PendingKey = stage.Key
	return stage, nil
}

func (c *Controller) Preview() Preview {
	if c.draft == nil {
		return Preview{}
	}
	if c.draft.PendingKey != "" {
		p := Preview{StagedKey: c.draft.PendingKey}
		if stage, err := c.stager.Get(c.draft.PendingKey); err == nil {
			p.BlurHash = stage.BlurHash
		}
		return p
	}
	return Preview{ExistingImage: c.draft.ExistingImage}
}

// Validate checks the draft locally. An image is required only when creating.
func (c *Controller) Validate() error {
	if c.draft == nil {
		return ErrNoDraft
	}
	if err := utils.Validator().Struct(c.draft); err != nil {
		var fieldErrs validator.ValidationErrors
		if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			switch fieldErrs[0].Field() {
			case "Title":
				return errors.Validation(FieldTitle, MsgTitleRequired)
			case "Description":
				return errors.Validation(FieldDescription, MsgDescriptionRequired)
			}
		}
		return err
	}
	if c.draft.Mode() == Create && c.draft.PendingKey == "" {
		return errors.Validation("image", MsgImageRequired)
	}
	return nil
}

// Submit sends the draft as a multipart create or update. On failure the
// draft is kept as it was.
func (c *Controller) Submit(ctx context.Context, token string) (Result, error) {
	if err := c.Validate(); err != nil {
		return Result{}, err
	}
	d := *c.draft
	payload := api.BlogPayload{Title: d.Title, Description: d.Description}

	if d.PendingKey != "" {
		f, stage, err := c.stager.Open(d.PendingKey)
		if err != nil {
			c.draft.PendingKey = ""
			if d.Mode() == Create {
				return Result{}, errors.Validation("image", MsgImageRequired)
			}
			return Result{}, fmt.Errorf("open staged image: %w", err)
		}
		defer f.Close()
		payload.Image = &api.File{Filename: stage.Filename, ContentType: stage.ContentType, Content: f}
	}

	var (
		blog domain.Blog
		err  error
		res  = Result{Mode: d.Mode()}
	)
	if d.Mode() == Create {
		blog, err = c.api.CreateBlog(ctx, token, payload)
		res.Message = MsgCreated
	} else {
		blog, err = c.api.UpdateBlog(ctx, token, d.Id, payload)
		res.Message = MsgUpdated
	}
	if err != nil {
		return Result{}, err
	}
	res.Blog = blog

	if d.PendingKey != "" {
		if err := c.stager.Remove(d.PendingKey); err != nil {
			logger.Log.Warn("removing submitted staged image", "key", d.PendingKey, "error", err)
		}
	}
	c.draft = nil
	return res, nil
}

// Cancel discards the draft and its staged file.
func (c *Controller) Cancel() error {
	if c.draft == nil {
		return nil
	}
	key := c.draft.PendingKey
	c.draft = nil
	if key != "" && c.stager != nil {
		return c.stager.Remove(key)
	}
	return nil
}

// FailureMessage is the text shown when a submit fails.
func FailureMessage(err error) string {
	if errors.IsValidation(err) {
		return errors.UserMessage(err)
	}
	var s *errors.ErrorWithStatusCode
	if stderrors.As(err, &s) && s.Message != "" && s.Message != errors.MsgRequestFailed {
		return "Error: " + s.Message
	}
	return MsgSaveFailed
}
