package cli

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/itchan-dev/blogfront/frontend/internal/blogform"
	frontend_domain "github.com/itchan-dev/blogfront/frontend/internal/domain"
	"github.com/itchan-dev/blogfront/shared/domain"
	"github.com/itchan-dev/blogfront/shared/errors"
	"github.com/itchan-dev/blogfront/shared/logger"
)

const (
	timeLayout = "2006-01-02 15:04"
	stageTTL   = time.Hour
)

func newBlogsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "blogs",
		Short:       "List, read and manage blogs",
		Annotations: requireLogin(),
	}
	cmd.AddCommand(
		newBlogsMineCommand(a),
		newBlogsAllCommand(a),
		newBlogsShowCommand(a),
		newBlogsCreateCommand(a),
		newBlogsUpdateCommand(a),
		newBlogsDeleteCommand(a),
	)
	return cmd
}

func newBlogsMineCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your own blogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			blogs, err := a.client.ListMyBlogs(cmd.Context(), a.token())
			if err != nil {
				return a.fail(err, "list my blogs")
			}
			return a.printBlogs(blogs, false)
		},
	}
}

func newBlogsAllCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "List every blog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			blogs, err := a.client.ListAllBlogs(cmd.Context(), a.token())
			if err != nil {
				return a.fail(err, "list all blogs")
			}
			return a.printBlogs(blogs, true)
		},
	}
}

func newBlogsShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show BLOG_ID",
		Short: "Print a blog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blog, err := a.client.GetBlog(cmd.Context(), a.token(), args[0])
			if err != nil {
				return a.fail(err, "get blog")
			}
			fmt.Fprintln(a.out, blog.Title)
			fmt.Fprintf(a.out, "by %s, %s", blog.User.DisplayName("Unknown"), blog.CreatedAt.Format(timeLayout))
			if blog.WasUpdated() {
				fmt.Fprintf(a.out, " (Updated: %s)", blog.UpdatedAt.Format(timeLayout))
			}
			fmt.Fprintln(a.out)
			if blog.Image != "" {
				fmt.Fprintln(a.out, a.client.ImageURL(blog.Image))
			}
			fmt.Fprintf(a.out, "\n%s\n", a.text.PlainText(blog.Description))
			return nil
		},
	}
}

type blogFlags struct {
	title       string
	description string
	image       string
}

func (f *blogFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "blog title")
	cmd.Flags().StringVar(&f.description, "description", "", "blog description (markdown)")
	cmd.Flags().StringVar(&f.image, "image", "", "image file to upload")
}

func newBlogsCreateCommand(a *app) *cobra.Command {
	var f blogFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new blog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := a.newForm()
			if err != nil {
				return err
			}
			form.OpenForCreate()
			defer cancelForm(form)
			if err := a.fillForm(cmd, form, f); err != nil {
				return err
			}
			return a.submitForm(cmd, form)
		},
	}
	f.register(cmd)
	return cmd
}

func newBlogsUpdateCommand(a *app) *cobra.Command {
	var f blogFlags
	cmd := &cobra.Command{
		Use:   "update BLOG_ID",
		Short: "Edit one of your blogs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blog, err := a.client.GetBlog(cmd.Context(), a.token(), args[0])
			if err != nil {
				return a.fail(err, "get blog")
			}
			form, err := a.newForm()
			if err != nil {
				return err
			}
			form.OpenForEdit(blog)
			defer cancelForm(form)
			if err := a.fillForm(cmd, form, f); err != nil {
				return err
			}
			return a.submitForm(cmd, form)
		},
	}
	f.register(cmd)
	return cmd
}

func newBlogsDeleteCommand(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete BLOG_ID",
		Short: "Delete one of your blogs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.confirm(yes, fmt.Sprintf("Are you sure you want to delete blog %s?", args[0])) {
				fmt.Fprintln(a.out, "Cancelled.")
				return nil
			}
			if err := a.client.DeleteBlog(cmd.Context(), a.token(), args[0]); err != nil {
				return a.fail(err, "delete blog")
			}
			fmt.Fprintln(a.out, "Blog deleted successfully!")

			blogs, err := a.client.ListMyBlogs(cmd.Context(), a.token())
			if err != nil {
				return a.fail(err, "list my blogs")
			}
			return a.printBlogs(blogs, false)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation")
	return cmd
}

func (a *app) newForm() (*blogform.Controller, error) {
	stager, err := blogform.NewStager(a.stageDir, stageTTL, a.maxImageBytes)
	if err != nil {
		return nil, err
	}
	return blogform.New(a.client, stager), nil
}

// fillForm applies only the flags that were given, so an update keeps the
// fields left out.
func (a *app) fillForm(cmd *cobra.Command, form *blogform.Controller, f blogFlags) error {
	if cmd.Flags().Changed("title") {
		if err := form.SetField(blogform.FieldTitle, f.title); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("description") {
		if err := form.SetField(blogform.FieldDescription, f.description); err != nil {
			return err
		}
	}
	if f.image == "" {
		return nil
	}
	file, err := openImage(f.image)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := form.SetImage(filepath.Base(f.image), imageType(f.image), file); err != nil {
		return stderrors.New(blogform.FailureMessage(err))
	}
	return nil
}

func (a *app) submitForm(cmd *cobra.Command, form *blogform.Controller) error {
	res, err := form.Submit(cmd.Context(), a.token())
	if err != nil {
		if errors.StatusCode(err) == http.StatusUnauthorized {
			return a.fail(err, "save blog")
		}
		logger.Log.Debug("blog submit failed", "error", err)
		return stderrors.New(blogform.FailureMessage(err))
	}
	fmt.Fprintf(a.out, "%s (%s)\n", res.Message, res.Blog.Id)
	return nil
}

func cancelForm(form *blogform.Controller) {
	if err := form.Cancel(); err != nil {
		logger.Log.Warn("discarding blog draft", "error", err)
	}
}

func (a *app) printBlogs(blogs []domain.Blog, withExcerpt bool) error {
	if len(blogs) == 0 {
		fmt.Fprintln(a.out, "No blogs yet.")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	header := "ID\tTITLE\tAUTHOR\tCREATED"
	if withExcerpt {
		header += "\tEXCERPT"
	}
	fmt.Fprintln(tw, header)
	for _, b := range blogs {
		row := fmt.Sprintf("%s\t%s\t%s\t%s", b.Id, b.Title, b.User.DisplayName("Unknown"), b.CreatedAt.Format(timeLayout))
		if withExcerpt {
			row += "\t" + frontend_domain.Excerpt(a.text.PlainText(b.Description), frontend_domain.ExcerptLength)
		}
		fmt.Fprintln(tw, row)
	}
	return tw.Flush()
}
