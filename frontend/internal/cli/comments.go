package cli

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/itchan-dev/blogfront/frontend/internal/comments"
	"github.com/itchan-dev/blogfront/shared/domain"
	"github.com/itchan-dev/blogfront/shared/errors"
)

func newCommentsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "comments",
		Short:       "Read and write blog comments",
		Annotations: requireLogin(),
	}
	cmd.AddCommand(newCommentsListCommand(a), newCommentsAddCommand(a))
	return cmd
}

func newCommentsListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list BLOG_ID",
		Short: "Print a blog's comment thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flat, err := comments.NewAssembler(a.client).Load(cmd.Context(), a.token(), args[0])
			if err != nil {
				return a.fail(err, "list comments")
			}
			a.printComments(flat)
			return nil
		},
	}
}

func newCommentsAddCommand(a *app) *cobra.Command {
	var replyTo string
	cmd := &cobra.Command{
		Use:   "add BLOG_ID CONTENT...",
		Short: "Comment on a blog, or reply to a comment",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.Join(args[1:], " ")
			flat, err := comments.NewAssembler(a.client).Add(cmd.Context(), a.token(), args[0], content, replyTo)
			var reload *comments.ReloadError
			switch {
			case stderrors.As(err, &reload):
				fmt.Fprintln(a.out, "Comment added successfully!")
				return a.fail(reload.Err, "reload comments")
			case errors.IsValidation(err):
				return stderrors.New(errors.UserMessage(err))
			case err != nil:
				return a.fail(err, "add comment")
			}
			fmt.Fprintln(a.out, "Comment added successfully!")
			a.printComments(flat)
			return nil
		},
	}
	cmd.Flags().StringVar(&replyTo, "reply-to", "", "id of the top-level comment to reply to")
	return cmd
}

func (a *app) printComments(flat []domain.Comment) {
	if len(flat) == 0 {
		fmt.Fprintln(a.out, "No comments yet.")
		return
	}
	for _, c := range flat {
		indent := ""
		if c.IsReply() {
			indent = "    "
		}
		fmt.Fprintf(a.out, "%s[%s] %s (%s): %s\n",
			indent, c.Id, c.User.DisplayName("Unknown"), c.CreatedAt.Format(timeLayout), c.Content)
	}
}
