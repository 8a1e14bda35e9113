package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itchan-dev/blogfront/frontend/internal/session"
)

func newWatchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print session changes made by other blogctl runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stop := a.store.Subscribe(func(e session.Event) {
				switch e.Kind {
				case session.Saved:
					fmt.Fprintf(a.out, "%s: logged in as %s\n", e.Kind, e.Session.User.DisplayName("User"))
				default:
					fmt.Fprintf(a.out, "%s: logged out\n", e.Kind)
				}
			})
			defer stop()

			fmt.Fprintf(a.out, "Watching %s\n", a.store.Path())
			return a.store.Watch(cmd.Context())
		},
	}
}
