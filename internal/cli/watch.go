package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/colldex/internal/collections"
)

func newWatchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print changes to collection documents until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := opts.manager()
			out := cmd.OutOrStdout()

			err := m.StartWatching(func(path string, change collections.ChangeType) {
				fmt.Fprintf(out, "%-8s %s\n", change, path)
			})
			if err != nil {
				return err
			}
			defer m.StopWatching()

			fmt.Fprintln(cmd.ErrOrStderr(), mutedStyle.Render(fmt.Sprintf("watching %s (session %s)", m.BasePath(), m.WatchSession())))
			<-cmd.Context().Done()
			return nil
		},
	}
}
