package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSearchCommand(opts *rootOptions) *cobra.Command {
	var requests bool

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Fuzzy search collection or request names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.loadAll(); err != nil {
				return err
			}
			m := opts.manager()

			search := m.SearchCollections
			if requests {
				search = m.SearchRequests
			}

			matches, err := search(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				fmt.Fprintln(out, "No matches")
				return nil
			}
			for _, match := range matches {
				fmt.Fprintf(out, "%s  %s\n", match.Name, mutedStyle.Render(relPath(m.BasePath(), match.Path)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&requests, "requests", false, "Search request names instead")
	return cmd
}
