package cli

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
)

func newScanCommand(opts *rootOptions) *cobra.Command {
	var requests bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List collection documents under the base directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := opts.manager()

			scan := m.ScanCollections
			if requests {
				scan = m.ScanRequests
			}

			paths, err := scan()
			if err != nil {
				return err
			}
			sort.Strings(paths)

			out := cmd.OutOrStdout()
			for _, p := range paths {
				fmt.Fprintln(out, relPath(m.BasePath(), p))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&requests, "requests", false, "List request documents instead")
	return cmd
}

func newLoadCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load every collection and report index sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := opts.manager()

			count, err := m.LoadAllCollections()
			if err != nil {
				return err
			}
			size, err := m.RequestIndexSize()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d collection(s), %d request name(s) indexed\n", count, size)
			return nil
		},
	}
}

func newListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.loadAll(); err != nil {
				return err
			}
			m := opts.manager()

			indexed, err := m.IndexedCollections()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("Collections (%d)", len(indexed))))
			for _, entry := range indexed {
				fmt.Fprintf(out, "  %s  %s  %s\n",
					entry.Collection.Name,
					mutedStyle.Render(fmt.Sprintf("%d request(s)", entry.Collection.Len())),
					relPath(m.BasePath(), entry.Path))
			}
			return nil
		},
	}
}

func newShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show a collection by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.loadAll(); err != nil {
				return err
			}

			c, err := opts.manager().FindCollectionByName(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, headingStyle.Render(c.String()))
			if c.Metadata.Version != "" {
				fmt.Fprintln(out, mutedStyle.Render("version "+c.Metadata.Version))
			}
			for i, r := range c.Requests {
				fmt.Fprintf(out, "  %d. %s\n", i+1, r)
			}
			return nil
		},
	}
}

func newFindRequestCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "find-request NAME",
		Short: "Find a request by name across all collections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.loadAll(); err != nil {
				return err
			}

			r, err := opts.manager().FindRequestByName(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, r)
			for _, key := range sortedKeys(r.Headers) {
				fmt.Fprintf(out, "  %s: %s\n", key, r.Headers[key])
			}
			if r.HasBody() {
				fmt.Fprintln(out)
				fmt.Fprintln(out, r.Body)
			}
			return nil
		},
	}
}

func newNewCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "new NAME",
		Short: "Create an empty collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, path, err := opts.manager().CreateCollection(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}
}

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete PATH",
		Short: "Delete a collection document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := opts.manager()

			path, err := m.ContainedPath(args[0])
			if err != nil {
				return err
			}
			if err := m.DeleteCollection(path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", relPath(m.BasePath(), path))
			return nil
		},
	}
}

func relPath(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return rel
	}
	return path
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
