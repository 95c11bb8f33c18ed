package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/artpar/colldex/internal/collections"
)

// ValidateOptions holds options for the validate command.
type ValidateOptions struct {
	Fix  bool
	Diff bool
}

func newValidateCommand(opts *rootOptions) *cobra.Command {
	vopts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate PATH",
		Short: "Report duplicate names, invalid requests and missing metadata",
		Long: `Validate a collection document.

With --fix the repaired collection is written back. With --diff the repair
is shown as a unified diff and nothing is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts.manager(), args[0], vopts)
		},
	}

	cmd.Flags().BoolVar(&vopts.Fix, "fix", false, "Write the repaired collection back")
	cmd.Flags().BoolVar(&vopts.Diff, "diff", false, "Show the repair as a diff without writing")
	cmd.MarkFlagsMutuallyExclusive("fix", "diff")
	return cmd
}

func runValidate(cmd *cobra.Command, m *collections.Manager, path string, opts *ValidateOptions) error {
	out := cmd.OutOrStdout()

	switch {
	case opts.Diff:
		preview, err := m.PreviewFix(path)
		if err != nil {
			return err
		}
		printIssues(out, preview.Issues)
		if preview.Diff != "" {
			fmt.Fprintln(out)
			fmt.Fprint(out, preview.Diff)
		}
		return nil

	case opts.Fix:
		_, issues, err := m.RepairCollection(path)
		if err != nil {
			return err
		}
		printIssues(out, issues)
		if len(issues) > 0 {
			fmt.Fprintf(out, "Fixed %d issue(s) in %s\n", len(issues), path)
		}
		return nil

	default:
		c, err := m.LoadCollection(path)
		if err != nil {
			return err
		}
		_, issues := collections.ValidateAndFixCollection(c, false)
		printIssues(out, issues)
		return nil
	}
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate PATH",
		Short: "Backfill version and timestamps in an older collection document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.manager().MigrateCollection(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s (version %s, updated %s)\n",
				args[0], c.Metadata.Version, c.Metadata.UpdatedAt)
			return nil
		},
	}
}

func newCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check PATH",
		Short: "Check a collection and exit non-zero when it has issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issues := opts.manager().CheckIntegrity(args[0])
			printIssues(cmd.OutOrStdout(), issues)
			if len(issues) > 0 {
				return fmt.Errorf("%d issue(s) found in %s", len(issues), args[0])
			}
			return nil
		},
	}
}

func newLintCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lint PATH",
		Short: "Check a collection document against the document schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			problems, err := opts.manager().LintDocument(args[0])
			if err != nil {
				return err
			}

			printIssues(cmd.OutOrStdout(), problems)
			if len(problems) > 0 {
				return fmt.Errorf("%d schema violation(s) in %s", len(problems), args[0])
			}
			return nil
		},
	}
}

func printIssues(out io.Writer, issues []string) {
	if len(issues) == 0 {
		fmt.Fprintln(out, "No issues found")
		return
	}

	fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("%d issue(s)", len(issues))))
	for _, issue := range issues {
		fmt.Fprintln(out, issueStyle.Render("  - "+issue))
	}
}
