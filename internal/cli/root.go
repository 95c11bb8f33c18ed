package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/artpar/colldex/internal/app"
	"github.com/artpar/colldex/internal/collections"
	"github.com/artpar/colldex/internal/config"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	issueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// rootOptions carries persistent flags and the app they open.
type rootOptions struct {
	configFile string
	basePath   string
	logLevel   string

	app *app.App
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "colldex",
		Short:         "colldex - manage YAML request collections",
		Long:          "colldex stores collections of HTTP request definitions as YAML files and indexes them for fast lookup.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.open(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			opts.close()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is $HOME/.colldex/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.basePath, "base", "", "collections directory (overrides base_path)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(
		newScanCommand(opts),
		newLoadCommand(opts),
		newListCommand(opts),
		newShowCommand(opts),
		newFindRequestCommand(opts),
		newNewCommand(opts),
		newDeleteCommand(opts),
		newValidateCommand(opts),
		newMigrateCommand(opts),
		newCheckCommand(opts),
		newLintCommand(opts),
		newSearchCommand(opts),
		newWatchCommand(opts),
	)

	return cmd
}

func (o *rootOptions) open(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return err
	}

	if o.basePath != "" {
		base, err := config.ExpandHome(o.basePath)
		if err != nil {
			return err
		}
		cfg.BasePath = base
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	application, err := app.New(
		app.WithConfig(cfg),
		app.WithLogOutput(cmd.ErrOrStderr()),
	)
	if err != nil {
		return err
	}

	o.app = application
	return nil
}

func (o *rootOptions) close() {
	if o.app != nil {
		o.app.Close()
	}
}

func (o *rootOptions) manager() *collections.Manager {
	return o.app.Collections()
}

// loadAll fills the index before a lookup command runs.
func (o *rootOptions) loadAll() error {
	if _, err := o.manager().LoadAllCollections(); err != nil {
		return fmt.Errorf("failed to load collections: %w", err)
	}
	return nil
}
