// Package commands implements the CLI commands for stashsync.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/stashsync/internal/app"
	"go.trai.ch/stashsync/internal/build"
	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/stashsync/internal/engine/registry"
)

// CLI represents the command line interface for stashsync.
type CLI struct {
	app        Application
	injector   FailureInjector
	configPath string
	rootCmd    *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Start(ctx context.Context, configPath string) error
	Stop(ctx context.Context) error
	Registry() *registry.Registry
	ValidateDeclarations(path string) (*domain.Declarations, error)
	LoadPage(ctx context.Context, page domain.PageName) (*app.Page, error)
	Execute(ctx context.Context, req domain.WriteRequest) (any, error)
	Entries() []app.EntryInfo
}

// FailureInjector makes upstream reject the next write of an operation.
type FailureInjector interface {
	FailNext(op domain.WriteOperation, err error)
}

// Option configures a CLI.
type Option func(*CLI)

// WithFailureInjector enables the --fail flag of the simulate command.
func WithFailureInjector(f FailureInjector) Option {
	return func(c *CLI) { c.injector = f }
}

// WithConfigPath sets the config file the simulate command follows.
func WithConfigPath(path string) Option {
	return func(c *CLI) { c.configPath = path }
}

// New creates a new CLI instance with the given app.
func New(a Application, opts ...Option) *CLI {
	rootCmd := &cobra.Command{
		Use:           "stashsync",
		Short:         "Cache-consistency layer for the budgeting dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}
	for _, opt := range opts {
		opt(c)
	}

	rootCmd.AddCommand(c.newRegistryCmd())
	rootCmd.AddCommand(c.newSimulateCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
