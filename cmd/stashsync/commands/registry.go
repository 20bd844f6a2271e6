package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/stashsync/internal/engine/mutation"
	"go.trai.ch/stashsync/internal/ui/output"
	"go.trai.ch/stashsync/internal/ui/style"
	"go.trai.ch/zerr"
)

func (c *CLI) newRegistryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the resource catalog, effect registry and page map",
	}
	cmd.AddCommand(
		c.newValidateCmd(),
		c.newTargetsCmd(),
		c.newPageCmd(),
		c.newResourcesCmd(),
	)
	return cmd
}

func (c *CLI) newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the registry declaration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, _ := cmd.Flags().GetString("file")
			decl, err := c.app.ValidateDeclarations(file)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			out := output.New(w)
			_, _ = fmt.Fprintf(w, "%s registry declaration is valid: %d resources, %d operations, %d pages\n",
				paint(out, style.Check, style.Green),
				len(decl.Resources), len(decl.Operations), len(decl.Pages))
			return nil
		},
	}
	cmd.Flags().StringP("file", "f", "", "Validate this declaration file instead of the embedded one")
	return cmd
}

func (c *CLI) newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets <operation>",
		Short: "Show the resources a write operation invalidates or marks stale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op := domain.WriteOperation(args[0])
			if !op.Valid() {
				return zerr.With(domain.ErrUnknownOperation, "operation", args[0])
			}

			reg := c.app.Registry()
			w := cmd.OutOrStdout()
			out := output.New(w)
			_, _ = fmt.Fprintf(w, "%s (policy: %s)\n", op, mutation.PolicyFor(op))
			for _, r := range reg.InvalidationTargets(op) {
				_, _ = fmt.Fprintf(w, "  %s %s (invalidate)\n", paint(out, style.Effect(true), style.Iris), r)
			}
			for _, r := range reg.StaleTargets(op) {
				_, _ = fmt.Fprintf(w, "  %s %s (mark stale)\n", paint(out, style.Effect(false), style.Slate), r)
			}
			return nil
		},
	}
}

func (c *CLI) newPageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "page <page>",
		Short: "Show the primary and supporting resources of a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page := domain.PageName(args[0])
			if !page.Valid() {
				return zerr.With(domain.ErrUnknownPage, "page", args[0])
			}

			reg := c.app.Registry()
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "%s (sync scope: %s)\n", page, reg.SyncScope(page))
			_, _ = fmt.Fprintf(w, "  primary     %s\n", joinNames(reg.PrimaryResources(page)))
			_, _ = fmt.Fprintf(w, "  supporting  %s\n", joinNames(reg.SupportingResources(page)))
			return nil
		},
	}
}

func (c *CLI) newResourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the resource catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := c.app.Registry()
			w := cmd.OutOrStdout()
			writeRow(w, "RESOURCE", "FRESH", "RETAIN", "POLL", "DEPENDS ON")
			for _, r := range reg.Resources() {
				cfg, _ := reg.Config(r)
				poll := "no"
				if reg.IsPollable(r) {
					poll = "yes"
				}
				writeRow(w, r.String(), cfg.FreshnessWindow.String(), cfg.Retention().String(), poll, joinNames(cfg.DependsOn))
			}
			return nil
		},
	}
}

func writeRow(w io.Writer, resource, fresh, retain, poll, deps string) {
	_, _ = fmt.Fprintf(w, "%-18s %-7s %-7s %-5s %s\n", resource, fresh, retain, poll, deps)
}

func joinNames(names []domain.ResourceName) string {
	if len(names) == 0 {
		return "-"
	}
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}

func paint(out *termenv.Output, s string, color lipgloss.Color) string {
	return output.Paint(out, s, string(color))
}
