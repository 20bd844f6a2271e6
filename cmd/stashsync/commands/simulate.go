package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.trai.ch/stashsync/internal/app"
	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/stashsync/internal/engine/mutation"
	"go.trai.ch/stashsync/internal/ui/output"
	"go.trai.ch/stashsync/internal/ui/style"
	"go.trai.ch/zerr"
)

// errSimulatedFailure is what upstream answers for operations named by --fail.
var errSimulatedFailure = errors.New("simulated upstream failure")

func (c *CLI) newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Load a page and run a write scenario against the simulated upstream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, _ := cmd.Flags().GetString("page")
			fail, _ := cmd.Flags().GetStringSlice("fail")
			return c.simulate(cmd.Context(), cmd.OutOrStdout(), domain.PageName(page), fail)
		},
	}
	cmd.Flags().StringP("page", "p", domain.PageStash.String(), "Page to load before writing")
	cmd.Flags().StringSlice("fail", nil, "Operations whose next write is rejected upstream")
	return cmd
}

func (c *CLI) simulate(ctx context.Context, w io.Writer, page domain.PageName, fail []string) (err error) {
	if !page.Valid() {
		return zerr.With(domain.ErrUnknownPage, "page", page.String())
	}
	for _, name := range fail {
		op := domain.WriteOperation(name)
		if !op.Valid() {
			return zerr.With(domain.ErrUnknownOperation, "operation", name)
		}
		if c.injector == nil {
			return zerr.New("failure injection requires the simulated upstream")
		}
		c.injector.FailNext(op, errSimulatedFailure)
	}

	if err := c.app.Start(ctx, c.configPath); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, c.app.Stop(context.WithoutCancel(ctx)))
	}()

	out := output.New(w)

	p, err := c.app.LoadPage(ctx, page)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "%s loaded %s: %d primary, %d supporting\n",
		paint(out, style.Check, style.Green), page, len(p.Primary), len(p.Supporting))
	for _, r := range p.Unavailable {
		_, _ = fmt.Fprintf(w, "%s %s unavailable\n", paint(out, style.Warning, style.Yellow), r)
	}
	if stash, ok := p.Primary[domain.ResourceStash].(domain.Stash); ok {
		for _, it := range stash.Items {
			_, _ = fmt.Fprintf(w, "  %s %-10s %s\n",
				paint(out, style.StatusIcon(it.Status), style.StatusColor(it.Status)), it.ID, it.Status)
		}
	}

	for _, req := range scenario(time.Now()) {
		op := req.Operation()
		policy := mutation.PolicyFor(op)
		if _, err := c.app.Execute(ctx, req); err != nil {
			_, _ = fmt.Fprintf(w, "%s %-14s policy=%s rolled back: %v\n",
				paint(out, style.Cross, style.Red), op, policy, err)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s %-14s policy=%s\n", paint(out, style.Check, style.Green), op, policy)
	}

	_, _ = fmt.Fprintln(w)
	writeEntries(w, out, c.app.Entries())
	return nil
}

// scenario is the fixed write sequence: a budget allocation, a recurring item
// toggle and a note for the current month.
func scenario(now time.Time) []domain.WriteRequest {
	return []domain.WriteRequest{
		domain.AllocateFundsRequest{StashID: "trip", Amount: domain.M(300, "USD")},
		domain.ToggleItemRequest{ItemID: "domain-renewal", Enabled: false},
		domain.SaveMonthNoteRequest{Month: domain.DateOf(now).MonthKey(), Body: "Simulated note"},
	}
}

func writeEntries(w io.Writer, out *termenv.Output, entries []app.EntryInfo) {
	_, _ = fmt.Fprintf(w, "%-28s %-7s %s\n", "KEY", "STATE", "SUBSCRIBERS")
	for _, e := range entries {
		state, color := "expired", style.Slate
		switch {
		case e.Stale:
			state, color = "stale", style.Yellow
		case e.Fresh:
			state, color = "fresh", style.Green
		}
		// Pad before painting so escape codes do not shift the columns.
		_, _ = fmt.Fprintf(w, "%-28s %s %d\n", e.Key, paint(out, fmt.Sprintf("%-7s", state), color), e.Subscribers)
	}
}
