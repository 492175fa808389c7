package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/freegle/iznik-api/events"
)

// EventsOptions holds options for the events command
type EventsOptions struct {
	Groups      []int64
	Concurrency int
}

// NewEventsCommand creates the events command
func NewEventsCommand(global *GlobalOptions) *cobra.Command {
	opts := &EventsOptions{}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List upcoming community events",
		Long: `Fetches community events, for all groups or for the given groups in parallel,
and prints them ordered by their next occurrence.`,
		Example: `  iznik-probe events
  iznik-probe events --group 21354 --group 126719`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEvents(cmd.Context(), global, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().Int64SliceVar(&opts.Groups, "group", nil, "Group ID (repeatable)")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", events.DefaultGroupConcurrency, "Parallel group fetches")

	return cmd
}

func runEvents(ctx context.Context, global *GlobalOptions, opts *EventsOptions, out, errOut io.Writer) error {
	deps, err := setup(global, errOut)
	if err != nil {
		return err
	}
	defer func() { _ = deps.close() }()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signalContext(ctx)
	defer stop()

	eventsAPI := events.NewAPI(deps.client)

	var list []events.Event
	if len(opts.Groups) > 0 {
		list, err = eventsAPI.FetchGroups(ctx, opts.Groups, opts.Concurrency)
		if err != nil {
			return err
		}
	} else {
		page, err := eventsAPI.Fetch(ctx, nil)
		if err != nil {
			return err
		}
		store := events.NewStore()
		store.Apply(page)
		list = store.Sorted()
	}

	deps.log.Info().
		Int("count", len(list)).
		Int("groups", len(opts.Groups)).
		Msg("Fetched community events")
	return writeJSON(out, list)
}
