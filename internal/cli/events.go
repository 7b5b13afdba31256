package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	eventsLimit int
	eventsPrune bool
	eventsKeep  time.Duration
)

var eventsCmd = &cobra.Command{
	Use:   "events [tid]",
	Short: "Show recent monitoring events",
	Args:  cobra.MaximumNArgs(1),
	RunE:  eventsAction,
}

func init() {
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 20, "number of events to show")
	eventsCmd.Flags().BoolVar(&eventsPrune, "prune", false, "delete events older than --keep instead of listing")
	eventsCmd.Flags().DurationVar(&eventsKeep, "keep", 720*time.Hour, "retention window used by --prune")
	rootCmd.AddCommand(eventsCmd)
}

func eventsAction(cmd *cobra.Command, args []string) error {
	var id int64
	if len(args) == 1 {
		var err error
		if id, err = parseTID(args[0]); err != nil {
			return err
		}
	}
	if eventsLimit <= 0 {
		return fmt.Errorf("--limit must be positive")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	out := cmd.OutOrStdout()
	if eventsPrune {
		n, err := store.PruneEvents(cmd.Context(), time.Now().Add(-eventsKeep))
		if err != nil {
			return fmt.Errorf("prune events: %w", err)
		}
		fmt.Fprintf(out, "pruned %d event(s)\n", n)
		return nil
	}

	events, err := store.ListEvents(cmd.Context(), id, eventsLimit)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	if len(events) == 0 {
		fmt.Fprintln(out, "No events recorded.")
		return nil
	}
	for _, e := range events {
		fmt.Fprintf(out, "%s  #%d  %-13s", e.CreatedAt.UTC().Format(time.RFC3339), e.ThreadID, e.Kind)
		if e.PostCount > 0 {
			fmt.Fprintf(out, "  %d post(s)", e.PostCount)
		}
		if e.Message != "" {
			fmt.Fprintf(out, "  %s", e.Message)
		}
		fmt.Fprintln(out)
	}
	return nil
}
