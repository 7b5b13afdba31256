package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"nga_reminder/internal/scheduler"
)

var checkCmd = &cobra.Command{
	Use:   "check [tid]",
	Short: "Run one check pass and exit",
	Long: `Check every due thread once, or a single thread regardless of its
schedule, then exit with a status describing the outcome:

  0  checked, no change
  1  error
  2  no due work
  3  checked, new posts found (the count is printed)`,
	Args: cobra.MaximumNArgs(1),
	RunE: checkAction,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func checkAction(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := cfg.NewLogger()

	f, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	router, err := newDispatcher(cfg, log)
	if err != nil {
		return fmt.Errorf("create notifier: %w", err)
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sched := scheduler.New(store, f, router, log)
	ctx := cmd.Context()

	var results []scheduler.Result
	if len(args) == 1 {
		id, err := parseTID(args[0])
		if err != nil {
			return err
		}
		res, err := sched.CheckTarget(ctx, id)
		if err != nil && res.ThreadID == 0 {
			return err
		}
		results = append(results, res)
	} else {
		if results, err = sched.RunDue(ctx); err != nil {
			return err
		}
	}

	printResults(cmd.OutOrStdout(), results)
	code, found := scheduler.ExitCode(results)
	if code == scheduler.ExitNewPosts {
		fmt.Fprintln(cmd.OutOrStdout(), found)
	}
	if code != scheduler.ExitNoChange {
		return &exitError{code: code}
	}
	return nil
}

func printResults(w io.Writer, results []scheduler.Result) {
	for _, r := range results {
		fmt.Fprintf(w, "#%d %s: %d new, %d stored, %d notified, watermark #%d",
			r.ThreadID, r.State, r.NewPosts, r.Stored, r.Notified, r.Watermark.SequenceNumber)
		if r.Err != nil {
			fmt.Fprintf(w, " (error: %v)", r.Err)
		}
		fmt.Fprintln(w)
	}
}
