package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"nga_reminder/internal/diff"
)

var resetTo int

var resetCmd = &cobra.Command{
	Use:   "reset <tid>",
	Short: "Move a thread's watermark, possibly backwards",
	Long: `Set the last seen post number of a thread. The next check re-reads
every page after the new watermark; posts already stored are not duplicated
but do alert again.`,
	Args: cobra.ExactArgs(1),
	RunE: resetAction,
}

func init() {
	resetCmd.Flags().IntVar(&resetTo, "to", 0, "new last seen post number")
	rootCmd.AddCommand(resetCmd)
}

func resetAction(cmd *cobra.Command, args []string) error {
	id, err := parseTID(args[0])
	if err != nil {
		return err
	}
	if resetTo < 0 {
		return fmt.Errorf("--to must not be negative")
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

	if err := store.ResetWatermark(cmd.Context(), id, resetTo); err != nil {
		return fmt.Errorf("reset thread %d: %w", id, err)
	}
	t, err := store.GetTarget(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("get thread %d: %w", id, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "reset #%d to post #%d, next check reads from page %d\n",
		id, resetTo, diff.PageOf(resetTo+1, t.PostsPerPage))
	return nil
}
