package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"nga_reminder/internal/model"
	"nga_reminder/internal/scheduler"
	"nga_reminder/internal/storage"
)

var (
	addNotify    string
	addStore     string
	addInterval  time.Duration
	addFromStart bool
	addDisabled  bool
)

var addCmd = &cobra.Command{
	Use:   "add <tid>",
	Short: "Start monitoring a thread",
	Long: `Start monitoring a thread. By default only posts written after the
thread's current newest post raise alerts; --from-start processes the whole
thread on the first check.`,
	Args: cobra.ExactArgs(1),
	RunE: addAction,
}

var removeCmd = &cobra.Command{
	Use:   "remove <tid>",
	Short: "Stop monitoring a thread and delete its stored posts",
	Args:  cobra.ExactArgs(1),
	RunE:  removeAction,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List monitored threads",
	Args:  cobra.NoArgs,
	RunE:  listAction,
}

var enableCmd = &cobra.Command{
	Use:   "enable <tid>",
	Short: "Resume checking a thread",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, args[0], true)
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable <tid>",
	Short: "Pause checking a thread",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, args[0], false)
	},
}

func init() {
	addCmd.Flags().StringVar(&addNotify, "notify", "all", "authors that raise alerts: all, none or uid,uid")
	addCmd.Flags().StringVar(&addStore, "store", "all", "authors whose posts are stored: all, none or uid,uid")
	addCmd.Flags().DurationVar(&addInterval, "interval", model.DefaultInterval, "base check interval")
	addCmd.Flags().BoolVar(&addFromStart, "from-start", false, "process the thread from its first post")
	addCmd.Flags().BoolVar(&addDisabled, "disabled", false, "add the thread paused")
	rootCmd.AddCommand(addCmd, removeCmd, listCmd, enableCmd, disableCmd)
}

func parseTID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid thread ID %q", s)
	}
	return id, nil
}

func addAction(cmd *cobra.Command, args []string) error {
	id, err := parseTID(args[0])
	if err != nil {
		return err
	}
	notifyFilter, err := model.ParseAuthorFilter(addNotify, model.AllAuthors())
	if err != nil {
		return fmt.Errorf("parse --notify: %w", err)
	}
	storeFilter, err := model.ParseAuthorFilter(addStore, model.AllAuthors())
	if err != nil {
		return fmt.Errorf("parse --store: %w", err)
	}
	if addInterval < time.Minute {
		return fmt.Errorf("--interval must be at least 1m")
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

	ctx := cmd.Context()
	t := &model.Target{
		ID:           id,
		BaseInterval: addInterval,
		StoreFilter:  storeFilter,
		NotifyFilter: notifyFilter,
		Enabled:      !addDisabled,
	}

	if !addFromStart {
		f, err := newFetcher(cfg)
		if err != nil {
			return err
		}
		wm, meta, err := scheduler.Tip(ctx, f, id)
		if err != nil {
			return fmt.Errorf("read thread %d: %w", id, err)
		}
		t.Title = meta.Title
		t.PostsPerPage = wm.PostsPerPage
		t.LastSeenCount = wm.Count
		t.LastSeenPostNumber = wm.SequenceNumber
		if err := store.CreateTarget(ctx, t); err != nil {
			return addError(id, err)
		}
		if err := store.UpsertThread(ctx, meta.Thread()); err != nil {
			return fmt.Errorf("save thread: %w", err)
		}
	} else if err := store.CreateTarget(ctx, t); err != nil {
		return addError(id, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "added #%d, starting after post #%d\n", t.ID, t.LastSeenPostNumber)
	if t.Title != "" {
		fmt.Fprintf(out, "title: %s\n", t.Title)
	}
	return nil
}

func addError(id int64, err error) error {
	if errors.Is(err, storage.ErrExists) {
		return fmt.Errorf("thread %d is already monitored", id)
	}
	return fmt.Errorf("create target: %w", err)
}

func removeAction(cmd *cobra.Command, args []string) error {
	id, err := parseTID(args[0])
	if err != nil {
		return err
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

	if err := store.DeleteTarget(cmd.Context(), id); err != nil {
		return fmt.Errorf("remove thread %d: %w", id, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed #%d\n", id)
	return nil
}

func listAction(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	targets, err := store.ListTargets(cmd.Context())
	if err != nil {
		return fmt.Errorf("list targets: %w", err)
	}
	printTargets(cmd.OutOrStdout(), targets)
	return nil
}

func printTargets(w io.Writer, targets []model.Target) {
	if len(targets) == 0 {
		fmt.Fprintln(w, "No threads are monitored. Use 'ngactl add <tid>' to add one.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TID\tSTATUS\tINTERVAL\tLAST SEEN\tCOUNT\tNOTIFY\tLAST CHECK\tTITLE")
	for _, t := range targets {
		status := "active"
		if !t.Enabled {
			status = "paused"
		}
		checked := "never"
		if t.LastCheckedAt != nil {
			checked = t.LastCheckedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			t.ID, status, t.BaseInterval, t.LastSeenPostNumber, t.LastSeenCount, t.NotifyFilter, checked, t.Title)
	}
	_ = tw.Flush()
}

func setEnabled(cmd *cobra.Command, arg string, enabled bool) error {
	id, err := parseTID(arg)
	if err != nil {
		return err
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

	if err := store.SetEnabled(cmd.Context(), id, enabled); err != nil {
		return fmt.Errorf("update thread %d: %w", id, err)
	}
	verb := "disabled"
	if enabled {
		verb = "enabled"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s #%d\n", verb, id)
	return nil
}
