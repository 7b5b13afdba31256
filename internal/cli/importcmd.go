package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"nga_reminder/internal/config"
	"nga_reminder/internal/watch"
)

var importDryRun bool

var importCmd = &cobra.Command{
	Use:   "import [targets.yaml]",
	Short: "Import threads from a targets file",
	Long: `Create or update monitored threads from a YAML targets file
(default $TARGETS_FILE). Watermarks are never moved back by an import.`,
	Args: cobra.MaximumNArgs(1),
	RunE: importAction,
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "validate the file without modifying the database")
	rootCmd.AddCommand(importCmd)
}

func importAction(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfg.TargetsFile
	if len(args) == 1 {
		path = args[0]
	}

	targets, err := config.LoadTargets(path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if importDryRun {
		for _, t := range targets {
			fmt.Fprintf(out, "would import #%d (every %s, notify %s)\n", t.ID, t.BaseInterval, t.NotifyFilter)
		}
		return nil
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	st, err := watch.Import(cmd.Context(), store, targets)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "imported %s: %d created, %d updated\n", path, st.Created, st.Updated)
	return nil
}
