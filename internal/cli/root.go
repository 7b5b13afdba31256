// Package cli provides the ngactl operator command line.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"nga_reminder/internal/bot"
	"nga_reminder/internal/config"
	"nga_reminder/internal/fetcher"
	"nga_reminder/internal/notify"
	"nga_reminder/internal/ratelimit"
	"nga_reminder/internal/scheduler"
	"nga_reminder/internal/storage"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:           "ngactl",
	Short:         "Operate the NGA thread monitor",
	Long:          "ngactl manages monitored NGA threads, runs one-shot checks and inspects stored posts and events.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ngactl %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default $DATABASE_PATH)")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// exitError carries a process exit status that is not a failure message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// ExitStatus maps an Execute error to a process exit status. Errors that
// only carry a status are not printed.
func ExitStatus(err error) (int, bool) {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code, false
	}
	return scheduler.ExitError, true
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOffline()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*storage.SQLite, error) {
	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

// newFetcher builds the rate-limited page fetcher. Tests replace it.
var newFetcher = func(cfg *config.Config) (scheduler.Fetcher, error) {
	if err := cfg.CheckCredentials(); err != nil {
		return nil, err
	}
	client := fetcher.New(&http.Client{Timeout: cfg.NGATimeout}, fetcher.Options{
		APIURL:      cfg.NGAAPIURL,
		UserAgent:   cfg.NGAUserAgent,
		PassportUID: cfg.NGAPassportUID,
		PassportCID: cfg.NGAPassportCID,
		Timeout:     cfg.NGATimeout,
	})
	return fetcher.NewPageFetcher(client, ratelimit.New(cfg.RateLimitPerMinute), cfg.FetchWorkers), nil
}

// newDispatcher builds the alert router for one-shot checks. The Telegram
// channel only sends; no update loop runs. Tests replace it.
var newDispatcher = func(cfg *config.Config, log *slog.Logger) (scheduler.Dispatcher, error) {
	channels := []notify.Notifier{
		notify.NewBark(&http.Client{Timeout: cfg.BarkTimeout}, notify.BarkOptions{
			ServerURL: cfg.BarkServerURL,
			DeviceKey: cfg.BarkDeviceKey,
			Group:     cfg.BarkGroup,
			Sound:     cfg.BarkSound,
			Timeout:   cfg.BarkTimeout,
		}, log),
	}
	if cfg.BotEnabled() && cfg.TelegramChatID != 0 {
		tg, err := bot.NewAPI(cfg.TelegramBotToken)
		if err != nil {
			return nil, err
		}
		channels = append(channels, notify.NewTelegram(bot.New(tg, nil, nil, cfg, log), cfg.TelegramChatID))
	}
	channels = append(channels, notify.NewConsole(os.Stdout, cfg.ConsoleNotify))
	return notify.NewRouter(log, channels...), nil
}
