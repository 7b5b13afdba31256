package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"nga_reminder/internal/api"
	"nga_reminder/internal/bot"
	"nga_reminder/internal/config"
	"nga_reminder/internal/fetcher"
	"nga_reminder/internal/housekeeping"
	"nga_reminder/internal/notify"
	"nga_reminder/internal/ratelimit"
	"nga_reminder/internal/scheduler"
	"nga_reminder/internal/storage"
	"nga_reminder/internal/watch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := cfg.NewLogger()

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := fetcher.New(&http.Client{Timeout: cfg.NGATimeout}, fetcher.Options{
		APIURL:      cfg.NGAAPIURL,
		UserAgent:   cfg.NGAUserAgent,
		PassportUID: cfg.NGAPassportUID,
		PassportCID: cfg.NGAPassportCID,
		Timeout:     cfg.NGATimeout,
	})
	pages := fetcher.NewPageFetcher(client, ratelimit.New(cfg.RateLimitPerMinute), cfg.FetchWorkers)

	channels := []notify.Notifier{
		notify.NewBark(&http.Client{Timeout: cfg.BarkTimeout}, notify.BarkOptions{
			ServerURL: cfg.BarkServerURL,
			DeviceKey: cfg.BarkDeviceKey,
			Group:     cfg.BarkGroup,
			Sound:     cfg.BarkSound,
			Timeout:   cfg.BarkTimeout,
		}, log),
	}

	var b *bot.Bot
	if cfg.BotEnabled() {
		tg, err := bot.NewAPI(cfg.TelegramBotToken)
		if err != nil {
			log.Error("create bot", "error", err)
			os.Exit(1)
		}
		b = bot.New(tg, store, pages, cfg, log)
		channels = append(channels, notify.NewTelegram(b, cfg.TelegramChatID))
	}
	channels = append(channels, notify.NewConsole(os.Stdout, cfg.ConsoleNotify))

	router := notify.NewRouter(log, channels...)
	sched := scheduler.New(store, pages, router, log)
	sched.SetTickInterval(cfg.TickInterval)

	if _, err := os.Stat(cfg.TargetsFile); err == nil {
		st, err := watch.ImportFile(ctx, store, cfg.TargetsFile)
		if err != nil {
			log.Error("import targets", "path", cfg.TargetsFile, "error", err)
			os.Exit(1)
		}
		log.Info("targets imported", "path", cfg.TargetsFile, "created", st.Created, "updated", st.Updated)
	} else if !errors.Is(err, fs.ErrNotExist) {
		log.Error("stat targets file", "path", cfg.TargetsFile, "error", err)
		os.Exit(1)
	}

	pruner := housekeeping.NewPruner(store, cfg.EventRetention, log)
	prune, err := pruner.Schedule(ctx, cfg.EventPruneSchedule)
	if err != nil {
		log.Error("schedule prune", "error", err)
		os.Exit(1)
	}
	prune.Start()
	defer prune.Stop()

	var wg sync.WaitGroup
	start := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
			log.Debug("component stopped", "component", name)
		}()
	}

	start("scheduler", func() { sched.Run(ctx) })

	if dir := filepath.Dir(cfg.TargetsFile); dirExists(dir) {
		w := watch.New(cfg.TargetsFile, store, log)
		start("watcher", func() {
			if err := w.Run(ctx); err != nil {
				log.Error("watch targets", "error", err)
			}
		})
	}

	if b != nil {
		b.SetChecker(sched)
		start("bot", func() { b.Run(ctx) })
	}

	if cfg.HTTPAddr != "" {
		srv := api.New(store, sched, log)
		start("api", func() {
			if err := srv.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
				log.Error("api server", "error", err)
			}
		})
	}

	log.Info("monitor started",
		"channels", router.Channels(),
		"bot", b != nil,
		"http_addr", cfg.HTTPAddr,
		"tick", cfg.TickInterval,
	)
	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warn("notify systemd", "error", err)
	} else if ok {
		log.Debug("systemd notified", "state", "ready")
	}

	<-ctx.Done()
	log.Info("shutting down")
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	wg.Wait()
	log.Info("monitor stopped")
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
