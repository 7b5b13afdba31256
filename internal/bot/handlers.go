package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"nga_reminder/internal/model"
	"nga_reminder/internal/scheduler"
	"nga_reminder/internal/storage"
)

const eventsShown = 10

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to NGA Reminder!

Watch NGA threads and get alerted about new posts.

Quick start:
1. /add <tid> - monitor a thread from its newest post on
2. /add <tid> 150058,42 - only alert on posts by these uids
3. /list - show monitored threads

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Thread management:
/add <tid> [all|none|uid,uid] - monitor a thread
/list - show all threads
/info <tid> - thread details
/remove <tid> - stop monitoring a thread
/interval <tid> <min> - set check interval (1-1440)
/pause <tid> - pause checking
/resume <tid> - resume checking
/check <tid> - check now
/events [tid] - recent monitoring events`)
}

// target loads a target and replies with a not-found message on failure.
func (b *Bot) target(ctx context.Context, chatID, id int64) (*model.Target, bool) {
	t, err := b.store.GetTarget(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(chatID, fmt.Sprintf("Thread #%d not found.", id))
		return nil, false
	}
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return nil, false
	}
	return t, true
}

func (b *Bot) handleAdd(ctx context.Context, chatID int64, args string) {
	parsed, err := ParseAddArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	if _, err := b.store.GetTarget(ctx, parsed.ThreadID); err == nil {
		b.reply(chatID, fmt.Sprintf("Thread #%d is already monitored.", parsed.ThreadID))
		return
	}

	wm, meta, err := scheduler.Tip(ctx, b.fetcher, parsed.ThreadID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to fetch thread: %v", err))
		return
	}

	t := &model.Target{
		ID:                 parsed.ThreadID,
		Title:              meta.Title,
		PostsPerPage:       wm.PostsPerPage,
		LastSeenCount:      wm.Count,
		LastSeenPostNumber: wm.SequenceNumber,
		BaseInterval:       model.DefaultInterval,
		StoreFilter:        model.AllAuthors(),
		NotifyFilter:       parsed.Notify,
		Enabled:            true,
	}
	if err := b.store.CreateTarget(ctx, t); err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to save thread: %v", err))
		return
	}
	if err := b.store.UpsertThread(ctx, meta.Thread()); err != nil {
		b.log.Warn("upsert thread", "thread_id", t.ID, "error", err)
	}

	b.reply(chatID, fmt.Sprintf("Thread added!\n#%d %s (every %d min)\nStarting after post #%d, notify: %s",
		t.ID, targetName(t), minutes(t.BaseInterval), t.LastSeenPostNumber, t.NotifyFilter))
}

func (b *Bot) handleList(ctx context.Context, chatID int64) {
	targets, err := b.store.ListTargets(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatTargetList(targets))
}

func (b *Bot) handleInfo(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /info <tid>")
		return
	}
	t, ok := b.target(ctx, chatID, id)
	if !ok {
		return
	}

	msg := tgbotapi.NewMessage(chatID, FormatTargetInfo(t))
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Check now", fmt.Sprintf("%s:%d", cmdCheck, id)),
			tgbotapi.NewInlineKeyboardButtonData("Events", fmt.Sprintf("%s:%d", cmdEvents, id)),
			tgbotapi.NewInlineKeyboardButtonData("Remove", fmt.Sprintf("delete_confirm:%d", id)),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send info", "thread_id", id, "error", err)
	}
}

func (b *Bot) handleRemove(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /remove <tid>")
		return
	}
	t, ok := b.target(ctx, chatID, id)
	if !ok {
		return
	}

	if err := b.store.DeleteTarget(ctx, id); err != nil {
		b.reply(chatID, fmt.Sprintf("Error deleting thread: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Thread #%d \"%s\" removed.", id, targetName(t)))
}

func (b *Bot) handleInterval(ctx context.Context, chatID int64, args string) {
	id, interval, err := ParseIntervalArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	t, ok := b.target(ctx, chatID, id)
	if !ok {
		return
	}

	t.BaseInterval = interval
	if err := b.store.UpdateTarget(ctx, t); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Thread #%d interval set to %d min.", id, minutes(interval)))
}

func (b *Bot) handlePause(ctx context.Context, chatID int64, args string) {
	b.setEnabled(ctx, chatID, args, false)
}

func (b *Bot) handleResume(ctx context.Context, chatID int64, args string) {
	b.setEnabled(ctx, chatID, args, true)
}

func (b *Bot) setEnabled(ctx context.Context, chatID int64, args string, enabled bool) {
	usage, verb := "Usage: /pause <tid>", "paused"
	if enabled {
		usage, verb = "Usage: /resume <tid>", "resumed"
	}
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, usage)
		return
	}
	t, ok := b.target(ctx, chatID, id)
	if !ok {
		return
	}

	if err := b.store.SetEnabled(ctx, id, enabled); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Thread #%d \"%s\" %s.", id, targetName(t), verb))
}

func (b *Bot) handleCheck(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /check <tid>")
		return
	}
	t, ok := b.target(ctx, chatID, id)
	if !ok {
		return
	}
	if b.checker == nil {
		b.reply(chatID, "Checks are not available.")
		return
	}

	res, err := b.checker.CheckTarget(ctx, id)
	if err == nil {
		// The check may have learned the thread title.
		if fresh, gerr := b.store.GetTarget(ctx, id); gerr == nil {
			t = fresh
		}
	}
	b.reply(chatID, FormatCheckResult(t, res, err))
}

func (b *Bot) handleEvents(ctx context.Context, chatID int64, args string) {
	id, err := ParseOptionalIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /events [tid]")
		return
	}
	events, err := b.store.ListEvents(ctx, id, eventsShown)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatEvents(events))
}
