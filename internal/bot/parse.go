package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"nga_reminder/internal/model"
)

// AddArgs holds the parsed arguments of /add.
type AddArgs struct {
	ThreadID int64
	Notify   model.AuthorFilter
}

// ParseAddArgs parses "/add <tid> [all|none|uid,uid...]". Without a filter
// every author triggers an alert.
func ParseAddArgs(args string) (AddArgs, error) {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		return AddArgs{}, fmt.Errorf("usage: /add <tid> [all|none|uid,uid...]")
	}
	id, err := parseThreadID(parts[0])
	if err != nil {
		return AddArgs{}, err
	}
	notify, err := model.ParseAuthorFilter(strings.Join(parts[1:], ""), model.AllAuthors())
	if err != nil {
		return AddArgs{}, err
	}
	return AddArgs{ThreadID: id, Notify: notify}, nil
}

// ParseIDArg extracts a thread ID from a command argument string.
func ParseIDArg(args string) (int64, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("thread ID is required")
	}
	return parseThreadID(strings.Fields(s)[0])
}

// ParseOptionalIDArg is ParseIDArg for commands where the ID may be omitted,
// in which case 0 is returned.
func ParseOptionalIDArg(args string) (int64, error) {
	if strings.TrimSpace(args) == "" {
		return 0, nil
	}
	return ParseIDArg(args)
}

// ParseIntervalArgs extracts a thread ID and interval in minutes.
func ParseIntervalArgs(args string) (int64, time.Duration, error) {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("usage: /interval <tid> <minutes>")
	}
	id, err := parseThreadID(parts[0])
	if err != nil {
		return 0, 0, err
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil || mins < 1 || mins > 1440 {
		return 0, 0, fmt.Errorf("interval must be between 1 and 1440 minutes")
	}
	return id, time.Duration(mins) * time.Minute, nil
}

func parseThreadID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid thread ID %q", s)
	}
	return id, nil
}
