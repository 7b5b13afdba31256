// Package schedule resolves the check interval that applies to a target at a
// given moment.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"nga_reminder/internal/model"
)

const clockLayout = "15:04"

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sun":       time.Sunday,
	"mon":       time.Monday,
	"tue":       time.Tuesday,
	"wed":       time.Wednesday,
	"thu":       time.Thursday,
	"fri":       time.Friday,
	"sat":       time.Saturday,
}

var aliases = map[string][]time.Weekday{
	"weekdays": {time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	"weekends": {time.Saturday, time.Sunday},
}

// ExpandDays turns day names and the "weekdays"/"weekends" aliases into a
// weekday set. An empty input returns an empty set, meaning every day.
func ExpandDays(days []string) (map[time.Weekday]bool, error) {
	set := make(map[time.Weekday]bool)
	for _, d := range days {
		key := strings.ToLower(strings.TrimSpace(d))
		if expanded, ok := aliases[key]; ok {
			for _, wd := range expanded {
				set[wd] = true
			}
			continue
		}
		wd, ok := weekdayNames[key]
		if !ok {
			return nil, fmt.Errorf("unknown day %q", d)
		}
		set[wd] = true
	}
	return set, nil
}

// ParseClock parses an HH:MM time of day into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Validate checks that a rule can ever match.
func Validate(rule model.ScheduleRule) error {
	if _, err := ExpandDays(rule.Days); err != nil {
		return err
	}
	if _, err := ParseClock(rule.StartTime); err != nil {
		return fmt.Errorf("start_time: %w", err)
	}
	if _, err := ParseClock(rule.EndTime); err != nil {
		return fmt.Errorf("end_time: %w", err)
	}
	if rule.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	return nil
}

// InWindow reports whether minute lies in [start, end). When start is after
// end the window spans midnight.
func InWindow(minute, start, end int) bool {
	if start <= end {
		return minute >= start && minute < end
	}
	return minute >= start || minute < end
}

// Matches reports whether rule applies at now. Invalid rules never match.
func Matches(rule model.ScheduleRule, now time.Time) bool {
	days, err := ExpandDays(rule.Days)
	if err != nil {
		return false
	}
	if len(days) > 0 && !days[now.Weekday()] {
		return false
	}
	start, err := ParseClock(rule.StartTime)
	if err != nil {
		return false
	}
	end, err := ParseClock(rule.EndTime)
	if err != nil {
		return false
	}
	return InWindow(now.Hour()*60+now.Minute(), start, end)
}

// Resolve returns the interval of the first rule matching now, or base when
// none matches. A non-positive base yields model.DefaultInterval.
func Resolve(base time.Duration, rules []model.ScheduleRule, now time.Time) time.Duration {
	if base <= 0 {
		base = model.DefaultInterval
	}
	for _, rule := range rules {
		if rule.Interval > 0 && Matches(rule, now) {
			return rule.Interval
		}
	}
	return base
}
