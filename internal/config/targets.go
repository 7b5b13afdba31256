package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	yaml "go.yaml.in/yaml/v3"

	"nga_reminder/internal/model"
	"nga_reminder/internal/schedule"
)

type targetsFile struct {
	Threads []threadEntry `yaml:"threads"`
}

type threadEntry struct {
	TID                int64           `yaml:"tid"`
	Enabled            *bool           `yaml:"enabled"`
	CheckInterval      int             `yaml:"check_interval"`
	StoreAuthors       authorsField    `yaml:"store_authors"`
	NotifyAuthors      authorsField    `yaml:"notify_authors"`
	LastSeenPostNumber int             `yaml:"last_seen_post_number"`
	CheckSchedule      []scheduleEntry `yaml:"check_schedule"`
}

type scheduleEntry struct {
	Days        []string `yaml:"days"`
	StartTime   string   `yaml:"start_time"`
	EndTime     string   `yaml:"end_time"`
	Interval    int      `yaml:"interval"`
	Description string   `yaml:"description"`
}

// authorsField accepts either the textual filter form ("all", "none",
// "1,2,3") or a YAML list of uids.
type authorsField struct {
	set    bool
	filter model.AuthorFilter
}

func (a *authorsField) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		f, err := model.ParseAuthorFilter(value.Value, model.NoAuthors())
		if err != nil {
			return err
		}
		a.filter = f
	case yaml.SequenceNode:
		var ids []int64
		if err := value.Decode(&ids); err != nil {
			return fmt.Errorf("author list: %w", err)
		}
		if len(ids) == 0 {
			a.filter = model.NoAuthors()
		} else {
			a.filter = model.Authors(ids...)
		}
	default:
		return fmt.Errorf("line %d: authors must be a string or a list of uids", value.Line)
	}
	a.set = true
	return nil
}

func (a authorsField) or(def model.AuthorFilter) model.AuthorFilter {
	if !a.set {
		return def
	}
	return a.filter
}

// LoadTargets reads and validates the targets file.
func LoadTargets(path string) ([]model.Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}
	targets, err := ParseTargets(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return targets, nil
}

// ParseTargets decodes targets file content. Unknown keys, duplicate tids
// and schedule rules that could never match are rejected. Posts are stored
// for every author and nobody is alerted on unless the entry says otherwise.
func ParseTargets(data []byte) ([]model.Target, error) {
	var file targetsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	seen := make(map[int64]bool, len(file.Threads))
	targets := make([]model.Target, 0, len(file.Threads))
	for i, e := range file.Threads {
		if e.TID <= 0 {
			return nil, fmt.Errorf("threads[%d]: tid must be positive", i)
		}
		if seen[e.TID] {
			return nil, fmt.Errorf("threads[%d]: duplicate tid %d", i, e.TID)
		}
		seen[e.TID] = true
		if e.CheckInterval < 0 {
			return nil, fmt.Errorf("thread %d: check_interval must not be negative", e.TID)
		}
		if e.LastSeenPostNumber < 0 {
			return nil, fmt.Errorf("thread %d: last_seen_post_number must not be negative", e.TID)
		}

		t := model.Target{
			ID:                 e.TID,
			Enabled:            e.Enabled == nil || *e.Enabled,
			BaseInterval:       time.Duration(e.CheckInterval) * time.Second,
			StoreFilter:        e.StoreAuthors.or(model.AllAuthors()),
			NotifyFilter:       e.NotifyAuthors.or(model.NoAuthors()),
			LastSeenCount:      e.LastSeenPostNumber,
			LastSeenPostNumber: e.LastSeenPostNumber,
		}
		for j, s := range e.CheckSchedule {
			rule := model.ScheduleRule{
				Days:        s.Days,
				StartTime:   s.StartTime,
				EndTime:     s.EndTime,
				Interval:    time.Duration(s.Interval) * time.Second,
				Description: s.Description,
			}
			if err := schedule.Validate(rule); err != nil {
				return nil, fmt.Errorf("thread %d: check_schedule[%d]: %w", e.TID, j, err)
			}
			t.Schedule = append(t.Schedule, rule)
		}
		targets = append(targets, t)
	}
	return targets, nil
}
