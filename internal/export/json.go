package export

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/mfriis/stint/internal/track"
)

// Snapshot is a portable dump of every persisted collection. The wire shapes
// below are decoupled from the in-memory models so the file format stays
// stable even if the models grow fields.
type Snapshot struct {
	ExportedAt string        `json:"exported_at"`
	Sessions   []jsonSession `json:"sessions"`
	Plans      []jsonPlan    `json:"plannedActivities"`
	Rules      []jsonRule    `json:"recurringActivities"`
	Items      []jsonItem    `json:"workItems"`
}

type jsonSession struct {
	ID          string `json:"id"`
	ItemID      string `json:"item_id,omitempty"`
	SubItemID   string `json:"sub_item_id,omitempty"`
	CategoryID  string `json:"category_id,omitempty"`
	ProjectID   string `json:"project_id,omitempty"`
	MilestoneID string `json:"milestone_id,omitempty"`
	Title       string `json:"title,omitempty"`
	Start       string `json:"start_time"`
	End         string `json:"end_time,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Manual      bool   `json:"manual,omitempty"`
}

type jsonPlan struct {
	ID          string `json:"id"`
	Day         string `json:"day"`
	Start       string `json:"start_time"`
	DurationMin int    `json:"duration_min"`
	Kind        string `json:"kind"`
	ItemID      string `json:"item_id,omitempty"`
	CategoryID  string `json:"category_id,omitempty"`
	Title       string `json:"title,omitempty"`
	Logged      bool   `json:"logged,omitempty"`
	RuleID      string `json:"rule_id,omitempty"`
}

type jsonRule struct {
	ID          string `json:"id"`
	Anchor      string `json:"anchor"`
	Kind        string `json:"kind"`
	ItemID      string `json:"item_id,omitempty"`
	CategoryID  string `json:"category_id,omitempty"`
	Title       string `json:"title,omitempty"`
	TimeOfDay   string `json:"time_of_day"`
	DurationMin int    `json:"duration_min"`
	Frequency   string `json:"frequency"`
	WeekDays    []int  `json:"week_days,omitempty"`
	MonthDay    int    `json:"month_day,omitempty"`
	NthWeek     int    `json:"nth_week,omitempty"`
	NthWeekDay  int    `json:"nth_weekday,omitempty"`
}

type jsonItem struct {
	ID         string `json:"id"`
	ParentID   string `json:"parent_id,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
	Title      string `json:"title"`
	Complete   bool   `json:"complete,omitempty"`
}

// Collections is the in-memory payload a snapshot is built from or applied to.
type Collections struct {
	Sessions []track.Session
	Plans    []track.PlannedActivity
	Rules    []track.RecurringActivity
	Items    []track.WorkItem
}

// WriteSnapshot serializes c to path as indented JSON.
func WriteSnapshot(c Collections, path string) error {
	snap := Snapshot{ExportedAt: time.Now().UTC().Format(time.RFC3339)}

	for _, s := range c.Sessions {
		js := jsonSession{
			ID: s.ID, ItemID: s.ItemID, SubItemID: s.SubItemID,
			CategoryID: s.CategoryID, ProjectID: s.ProjectID, MilestoneID: s.MilestoneID,
			Title: s.Title, Start: s.Start.Format(time.RFC3339),
			Notes: s.Notes, Manual: s.Manual,
		}
		if s.End != nil {
			js.End = s.End.Format(time.RFC3339)
		}
		snap.Sessions = append(snap.Sessions, js)
	}
	for _, p := range c.Plans {
		snap.Plans = append(snap.Plans, jsonPlan{
			ID: p.ID, Day: p.Day, Start: p.Start.Format(time.RFC3339),
			DurationMin: p.DurationMin, Kind: string(p.Kind),
			ItemID: p.ItemID, CategoryID: p.CategoryID, Title: p.Title,
			Logged: p.Logged, RuleID: p.RuleID,
		})
	}
	for _, r := range c.Rules {
		jr := jsonRule{
			ID: r.ID, Anchor: r.Anchor.Format("2006-01-02"), Kind: string(r.Kind),
			ItemID: r.ItemID, CategoryID: r.CategoryID, Title: r.Title,
			TimeOfDay: r.TimeOfDay, DurationMin: r.DurationMin,
			Frequency: string(r.Frequency), MonthDay: r.MonthDay,
			NthWeek: r.NthWeek, NthWeekDay: int(r.NthWeekDay),
		}
		for _, d := range r.WeekDays {
			jr.WeekDays = append(jr.WeekDays, int(d))
		}
		snap.Rules = append(snap.Rules, jr)
	}
	for _, it := range c.Items {
		snap.Items = append(snap.Items, jsonItem{
			ID: it.ID, ParentID: it.ParentID, CategoryID: it.CategoryID,
			Title: it.Title, Complete: it.Complete,
		})
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot file: %w", err)
	}
	return nil
}

// ReadSnapshot parses the snapshot at path back into model collections.
func ReadSnapshot(path string) (Collections, error) {
	var c Collections

	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read snapshot file: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return c, fmt.Errorf("parse snapshot: %w", err)
	}

	for _, js := range snap.Sessions {
		start, err := time.Parse(time.RFC3339, js.Start)
		if err != nil {
			return c, fmt.Errorf("session %s: bad start time: %w", js.ID, err)
		}
		s := track.Session{
			ID: js.ID, ItemID: js.ItemID, SubItemID: js.SubItemID,
			CategoryID: js.CategoryID, ProjectID: js.ProjectID, MilestoneID: js.MilestoneID,
			Title: js.Title, Start: start.Local(), Notes: js.Notes, Manual: js.Manual,
		}
		if js.End != "" {
			end, err := time.Parse(time.RFC3339, js.End)
			if err != nil {
				return c, fmt.Errorf("session %s: bad end time: %w", js.ID, err)
			}
			local := end.Local()
			s.End = &local
		}
		c.Sessions = append(c.Sessions, s)
	}
	for _, jp := range snap.Plans {
		start, err := time.Parse(time.RFC3339, jp.Start)
		if err != nil {
			return c, fmt.Errorf("plan %s: bad start time: %w", jp.ID, err)
		}
		c.Plans = append(c.Plans, track.PlannedActivity{
			ID: jp.ID, Day: jp.Day, Start: start.Local(),
			DurationMin: jp.DurationMin, Kind: track.Kind(jp.Kind),
			ItemID: jp.ItemID, CategoryID: jp.CategoryID, Title: jp.Title,
			Logged: jp.Logged, RuleID: jp.RuleID,
		})
	}
	for _, jr := range snap.Rules {
		anchor, err := time.ParseInLocation("2006-01-02", jr.Anchor, time.Local)
		if err != nil {
			return c, fmt.Errorf("rule %s: bad anchor: %w", jr.ID, err)
		}
		r := track.RecurringActivity{
			ID: jr.ID, Anchor: anchor, Kind: track.Kind(jr.Kind),
			ItemID: jr.ItemID, CategoryID: jr.CategoryID, Title: jr.Title,
			TimeOfDay: jr.TimeOfDay, DurationMin: jr.DurationMin,
			Frequency: track.Frequency(jr.Frequency), MonthDay: jr.MonthDay,
			NthWeek: jr.NthWeek, NthWeekDay: time.Weekday(jr.NthWeekDay),
		}
		for _, d := range jr.WeekDays {
			r.WeekDays = append(r.WeekDays, time.Weekday(d))
		}
		c.Rules = append(c.Rules, r)
	}
	for _, ji := range snap.Items {
		c.Items = append(c.Items, track.WorkItem{
			ID: ji.ID, ParentID: ji.ParentID, CategoryID: ji.CategoryID,
			Title: ji.Title, Complete: ji.Complete,
		})
	}

	return c, nil
}

// Merge unions imported into current by id: an imported record replaces the
// current one with the same id, and records only present on one side survive.
// Output order is deterministic (sorted by id) so merges are reproducible.
func Merge(current, imported Collections) Collections {
	return Collections{
		Sessions: mergeByID(current.Sessions, imported.Sessions, func(s track.Session) string { return s.ID }),
		Plans:    mergeByID(current.Plans, imported.Plans, func(p track.PlannedActivity) string { return p.ID }),
		Rules:    mergeByID(current.Rules, imported.Rules, func(r track.RecurringActivity) string { return r.ID }),
		Items:    mergeByID(current.Items, imported.Items, func(i track.WorkItem) string { return i.ID }),
	}
}

func mergeByID[T any](current, imported []T, id func(T) string) []T {
	merged := make(map[string]T, len(current)+len(imported))
	for _, v := range current {
		merged[id(v)] = v
	}
	for _, v := range imported {
		merged[id(v)] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, merged[k])
	}
	return out
}
