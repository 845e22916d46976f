package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mfriis/stint/internal/timeutil"
	"github.com/mfriis/stint/internal/track"
)

// SaveRules replaces the recurring-activities collection wholesale.
func (s *Store) SaveRules(rules []track.RecurringActivity) error {
	err := s.replaceAll("recurring_activities", func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO recurring_activities
			(id, anchor, kind, item_id, category_id, title, time_of_day, duration_min, frequency, week_days, month_day, nth_week, nth_weekday)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range rules {
			if _, err := stmt.Exec(
				r.ID, timeutil.DayKey(r.Anchor), string(r.Kind), r.ItemID, r.CategoryID, r.Title,
				r.TimeOfDay, r.DurationMin, string(r.Frequency),
				joinWeekdays(r.WeekDays), r.MonthDay, r.NthWeek, int(r.NthWeekDay),
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save rules: %w", err)
	}
	return nil
}

// LoadRules reads the whole recurring-activities collection.
func (s *Store) LoadRules() ([]track.RecurringActivity, error) {
	rows, err := s.db.Query(`SELECT id, anchor, kind, item_id, category_id, title, time_of_day,
		duration_min, frequency, week_days, month_day, nth_week, nth_weekday
		FROM recurring_activities ORDER BY time_of_day`)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	defer rows.Close()

	var rules []track.RecurringActivity
	for rows.Next() {
		var r track.RecurringActivity
		var anchor, kind, freq, weekDays string
		var nthWeekday int
		if err := rows.Scan(&r.ID, &anchor, &kind, &r.ItemID, &r.CategoryID, &r.Title, &r.TimeOfDay,
			&r.DurationMin, &freq, &weekDays, &r.MonthDay, &r.NthWeek, &nthWeekday); err != nil {
			return nil, err
		}
		r.Anchor, _ = timeutil.ParseDayKey(anchor)
		r.Kind = track.Kind(kind)
		r.Frequency = track.Frequency(freq)
		r.WeekDays = splitWeekdays(weekDays)
		r.NthWeekDay = time.Weekday(nthWeekday)
		rules = append(rules, r)
	}
	return rules, rows.Err()
}
