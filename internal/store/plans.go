package store

import (
	"database/sql"
	"fmt"

	"github.com/mfriis/stint/internal/track"
)

// SavePlans replaces the planned-activities collection wholesale.
func (s *Store) SavePlans(plans []track.PlannedActivity) error {
	err := s.replaceAll("planned_activities", func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO planned_activities
			(id, day, start_time, duration_min, kind, item_id, category_id, title, logged, rule_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, p := range plans {
			if _, err := stmt.Exec(
				p.ID, p.Day, fmtTime(p.Start), p.DurationMin, string(p.Kind),
				p.ItemID, p.CategoryID, p.Title, p.Logged, p.RuleID,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save plans: %w", err)
	}
	return nil
}

// LoadPlans reads the whole planned-activities collection.
func (s *Store) LoadPlans() ([]track.PlannedActivity, error) {
	rows, err := s.db.Query(`SELECT id, day, start_time, duration_min, kind, item_id, category_id, title, logged, rule_id
		FROM planned_activities ORDER BY day, start_time`)
	if err != nil {
		return nil, fmt.Errorf("load plans: %w", err)
	}
	defer rows.Close()

	var plans []track.PlannedActivity
	for rows.Next() {
		var p track.PlannedActivity
		var start, kind string
		if err := rows.Scan(&p.ID, &p.Day, &start, &p.DurationMin, &kind,
			&p.ItemID, &p.CategoryID, &p.Title, &p.Logged, &p.RuleID); err != nil {
			return nil, err
		}
		p.Start = parseTime(start)
		p.Kind = track.Kind(kind)
		plans = append(plans, p)
	}
	return plans, rows.Err()
}
