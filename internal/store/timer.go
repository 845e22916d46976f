package store

import (
	"database/sql"
	"fmt"

	"github.com/mfriis/stint/internal/track"
)

// SaveActiveTimer persists the single active-timer slot. A nil timer clears
// it. The table is constrained to one row so there is never more than one
// persisted timer.
func (s *Store) SaveActiveTimer(t *track.ActiveTimer) error {
	if t == nil {
		if _, err := s.db.Exec(`DELETE FROM active_timer`); err != nil {
			return fmt.Errorf("clear active timer: %w", err)
		}
		return nil
	}
	_, err := s.db.Exec(`INSERT INTO active_timer (id, item_id, sub_item_id, start_time) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET item_id=excluded.item_id, sub_item_id=excluded.sub_item_id, start_time=excluded.start_time`,
		t.ItemID, t.SubItemID, fmtTime(t.Start))
	if err != nil {
		return fmt.Errorf("save active timer: %w", err)
	}
	return nil
}

// LoadActiveTimer returns the persisted timer, or nil when none is running.
func (s *Store) LoadActiveTimer() (*track.ActiveTimer, error) {
	var t track.ActiveTimer
	var start string
	err := s.db.QueryRow(`SELECT item_id, sub_item_id, start_time FROM active_timer WHERE id = 1`).
		Scan(&t.ItemID, &t.SubItemID, &start)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load active timer: %w", err)
	}
	t.Start = parseTime(start)
	return &t, nil
}
