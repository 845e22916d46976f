package store

import (
	"database/sql"
	"fmt"

	"github.com/mfriis/stint/internal/track"
)

// SaveSessions replaces the sessions collection wholesale.
func (s *Store) SaveSessions(sessions []track.Session) error {
	err := s.replaceAll("sessions", func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO sessions
			(id, item_id, sub_item_id, category_id, project_id, milestone_id, title, start_time, end_time, notes, manual)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, sess := range sessions {
			var end sql.NullString
			if sess.End != nil {
				end = sql.NullString{String: fmtTime(*sess.End), Valid: true}
			}
			if _, err := stmt.Exec(
				sess.ID, sess.ItemID, sess.SubItemID, sess.CategoryID, sess.ProjectID, sess.MilestoneID,
				sess.Title, fmtTime(sess.Start), end, sess.Notes, sess.Manual,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save sessions: %w", err)
	}
	return nil
}

// LoadSessions reads the whole sessions collection ordered by start time.
func (s *Store) LoadSessions() ([]track.Session, error) {
	rows, err := s.db.Query(`SELECT id, item_id, sub_item_id, category_id, project_id, milestone_id,
		title, start_time, end_time, notes, manual
		FROM sessions ORDER BY start_time`)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	defer rows.Close()

	var sessions []track.Session
	for rows.Next() {
		var sess track.Session
		var start string
		var end sql.NullString
		if err := rows.Scan(&sess.ID, &sess.ItemID, &sess.SubItemID, &sess.CategoryID, &sess.ProjectID,
			&sess.MilestoneID, &sess.Title, &start, &end, &sess.Notes, &sess.Manual); err != nil {
			return nil, err
		}
		sess.Start = parseTime(start)
		if end.Valid {
			t := parseTime(end.String)
			sess.End = &t
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}
