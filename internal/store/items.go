package store

import (
	"database/sql"
	"fmt"

	"github.com/mfriis/stint/internal/track"
)

// Work items are an external collaborator's data: no CRUD surface here, the
// rows arrive via snapshot import and the core only reads them.

// SaveItems replaces the work-items collection wholesale.
func (s *Store) SaveItems(items []track.WorkItem) error {
	err := s.replaceAll("work_items", func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO work_items (id, parent_id, category_id, title, complete)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, it := range items {
			if _, err := stmt.Exec(it.ID, it.ParentID, it.CategoryID, it.Title, it.Complete); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save work items: %w", err)
	}
	return nil
}

// LoadItems reads the whole work-items collection.
func (s *Store) LoadItems() ([]track.WorkItem, error) {
	rows, err := s.db.Query(`SELECT id, parent_id, category_id, title, complete FROM work_items ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("load work items: %w", err)
	}
	defer rows.Close()

	var items []track.WorkItem
	for rows.Next() {
		var it track.WorkItem
		if err := rows.Scan(&it.ID, &it.ParentID, &it.CategoryID, &it.Title, &it.Complete); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
