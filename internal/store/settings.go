package store

import (
	"fmt"
	"strconv"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// DayWindowHours returns the visible hour range of the day timeline,
// falling back to 06-22 on missing or malformed values.
func (s *Store) DayWindowHours() (startHour, endHour int) {
	startHour, endHour = 6, 22
	if v, err := s.GetSetting("day_start_hour"); err == nil {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n < 24 {
			startHour = n
		}
	}
	if v, err := s.GetSetting("day_end_hour"); err == nil {
		if n, err := strconv.Atoi(v); err == nil && n > startHour && n <= 24 {
			endHour = n
		}
	}
	return startHour, endHour
}

// DailyGoalHours returns the daily billable-hours goal, default 7.5.
func (s *Store) DailyGoalHours() float64 {
	v, err := s.GetSetting("daily_goal_hours")
	if err != nil {
		return 7.5
	}
	goal, err := strconv.ParseFloat(v, 64)
	if err != nil || goal <= 0 {
		return 7.5
	}
	return goal
}
