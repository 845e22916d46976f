package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/mfriis/stint/internal/timeutil"
	"github.com/mfriis/stint/internal/track"
)

// ToCSV writes finished sessions to path, one row per session with both the
// raw duration and the billed (block-rounded) duration. Open sessions are
// skipped since they have no end yet.
func ToCSV(sessions []track.Session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Title", "Start", "End", "Duration", "Billed", "Notes", "Manual"}); err != nil {
		return err
	}

	for _, s := range sessions {
		if s.End == nil {
			continue
		}
		dur := s.End.Sub(s.Start)
		manual := ""
		if s.Manual {
			manual = "yes"
		}

		row := []string{
			s.ID,
			s.Title,
			s.Start.Local().Format(time.RFC3339),
			s.End.Local().Format(time.RFC3339),
			timeutil.FormatDuration(dur),
			timeutil.FormatDuration(timeutil.RoundUpToBillingBlock(dur)),
			s.Notes,
			manual,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}
