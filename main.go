package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mfriis/stint/internal/export"
	"github.com/mfriis/stint/internal/store"
	"github.com/mfriis/stint/internal/track"
	"github.com/mfriis/stint/internal/tui"
)

type CLI struct {
	DBPath string `help:"Path to the SQLite database" type:"path" env:"STINT_DB_PATH"`

	Run    RunCmd    `cmd:"" help:"Start the stint TUI (default)" default:"1"`
	Export ExportCmd `cmd:"" help:"Write a JSON snapshot of all data"`
	Import ImportCmd `cmd:"" help:"Load a JSON snapshot into the database"`
}

// openStore resolves the database path, defaulting to the per-user location.
func (c *CLI) openStore() (*store.Store, error) {
	path := c.DBPath
	if path == "" {
		var err error
		path, err = store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	return store.New(path)
}

// loadCollections reads everything the store holds, ready for hydration or
// snapshotting.
func loadCollections(s *store.Store) (export.Collections, error) {
	var c export.Collections
	var err error
	if c.Sessions, err = s.LoadSessions(); err != nil {
		return c, fmt.Errorf("load sessions: %w", err)
	}
	if c.Plans, err = s.LoadPlans(); err != nil {
		return c, fmt.Errorf("load plans: %w", err)
	}
	if c.Rules, err = s.LoadRules(); err != nil {
		return c, fmt.Errorf("load rules: %w", err)
	}
	if c.Items, err = s.LoadItems(); err != nil {
		return c, fmt.Errorf("load items: %w", err)
	}
	return c, nil
}

func saveCollections(s *store.Store, c export.Collections) error {
	if err := s.SaveSessions(c.Sessions); err != nil {
		return fmt.Errorf("save sessions: %w", err)
	}
	if err := s.SavePlans(c.Plans); err != nil {
		return fmt.Errorf("save plans: %w", err)
	}
	if err := s.SaveRules(c.Rules); err != nil {
		return fmt.Errorf("save rules: %w", err)
	}
	if err := s.SaveItems(c.Items); err != nil {
		return fmt.Errorf("save items: %w", err)
	}
	return nil
}

type RunCmd struct{}

func (r *RunCmd) Run(cli *CLI) error {
	s, err := cli.openStore()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	c, err := loadCollections(s)
	if err != nil {
		return err
	}
	timer, err := s.LoadActiveTimer()
	if err != nil {
		return fmt.Errorf("load active timer: %w", err)
	}

	ws := track.NewWorkspace()
	ws.Hydrate(c.Sessions, c.Plans, c.Rules, c.Items, timer)

	if os.Getenv("STINT_DEBUG") != "" {
		f, err := tea.LogToFile("stint-debug.log", "stint")
		if err != nil {
			return err
		}
		defer f.Close()
	}

	p := tea.NewProgram(tui.NewApp(ws, s),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		return err
	}
	// One last flush so nothing dirtied after the final tick is lost.
	return ws.Flush(s)
}

type ExportCmd struct {
	Out string `help:"Output path for the JSON snapshot" type:"path" default:"stint-export.json"`
	CSV string `help:"Also write closed sessions as CSV to this path" type:"path"`
}

func (e *ExportCmd) Run(cli *CLI) error {
	s, err := cli.openStore()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	c, err := loadCollections(s)
	if err != nil {
		return err
	}
	if err := export.WriteSnapshot(c, e.Out); err != nil {
		return err
	}
	fmt.Printf("Exported %d sessions, %d plans, %d rules, %d items to %s\n",
		len(c.Sessions), len(c.Plans), len(c.Rules), len(c.Items), e.Out)

	if e.CSV != "" {
		if err := export.ToCSV(c.Sessions, e.CSV); err != nil {
			return err
		}
		fmt.Printf("Wrote session CSV to %s\n", e.CSV)
	}
	return nil
}

type ImportCmd struct {
	Path string `arg:"" help:"JSON snapshot to import" type:"path"`
	Mode string `help:"merge keeps existing records, overwrite replaces them" enum:"merge,overwrite" default:"merge"`
}

func (i *ImportCmd) Run(cli *CLI) error {
	imported, err := export.ReadSnapshot(i.Path)
	if err != nil {
		return err
	}

	s, err := cli.openStore()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	next := imported
	if i.Mode == "merge" {
		current, err := loadCollections(s)
		if err != nil {
			return err
		}
		next = export.Merge(current, imported)
	}
	if err := saveCollections(s, next); err != nil {
		return err
	}
	fmt.Printf("Imported %d sessions, %d plans, %d rules, %d items (%s)\n",
		len(next.Sessions), len(next.Plans), len(next.Rules), len(next.Items), i.Mode)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("stint"),
		kong.Description("Billable work-interval tracking with planning and timers."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
