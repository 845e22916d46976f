package track

import (
	"time"

	"github.com/google/uuid"

	"github.com/mfriis/stint/internal/timeutil"
)

// StopOutcome discriminates what RequestStop did, so callers never branch on
// entity shape: either the timer finalized on its own (sub-item linked) or
// the caller must collect notes and call Finalize.
type StopOutcome int

const (
	StopNoTimer StopOutcome = iota
	StopFinalized
	StopNeedsNotes
)

// Machine owns the single active-timer slot. All transitions are synchronous;
// finalize clears the slot before returning, so a chained start in the same
// control flow always observes an idle machine.
type Machine struct {
	active *ActiveTimer
	items  ItemIndex
	now    func() time.Time
	newID  func() string
}

func NewMachine(items ItemIndex) *Machine {
	return &Machine{
		items: items,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Running reports whether a timer is active.
func (m *Machine) Running() bool { return m.active != nil }

// Active returns a copy of the active timer, if any.
func (m *Machine) Active() (ActiveTimer, bool) {
	if m.active == nil {
		return ActiveTimer{}, false
	}
	return *m.active, true
}

// Elapsed returns the raw (unrounded) running time, zero when idle.
func (m *Machine) Elapsed() time.Duration {
	if m.active == nil {
		return 0
	}
	return m.now().Sub(m.active.Start)
}

// Restore installs a previously persisted timer, used at hydration so a
// restart resumes a running timer. No-op while one is already active.
func (m *Machine) Restore(t ActiveTimer) {
	if m.active != nil {
		return
	}
	cp := t
	m.active = &cp
}

// Start begins a timer for the given work-item reference. If the same
// reference is already running this is a no-op. If a different timer is
// running it is finalized first (auto notes, see RequestStop) and the
// finalized session is returned alongside. startAt overrides the start time
// when backfilling a timer to begin exactly where a prior session ended; nil
// means now.
func (m *Machine) Start(itemID, subItemID string, startAt *time.Time) (chained *Session, started bool) {
	if m.active != nil {
		if m.active.ItemID == itemID && m.active.SubItemID == subItemID {
			return nil, false
		}
		chained = m.Finalize(m.autoNotes(), m.now())
	}

	at := m.now()
	if startAt != nil {
		at = *startAt
	}
	m.active = &ActiveTimer{ItemID: itemID, SubItemID: subItemID, Start: at}
	return chained, true
}

// RequestStop is the two-phase stop entry point. Sub-item-linked timers
// finalize immediately using the sub-item's title as notes; anything else
// needs externally collected notes before Finalize.
func (m *Machine) RequestStop() (StopOutcome, *Session) {
	if m.active == nil {
		return StopNoTimer, nil
	}
	if m.active.SubItemID != "" {
		return StopFinalized, m.Finalize(m.autoNotes(), m.now())
	}
	return StopNeedsNotes, nil
}

// Finalize converts the active timer into a session: the raw elapsed
// interval is rounded up to the billing block exactly once, here, and the
// session end is start plus the rounded length. Idle machine is a no-op.
func (m *Machine) Finalize(notes string, endTime time.Time) *Session {
	if m.active == nil {
		return nil
	}
	t := *m.active
	m.active = nil

	rounded := timeutil.RoundUpToBillingBlock(endTime.Sub(t.Start))
	end := t.Start.Add(rounded)

	return &Session{
		ID:        m.newID(),
		ItemID:    t.ItemID,
		SubItemID: t.SubItemID,
		Start:     t.Start,
		End:       &end,
		Notes:     notes,
	}
}

// Cancel discards the active timer with no session created. Idle is a no-op.
func (m *Machine) Cancel() bool {
	if m.active == nil {
		return false
	}
	m.active = nil
	return true
}

func (m *Machine) autoNotes() string {
	if m.active == nil || m.active.SubItemID == "" || m.items == nil {
		return ""
	}
	title, ok := m.items.SubItemTitle(m.active.SubItemID)
	if !ok {
		return ""
	}
	return title
}
