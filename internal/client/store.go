package client

import (
	"slices"
	"sync"

	"finsheets/internal/core"
)

// Store holds the sheets of the logged-in tenant and the selected sheet.
// Every read hands out a copy.
type Store struct {
	mu      sync.RWMutex
	sheets  []core.Sheet
	current string
}

func NewStore() *Store {
	return &Store{}
}

// Load replaces all sheets and selects the first one.
func (s *Store) Load(sheets []core.Sheet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sheets = cloneSheets(sheets)
	s.current = ""
	if len(s.sheets) > 0 {
		s.current = s.sheets[0].ID
	}
}

// Reload replaces all sheets, keeping the selection when it still exists.
func (s *Store) Reload(sheets []core.Sheet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sheets = cloneSheets(sheets)
	if s.indexLocked(s.current) >= 0 {
		return
	}
	s.current = ""
	if len(s.sheets) > 0 {
		s.current = s.sheets[0].ID
	}
}

// Clear drops every sheet, used on logout.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets = nil
	s.current = ""
}

// SelectCurrent fails with core.ErrNotFound when no sheet has id.
func (s *Store) SelectCurrent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(id) < 0 {
		return core.ErrNotFound
	}
	s.current = id
	return nil
}

func (s *Store) Sheets() []core.Sheet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSheets(s.sheets)
}

func (s *Store) Current() (core.Sheet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(s.current)
	if i < 0 {
		return core.Sheet{}, false
	}
	return s.sheets[i].Clone(), true
}

// Sheet returns the sheet with id, selected or not.
func (s *Store) Sheet(id string) (core.Sheet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return core.Sheet{}, false
	}
	return s.sheets[i].Clone(), true
}

// FindEntry looks an entry up in every loaded sheet.
func (s *Store) FindEntry(id string) (core.Sheet, core.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sh := range s.sheets {
		for _, e := range sh.Entries {
			if e.ID == id {
				return sh.Clone(), e, true
			}
		}
	}
	return core.Sheet{}, core.Entry{}, false
}

// ApplyEntryEdit patches an entry of the current sheet and returns its
// previous value. With no current sheet or no matching entry nothing
// changes and ok is false; callers decide whether that is an error.
func (s *Store) ApplyEntryEdit(entryID string, p core.EntryPatch) (prev core.Entry, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.currentEntryLocked(entryID)
	if e == nil {
		return core.Entry{}, false
	}
	prev = *e
	*e = p.Apply(*e)
	return prev, true
}

// RevertEntryEdit restores the fields applied touched to their values in
// prev, unless a later edit already replaced them. It reports whether the
// entry changed.
func (s *Store) RevertEntryEdit(entryID string, applied core.EntryPatch, prev core.Entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sheets {
		for j := range s.sheets[i].Entries {
			e := &s.sheets[i].Entries[j]
			if e.ID != entryID {
				continue
			}
			if !applied.Holds(*e) {
				return false
			}
			*e = applied.Revert(prev).Apply(*e)
			return true
		}
	}
	return false
}

// ComputeTotal sums the current sheet; zero without one.
func (s *Store) ComputeTotal() core.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexLocked(s.current); i >= 0 {
		return s.sheets[i].Total()
	}
	return core.Money{}
}

func (s *Store) GroupByDate() []core.DateGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexLocked(s.current); i >= 0 {
		return s.sheets[i].Clone().Groups()
	}
	return nil
}

func (s *Store) TransactionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexLocked(s.current); i >= 0 {
		return s.sheets[i].TransactionCount()
	}
	return 0
}

func (s *Store) currentEntryLocked(entryID string) *core.Entry {
	i := s.indexLocked(s.current)
	if i < 0 {
		return nil
	}
	entries := s.sheets[i].Entries
	if j := slices.IndexFunc(entries, func(e core.Entry) bool { return e.ID == entryID }); j >= 0 {
		return &entries[j]
	}
	return nil
}

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.sheets, func(sh core.Sheet) bool { return sh.ID == id })
}

func cloneSheets(in []core.Sheet) []core.Sheet {
	out := make([]core.Sheet, len(in))
	for i, sh := range in {
		out[i] = sh.Clone()
	}
	return out
}
