package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"finsheets/internal/core"
	ports "finsheets/internal/sheets"

	"github.com/google/uuid"
)

var _ ports.Store = (*Store)(nil)

// Store keeps sheets in process memory. Sheets and entries are held in
// insertion order.
type Store struct {
	mu      sync.Mutex
	sheets  []core.Sheet
	entries map[string][]core.Entry // by sheet id
	now     func() time.Time
}

func New() *Store {
	return &Store{entries: make(map[string][]core.Entry), now: time.Now}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) ListSheets(_ context.Context, tenant core.TenantKey) ([]core.Sheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []core.Sheet{}
	for _, sh := range s.sheets {
		if sh.Tenant == tenant {
			out = append(out, s.withEntries(sh))
		}
	}
	return out, nil
}

func (s *Store) GetSheet(_ context.Context, id string) (core.Sheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.sheetIndex(id)
	if i < 0 {
		return core.Sheet{}, fmt.Errorf("sheet %s: %w", id, core.ErrNotFound)
	}
	return s.withEntries(s.sheets[i]), nil
}

func (s *Store) CreateSheet(_ context.Context, ns core.NewSheet) (core.Sheet, error) {
	if err := ns.Validate(); err != nil {
		return core.Sheet{}, err
	}
	if len(ns.Entries) == 0 {
		ns.Entries = core.DayEntries(ns.Month, ns.Year)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sh := core.Sheet{
		ID:        uuid.NewString(),
		Tenant:    ns.Tenant,
		Name:      ns.Name,
		Month:     ns.Month,
		Year:      ns.Year,
		CreatedAt: s.now().UTC(),
	}
	s.sheets = append(s.sheets, sh)
	for _, ne := range ns.Entries {
		ne.SheetID = sh.ID
		s.entries[sh.ID] = append(s.entries[sh.ID], newEntry(ne))
	}
	return s.withEntries(sh), nil
}

func (s *Store) DeleteSheet(_ context.Context, id string, tenant core.TenantKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.sheetIndex(id)
	if i < 0 || s.sheets[i].Tenant != tenant {
		return nil
	}
	s.sheets = slices.Delete(s.sheets, i, i+1)
	delete(s.entries, id)
	return nil
}

func (s *Store) CreateEntry(_ context.Context, ne core.NewEntry) (core.Entry, error) {
	if err := ne.Validate(); err != nil {
		return core.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.sheetIndex(ne.SheetID)
	if i < 0 {
		return core.Entry{}, fmt.Errorf("sheet %s: %w", ne.SheetID, core.ErrNotFound)
	}
	if err := core.CheckDateInMonth(ne.Date, s.sheets[i].Month, s.sheets[i].Year); err != nil {
		return core.Entry{}, err
	}
	e := newEntry(ne)
	s.entries[ne.SheetID] = append(s.entries[ne.SheetID], e)
	return e, nil
}

func (s *Store) UpdateEntry(_ context.Context, id string, f core.EntryFields) (core.Entry, error) {
	return s.modify(id, f.Apply)
}

func (s *Store) PatchEntry(_ context.Context, id string, p core.EntryPatch) (core.Entry, error) {
	return s.modify(id, p.Apply)
}

func (s *Store) DeleteEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sheetID, list := range s.entries {
		if i := entryIndex(list, id); i >= 0 {
			s.entries[sheetID] = slices.Delete(list, i, i+1)
			return nil
		}
	}
	return nil
}

func (s *Store) modify(id string, change func(core.Entry) core.Entry) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, list := range s.entries {
		if i := entryIndex(list, id); i >= 0 {
			list[i] = change(list[i])
			return list[i], nil
		}
	}
	return core.Entry{}, fmt.Errorf("entry %s: %w", id, core.ErrNotFound)
}

// withEntries returns sh with a copy of its entries sorted by date, stable
// for equal dates.
func (s *Store) withEntries(sh core.Sheet) core.Sheet {
	list := append([]core.Entry{}, s.entries[sh.ID]...)
	slices.SortStableFunc(list, func(a, b core.Entry) int {
		return strings.Compare(a.Date, b.Date)
	})
	sh.Entries = list
	return sh
}

func (s *Store) sheetIndex(id string) int {
	return slices.IndexFunc(s.sheets, func(sh core.Sheet) bool { return sh.ID == id })
}

func entryIndex(list []core.Entry, id string) int {
	return slices.IndexFunc(list, func(e core.Entry) bool { return e.ID == id })
}

func newEntry(ne core.NewEntry) core.Entry {
	return core.Entry{
		ID:       uuid.NewString(),
		SheetID:  ne.SheetID,
		Date:     ne.Date,
		Overview: ne.Overview,
		Amount:   ne.Amount,
		Work:     ne.Work,
	}
}
