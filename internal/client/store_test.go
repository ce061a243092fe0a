package client

import (
	"testing"

	"finsheets/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sheetWith(id string, entries ...core.Entry) core.Sheet {
	for i := range entries {
		entries[i].SheetID = id
	}
	return core.Sheet{ID: id, Tenant: "A", Name: "Tháng 2", Month: 2, Year: 2024, Entries: entries}
}

func entry(id, date string, amount int64, work string) core.Entry {
	return core.Entry{ID: id, Date: date, Amount: core.NewMoney(amount), Work: work}
}

func TestStoreLoadSelectsFirstSheet(t *testing.T) {
	s := NewStore()
	_, ok := s.Current()
	assert.False(t, ok)

	s.Load([]core.Sheet{sheetWith("s1"), sheetWith("s2")})
	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "s1", cur.ID)

	s.Load(nil)
	_, ok = s.Current()
	assert.False(t, ok)
}

func TestStoreReloadKeepsSelection(t *testing.T) {
	s := NewStore()
	s.Load([]core.Sheet{sheetWith("s1"), sheetWith("s2")})
	require.NoError(t, s.SelectCurrent("s2"))

	s.Reload([]core.Sheet{sheetWith("s1"), sheetWith("s2"), sheetWith("s3")})
	cur, _ := s.Current()
	assert.Equal(t, "s2", cur.ID)

	s.Reload([]core.Sheet{sheetWith("s3")})
	cur, _ = s.Current()
	assert.Equal(t, "s3", cur.ID)

	assert.ErrorIs(t, s.SelectCurrent("missing"), core.ErrNotFound)
}

func TestStoreComputeTotal(t *testing.T) {
	s := NewStore()
	assert.True(t, s.ComputeTotal().IsZero())

	s.Load([]core.Sheet{sheetWith("s1",
		entry("e1", "01/02/2024", 100000, ""),
		entry("e2", "02/02/2024", -20000, "taxi"),
		entry("e3", "03/02/2024", 0, ""),
	)})
	assert.Equal(t, "80000", s.ComputeTotal().String())
	assert.Equal(t, 2, s.TransactionCount())

	s.Load([]core.Sheet{sheetWith("empty")})
	assert.True(t, s.ComputeTotal().IsZero())
}

func TestStoreGroupByDateRoundTrips(t *testing.T) {
	entries := []core.Entry{
		entry("a", "01/02/2024", 0, ""),
		entry("b", "01/02/2024", 5, "x"),
		entry("c", "02/02/2024", 0, ""),
		entry("d", "03/02/2024", 0, ""),
		entry("e", "03/02/2024", 1, "y"),
	}
	s := NewStore()
	s.Load([]core.Sheet{sheetWith("s1", entries...)})

	groups := s.GroupByDate()
	require.Len(t, groups, 3)

	var flat []string
	for _, g := range groups {
		for _, e := range g.Entries {
			assert.Equal(t, g.Date, e.Date)
			flat = append(flat, e.ID)
		}
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, flat)
}

func TestStoreApplyEntryEdit(t *testing.T) {
	s := NewStore()
	amt := core.NewMoney(50)
	patch := core.EntryPatch{Amount: &amt}

	_, ok := s.ApplyEntryEdit("e1", patch)
	assert.False(t, ok, "no current sheet")

	s.Load([]core.Sheet{
		sheetWith("s1", entry("e1", "01/02/2024", 0, "")),
		sheetWith("s2", entry("e2", "01/02/2024", 0, "")),
	})

	_, ok = s.ApplyEntryEdit("e2", patch)
	assert.False(t, ok, "entry outside the current sheet")

	prev, ok := s.ApplyEntryEdit("e1", patch)
	require.True(t, ok)
	assert.True(t, prev.Amount.IsZero())
	assert.Equal(t, "50", s.ComputeTotal().String())
}

func TestStoreRevertSkipsNewerEdits(t *testing.T) {
	s := NewStore()
	s.Load([]core.Sheet{sheetWith("s1", entry("e1", "01/02/2024", 10, "w"))})

	first := core.NewMoney(20)
	firstPatch := core.EntryPatch{Amount: &first}
	prev, _ := s.ApplyEntryEdit("e1", firstPatch)

	second := core.NewMoney(30)
	s.ApplyEntryEdit("e1", core.EntryPatch{Amount: &second})

	assert.False(t, s.RevertEntryEdit("e1", firstPatch, prev))
	assert.Equal(t, "30", s.ComputeTotal().String())

	work := "changed"
	workPatch := core.EntryPatch{Work: &work}
	prev, _ = s.ApplyEntryEdit("e1", workPatch)
	assert.True(t, s.RevertEntryEdit("e1", workPatch, prev))

	cur, _ := s.Current()
	assert.Equal(t, "w", cur.Entries[0].Work)
	assert.Equal(t, "30", cur.Entries[0].Amount.String())
}

func TestStoreHandsOutCopies(t *testing.T) {
	s := NewStore()
	s.Load([]core.Sheet{sheetWith("s1", entry("e1", "01/02/2024", 10, ""))})

	cur, _ := s.Current()
	cur.Entries[0].Amount = core.NewMoney(999)

	assert.Equal(t, "10", s.ComputeTotal().String())
}
