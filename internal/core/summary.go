package core

// DateGroup is a run of entries sharing one date.
type DateGroup struct {
	Date    string
	Entries []Entry
}

// Total sums the amounts of all entries.
func Total(entries []Entry) Money {
	var sum Money
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}
	return sum
}

// TransactionCount counts entries that carry data.
func TransactionCount(entries []Entry) int {
	n := 0
	for _, e := range entries {
		if e.HasData() {
			n++
		}
	}
	return n
}

// GroupByDate partitions entries by date. Groups appear in the order their
// date is first seen and keep the relative order of their entries.
func GroupByDate(entries []Entry) []DateGroup {
	var groups []DateGroup
	index := make(map[string]int)
	for _, e := range entries {
		i, ok := index[e.Date]
		if !ok {
			i = len(groups)
			index[e.Date] = i
			groups = append(groups, DateGroup{Date: e.Date})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups
}

func (s Sheet) Total() Money {
	return Total(s.Entries)
}

func (s Sheet) TransactionCount() int {
	return TransactionCount(s.Entries)
}

func (s Sheet) Groups() []DateGroup {
	return GroupByDate(s.Entries)
}

// EntriesOn returns how many entries of the sheet carry date.
func (s Sheet) EntriesOn(date string) int {
	n := 0
	for _, e := range s.Entries {
		if e.Date == date {
			n++
		}
	}
	return n
}

// Clone deep-copies the entry slice so callers cannot alias shared state.
func (s Sheet) Clone() Sheet {
	s.Entries = append([]Entry(nil), s.Entries...)
	return s
}

// Headings shared by every rendering of a sheet.
const (
	LabelDate         = "Ngày"
	LabelOverview     = "Tổng Quan"
	LabelAmount       = "Số Tiền (VNĐ)"
	LabelWork         = "Công Việc"
	LabelTotal        = "Tổng Cộng"
	LabelTransactions = "Số Giao Dịch"
)
