package google

import (
	"fmt"
	"strings"

	"finsheets/internal/core"

	gsheet "google.golang.org/api/sheets/v4"
)

const shortIDLen = 8

// TabTitle names the tab of s as "<name> [<first 8 chars of id>]".
func TabTitle(s core.Sheet) string {
	return fmt.Sprintf("%s [%s]", strings.TrimSpace(s.Name), shortID(s.ID))
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// BuildRows lays out s as a header, one row per entry with the date only on
// the first row of each date group, and a closing total row.
func BuildRows(s core.Sheet) [][]any {
	rows := make([][]any, 0, len(s.Entries)+2)
	rows = append(rows, []any{core.LabelDate, core.LabelOverview, core.LabelAmount, core.LabelWork})

	for _, g := range s.Groups() {
		for i, e := range g.Entries {
			date := ""
			if i == 0 {
				date = g.Date
			}
			rows = append(rows, []any{date, e.Overview, e.Amount.InexactFloat64(), e.Work})
		}
	}

	rows = append(rows, []any{core.LabelTotal, "", s.Total().InexactFloat64(), ""})
	return rows
}

func findTab(tabs []*gsheet.Sheet, sheetID string) *gsheet.SheetProperties {
	suffix := "[" + shortID(sheetID) + "]"
	for _, t := range tabs {
		if t == nil || t.Properties == nil {
			continue
		}
		if strings.HasSuffix(t.Properties.Title, suffix) {
			return t.Properties
		}
	}
	return nil
}

// quoteTitle makes a tab title safe for A1 notation.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
