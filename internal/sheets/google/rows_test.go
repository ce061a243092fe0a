package google

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"finsheets/internal/core"

	gsheet "google.golang.org/api/sheets/v4"
)

func sampleSheet() core.Sheet {
	return core.Sheet{
		ID:   "8f14e45f-ceea-467f-a0e6-7c5e2a8d9b01",
		Name: "Tháng 2",
		Entries: []core.Entry{
			{ID: "a", Date: "01/02/2024", Overview: "lương", Amount: core.NewMoney(100000), Work: "salary"},
			{ID: "b", Date: "01/02/2024", Overview: "ăn trưa", Amount: core.NewMoney(-20000), Work: "lunch"},
			{ID: "c", Date: "02/02/2024"},
		},
	}
}

func TestTabTitle(t *testing.T) {
	cases := []struct {
		sheet core.Sheet
		want  string
	}{
		{sampleSheet(), "Tháng 2 [8f14e45f]"},
		{core.Sheet{ID: "short", Name: " x "}, "x [short]"},
	}
	for _, tc := range cases {
		if got := TabTitle(tc.sheet); got != tc.want {
			t.Errorf("TabTitle() = %q, want %q", got, tc.want)
		}
	}
}

func TestBuildRows(t *testing.T) {
	rows := BuildRows(sampleSheet())
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}

	want := map[int][]any{
		0: {core.LabelDate, core.LabelOverview, core.LabelAmount, core.LabelWork},
		1: {"01/02/2024", "lương", float64(100000), "salary"},
		4: {core.LabelTotal, "", float64(80000), ""},
	}
	for i, w := range want {
		if !reflect.DeepEqual(rows[i], w) {
			t.Errorf("row %d = %v, want %v", i, rows[i], w)
		}
	}
	if rows[2][0] != "" {
		t.Errorf("date should only be shown on the first row of a group, got %v", rows[2][0])
	}
	if rows[3][0] != "02/02/2024" {
		t.Errorf("row 3 date = %v", rows[3][0])
	}
}

func TestBuildRowsEmptySheet(t *testing.T) {
	rows := BuildRows(core.Sheet{ID: "x", Name: "empty"})
	if len(rows) != 2 {
		t.Fatalf("expected header and total, got %d rows", len(rows))
	}
	if rows[1][2] != float64(0) {
		t.Errorf("expected zero total, got %v", rows[1][2])
	}
}

func TestFindTab(t *testing.T) {
	tabs := []*gsheet.Sheet{
		{Properties: &gsheet.SheetProperties{SheetId: 1, Title: "Sheet1"}},
		nil,
		{Properties: &gsheet.SheetProperties{SheetId: 7, Title: "Renamed [8f14e45f]"}},
	}

	got := findTab(tabs, "8f14e45f-ceea-467f-a0e6-7c5e2a8d9b01")
	if got == nil || got.SheetId != 7 {
		t.Fatalf("expected tab 7, got %+v", got)
	}
	if got := findTab(tabs, "00000000-0000"); got != nil {
		t.Errorf("expected no tab, got %+v", got)
	}
}

func TestQuoteTitle(t *testing.T) {
	cases := map[string]string{
		"Tháng 2 [abc]": "'Tháng 2 [abc]'",
		"Bob's [abc]":   "'Bob''s [abc]'",
	}
	for in, want := range cases {
		if got := quoteTitle(in); got != want {
			t.Errorf("quoteTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewExporterRequiresConfig(t *testing.T) {
	ctx := context.Background()
	if _, err := NewExporter(ctx, "", Credentials{JSON: "{}"}, nil); err == nil {
		t.Error("expected error for missing spreadsheet id")
	}

	tests := []struct {
		creds Credentials
		want  string
	}{
		{Credentials{}, "missing service account credentials"},
		{Credentials{File: "/nonexistent/key.json"}, "read service account file"},
	}
	for _, tt := range tests {
		_, err := NewExporter(ctx, "spreadsheet", tt.creds, nil)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("NewExporter(%+v) error = %v, want %q", tt.creds, err, tt.want)
		}
	}
}
