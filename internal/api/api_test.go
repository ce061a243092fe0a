package api

import (
	"encoding/json"
	"testing"
	"time"

	"finsheets/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntStringAcceptsStringsAndNumbers(t *testing.T) {
	tests := []struct {
		in   string
		want IntString
	}{
		{`"02"`, 2},
		{`2`, 2},
		{`"2024"`, 2024},
		{`" 12 "`, 12},
	}
	for _, tt := range tests {
		var got IntString
		require.NoError(t, json.Unmarshal([]byte(tt.in), &got), tt.in)
		assert.Equal(t, tt.want, got)
	}

	var bad IntString
	assert.Error(t, json.Unmarshal([]byte(`"feb"`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`1.5`), &bad))
}

func TestSheetResponseWireFormat(t *testing.T) {
	sheet := core.Sheet{
		ID:        "s1",
		Tenant:    "160802",
		Name:      "Tháng 2",
		Month:     2,
		Year:      2024,
		CreatedAt: time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC),
		Entries: []core.Entry{
			{ID: "e1", SheetID: "s1", Date: "01/02/2024", Amount: core.NewMoney(-20000), Work: "lunch"},
		},
	}

	data, err := json.Marshal(NewSheetResponse(sheet))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "s1",
		"user_password": "160802",
		"name": "Tháng 2",
		"month": "02",
		"year": "2024",
		"created_at": "2024-02-01T08:00:00Z",
		"entries": [
			{"id": "e1", "sheet_id": "s1", "date": "01/02/2024", "overview": "", "amount": -20000, "work": "lunch"}
		]
	}`, string(data))

	var back SheetResponse
	require.NoError(t, json.Unmarshal(data, &back))
	got := back.ToSheet()
	assert.Equal(t, sheet.ID, got.ID)
	assert.Equal(t, sheet.Tenant, got.Tenant)
	assert.Equal(t, 2, got.Month)
	assert.Equal(t, 2024, got.Year)
	assert.True(t, sheet.CreatedAt.Equal(got.CreatedAt))
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "-20000", got.Entries[0].Amount.String())
	assert.Equal(t, "lunch", got.Entries[0].Work)
}

func TestSheetResponseEmptyEntriesIsArray(t *testing.T) {
	data, err := json.Marshal(NewSheetResponse(core.Sheet{ID: "s"}))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"entries":[]`)
}

func TestCreateSheetRequestValidate(t *testing.T) {
	var req CreateSheetRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name": "Tháng 3", "month": 3}`), &req))

	err := req.Validate()
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.Equal(t, "Missing required fields: password, year", err.Error())

	require.NoError(t, json.Unmarshal([]byte(`{"password": "p", "name": " Tháng 3 ", "month": "03", "year": 2025,
		"entries": [{"id": "temp-1", "date": "01/03/2025", "amount": "100"}]}`), &req))
	require.NoError(t, req.Validate())

	ns := req.ToNewSheet()
	assert.Equal(t, core.TenantKey("p"), ns.Tenant)
	assert.Equal(t, "Tháng 3", ns.Name)
	assert.Equal(t, 3, ns.Month)
	assert.Equal(t, 2025, ns.Year)
	require.Len(t, ns.Entries, 1)
	assert.Equal(t, "100", ns.Entries[0].Amount.String())
}

func TestCreateEntryRequest(t *testing.T) {
	assert.Error(t, CreateEntryRequest{SheetID: "s"}.Validate())
	assert.Error(t, CreateEntryRequest{Date: "01/01/2025"}.Validate())

	var req CreateEntryRequest
	require.NoError(t, json.Unmarshal([]byte(`{"sheet_id": "s", "date": "01/01/2025"}`), &req))
	require.NoError(t, req.Validate())
	ne := req.ToNewEntry()
	assert.True(t, ne.Amount.IsZero())
	assert.Equal(t, "", ne.Overview)
}

func TestUpdateEntryRequestDefaults(t *testing.T) {
	var req UpdateEntryRequest
	require.NoError(t, json.Unmarshal([]byte(`{"id": "e1", "work": "taxi"}`), &req))
	require.NoError(t, req.Validate())

	f := req.ToFields()
	assert.Equal(t, "taxi", f.Work)
	assert.True(t, f.Amount.IsZero())

	assert.Error(t, UpdateEntryRequest{}.Validate())
}

func TestPatchEntryRequest(t *testing.T) {
	var req PatchEntryRequest
	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))
	assert.True(t, core.IsValidation(req.Validate()))

	require.NoError(t, json.Unmarshal([]byte(`{"amount": 5000}`), &req))
	require.NoError(t, req.Validate())
	p := req.ToPatch()
	assert.Nil(t, p.Overview)
	assert.Nil(t, p.Work)
	require.NotNil(t, p.Amount)
	assert.Equal(t, "5000", p.Amount.String())

	work := "grab"
	data, err := json.Marshal(NewPatchEntryRequest(core.EntryPatch{Work: &work}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"work": "grab"}`, string(data))
}
