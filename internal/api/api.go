// Package api defines the JSON records exchanged over the REST surface and
// validates them at the boundary. Both the server and the client use them.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"finsheets/internal/core"
)

// IntString is an integer that travels as a zero-padded string ("02",
// "2024"). Decoding also accepts a bare JSON number.
type IntString int

func (n IntString) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("%02d", int(n)))
}

func (n *IntString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(strings.TrimSpace(s))
	}
	v, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("not an integer: %s", data)
	}
	*n = IntString(v)
	return nil
}

type SheetResponse struct {
	ID           string          `json:"id"`
	UserPassword string          `json:"user_password"`
	Name         string          `json:"name"`
	Month        IntString       `json:"month"`
	Year         IntString       `json:"year"`
	Entries      []EntryResponse `json:"entries"`
	CreatedAt    time.Time       `json:"created_at"`
}

type EntryResponse struct {
	ID       string     `json:"id"`
	SheetID  string     `json:"sheet_id"`
	Date     string     `json:"date"`
	Overview string     `json:"overview"`
	Amount   core.Money `json:"amount"`
	Work     string     `json:"work"`
}

func NewSheetResponse(s core.Sheet) SheetResponse {
	entries := make([]EntryResponse, len(s.Entries))
	for i, e := range s.Entries {
		entries[i] = NewEntryResponse(e)
	}
	return SheetResponse{
		ID:           s.ID,
		UserPassword: string(s.Tenant),
		Name:         s.Name,
		Month:        IntString(s.Month),
		Year:         IntString(s.Year),
		Entries:      entries,
		CreatedAt:    s.CreatedAt,
	}
}

func NewSheetsResponse(list []core.Sheet) []SheetResponse {
	out := make([]SheetResponse, len(list))
	for i, s := range list {
		out[i] = NewSheetResponse(s)
	}
	return out
}

func NewEntryResponse(e core.Entry) EntryResponse {
	return EntryResponse{
		ID:       e.ID,
		SheetID:  e.SheetID,
		Date:     e.Date,
		Overview: e.Overview,
		Amount:   e.Amount,
		Work:     e.Work,
	}
}

func (r SheetResponse) ToSheet() core.Sheet {
	entries := make([]core.Entry, len(r.Entries))
	for i, e := range r.Entries {
		entries[i] = e.ToEntry()
		if entries[i].SheetID == "" {
			entries[i].SheetID = r.ID
		}
	}
	return core.Sheet{
		ID:        r.ID,
		Tenant:    core.TenantKey(r.UserPassword),
		Name:      r.Name,
		Month:     int(r.Month),
		Year:      int(r.Year),
		CreatedAt: r.CreatedAt,
		Entries:   entries,
	}
}

func (r EntryResponse) ToEntry() core.Entry {
	return core.Entry{
		ID:       r.ID,
		SheetID:  r.SheetID,
		Date:     r.Date,
		Overview: r.Overview,
		Amount:   r.Amount,
		Work:     r.Work,
	}
}

// CreateSheetRequest is the body of POST /sheets. Entries are optional;
// any id they carry is ignored.
type CreateSheetRequest struct {
	Password string       `json:"password"`
	Name     string       `json:"name"`
	Month    *IntString   `json:"month"`
	Year     *IntString   `json:"year"`
	Entries  []EntryInput `json:"entries,omitempty"`
}

type EntryInput struct {
	ID       string     `json:"id,omitempty"`
	Date     string     `json:"date"`
	Overview string     `json:"overview"`
	Amount   core.Money `json:"amount"`
	Work     string     `json:"work"`
}

func (r CreateSheetRequest) Validate() error {
	var missing []string
	if r.Password == "" {
		missing = append(missing, "password")
	}
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "name")
	}
	if r.Month == nil {
		missing = append(missing, "month")
	}
	if r.Year == nil {
		missing = append(missing, "year")
	}
	if len(missing) > 0 {
		return core.NewValidationError(missing[0], "Missing required fields: "+strings.Join(missing, ", "))
	}
	return nil
}

// ToNewSheet assumes Validate passed.
func (r CreateSheetRequest) ToNewSheet() core.NewSheet {
	ns := core.NewSheet{
		Tenant: core.Credential(r.Password).Tenant(),
		Name:   strings.TrimSpace(r.Name),
		Month:  int(*r.Month),
		Year:   int(*r.Year),
	}
	for _, e := range r.Entries {
		ns.Entries = append(ns.Entries, core.NewEntry{
			Date:     e.Date,
			Overview: e.Overview,
			Amount:   e.Amount,
			Work:     e.Work,
		})
	}
	return ns
}

// CreateEntryRequest is the body of POST /entries.
type CreateEntryRequest struct {
	SheetID  string     `json:"sheet_id"`
	Date     string     `json:"date"`
	Overview string     `json:"overview"`
	Amount   core.Money `json:"amount"`
	Work     string     `json:"work"`
}

func (r CreateEntryRequest) Validate() error {
	if r.SheetID == "" || r.Date == "" {
		return core.NewValidationError("sheet_id", "Missing required fields: sheet_id, date")
	}
	return nil
}

func (r CreateEntryRequest) ToNewEntry() core.NewEntry {
	return core.NewEntry{
		SheetID:  r.SheetID,
		Date:     r.Date,
		Overview: r.Overview,
		Amount:   r.Amount,
		Work:     r.Work,
	}
}

// UpdateEntryRequest is the body of PUT /entries. Omitted fields reset to
// their defaults.
type UpdateEntryRequest struct {
	ID       string     `json:"id"`
	Overview string     `json:"overview"`
	Amount   core.Money `json:"amount"`
	Work     string     `json:"work"`
}

func (r UpdateEntryRequest) Validate() error {
	if r.ID == "" {
		return core.NewValidationError("id", "Missing required field: id")
	}
	return nil
}

func (r UpdateEntryRequest) ToFields() core.EntryFields {
	return core.EntryFields{Overview: r.Overview, Amount: r.Amount, Work: r.Work}
}

// PatchEntryRequest is the body of PATCH /entries/{id}.
type PatchEntryRequest struct {
	Overview *string     `json:"overview,omitempty"`
	Amount   *core.Money `json:"amount,omitempty"`
	Work     *string     `json:"work,omitempty"`
}

func NewPatchEntryRequest(p core.EntryPatch) PatchEntryRequest {
	return PatchEntryRequest{Overview: p.Overview, Amount: p.Amount, Work: p.Work}
}

func (r PatchEntryRequest) Validate() error {
	if r.ToPatch().IsEmpty() {
		return core.NewValidationError("fields", "At least one of overview, amount, work is required")
	}
	return nil
}

func (r PatchEntryRequest) ToPatch() core.EntryPatch {
	return core.EntryPatch{Overview: r.Overview, Amount: r.Amount, Work: r.Work}
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
