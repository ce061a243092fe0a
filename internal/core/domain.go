package core

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	FieldOverview EntryField = "overview"
	FieldAmount   EntryField = "amount"
	FieldWork     EntryField = "work"
)

type (
	// Credential is what a user types to unlock the application.
	Credential string

	// TenantKey partitions sheets between owners. Today it is derived
	// one-to-one from the Credential.
	TenantKey string

	// EntryField names one editable column of an Entry.
	EntryField string

	Entry struct {
		ID       string
		SheetID  string
		Date     string // DD/MM/YYYY
		Overview string
		Amount   Money
		Work     string
	}

	Sheet struct {
		ID        string
		Tenant    TenantKey
		Name      string
		Month     int // 1-12
		Year      int
		CreatedAt time.Time
		Entries   []Entry
	}

	// NewSheet is a sheet that has not been persisted yet.
	NewSheet struct {
		Tenant  TenantKey
		Name    string
		Month   int
		Year    int
		Entries []NewEntry
	}

	// NewEntry is an entry that has not been persisted yet.
	NewEntry struct {
		SheetID  string
		Date     string
		Overview string
		Amount   Money
		Work     string
	}

	// EntryFields is the full editable row, used for overwrite updates.
	EntryFields struct {
		Overview string
		Amount   Money
		Work     string
	}

	// EntryPatch carries only the fields that changed. Nil means untouched.
	EntryPatch struct {
		Overview *string
		Amount   *Money
		Work     *string
	}
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidPassword = errors.New("Mật khẩu không đúng!")
	ErrLastEntryForDay = errors.New("cannot delete the last entry of a day")
	ErrNoCurrentSheet  = errors.New("no sheet selected")
)

// Tenant returns the partition key the credential unlocks.
func (c Credential) Tenant() TenantKey {
	return TenantKey(c)
}

// Matches compares two credentials in constant time.
func (c Credential) Matches(expected Credential) bool {
	return subtle.ConstantTimeCompare([]byte(c), []byte(expected)) == 1
}

func (k TenantKey) IsZero() bool {
	return strings.TrimSpace(string(k)) == ""
}

// Fingerprint is a short, non-reversible identifier safe to put in logs.
func (k TenantKey) Fingerprint() string {
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:])[:12]
}

// ParseEntryField maps a column name to an EntryField.
func ParseEntryField(s string) (EntryField, error) {
	switch f := EntryField(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldOverview, FieldAmount, FieldWork:
		return f, nil
	default:
		return "", NewValidationError("field", fmt.Sprintf("unknown field %q (want overview, amount or work)", s))
	}
}

// PatchFor builds a single-field patch from raw user input.
// An empty amount is read as zero.
func PatchFor(field EntryField, raw string) (EntryPatch, error) {
	switch field {
	case FieldOverview:
		return EntryPatch{Overview: &raw}, nil
	case FieldWork:
		return EntryPatch{Work: &raw}, nil
	case FieldAmount:
		m, err := ParseMoney(raw)
		if err != nil {
			return EntryPatch{}, NewValidationError("amount", err.Error())
		}
		return EntryPatch{Amount: &m}, nil
	default:
		return EntryPatch{}, NewValidationError("field", fmt.Sprintf("unknown field %q", field))
	}
}

func (p EntryPatch) IsEmpty() bool {
	return p.Overview == nil && p.Amount == nil && p.Work == nil
}

// Apply returns e with the patched fields replaced.
func (p EntryPatch) Apply(e Entry) Entry {
	if p.Overview != nil {
		e.Overview = *p.Overview
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Work != nil {
		e.Work = *p.Work
	}
	return e
}

// Revert builds the patch that restores the fields p touches to their values in prev.
func (p EntryPatch) Revert(prev Entry) EntryPatch {
	var out EntryPatch
	if p.Overview != nil {
		v := prev.Overview
		out.Overview = &v
	}
	if p.Amount != nil {
		v := prev.Amount
		out.Amount = &v
	}
	if p.Work != nil {
		v := prev.Work
		out.Work = &v
	}
	return out
}

// Holds reports whether every field of p currently has p's value in e.
func (p EntryPatch) Holds(e Entry) bool {
	if p.Overview != nil && e.Overview != *p.Overview {
		return false
	}
	if p.Amount != nil && !e.Amount.Equal(p.Amount.Decimal) {
		return false
	}
	if p.Work != nil && e.Work != *p.Work {
		return false
	}
	return true
}

func (f EntryFields) Apply(e Entry) Entry {
	e.Overview = f.Overview
	e.Amount = f.Amount
	e.Work = f.Work
	return e
}

// HasData reports whether the entry records a transaction.
func (e Entry) HasData() bool {
	return e.Work != "" || !e.Amount.IsZero()
}

func (s NewSheet) Validate() error {
	if s.Tenant.IsZero() {
		return NewValidationError("password", "password is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return NewValidationError("name", "name is required")
	}
	if len(s.Name) > 200 {
		return NewValidationError("name", "name too long (max 200 characters)")
	}
	if s.Month < 1 || s.Month > 12 {
		return NewValidationError("month", fmt.Sprintf("invalid month %d", s.Month))
	}
	if s.Year < 1 || s.Year > 9999 {
		return NewValidationError("year", fmt.Sprintf("invalid year %d", s.Year))
	}
	for _, e := range s.Entries {
		if err := CheckDateInMonth(e.Date, s.Month, s.Year); err != nil {
			return err
		}
	}
	return nil
}

func (e NewEntry) Validate() error {
	if strings.TrimSpace(e.SheetID) == "" {
		return NewValidationError("sheet_id", "sheet_id is required")
	}
	if strings.TrimSpace(e.Date) == "" {
		return NewValidationError("date", "date is required")
	}
	if _, _, _, err := ParseDate(e.Date); err != nil {
		return err
	}
	return nil
}
