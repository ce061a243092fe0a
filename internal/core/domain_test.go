package core

import (
	"errors"
	"strings"
	"testing"
)

func TestCredentialTenant(t *testing.T) {
	c := Credential("secret")
	if c.Tenant() != TenantKey("secret") {
		t.Fatalf("expected tenant secret, got %q", c.Tenant())
	}

	cases := []struct {
		cred  Credential
		input string
		want  bool
	}{
		{c, "secret", true},
		{c, "secret2", false},
		{Credential(""), "secret", false},
	}
	for i, tc := range cases {
		if got := tc.cred.Matches(Credential(tc.input)); got != tc.want {
			t.Errorf("case %d: Matches(%q) = %v, want %v", i, tc.input, got, tc.want)
		}
	}

	fp := c.Tenant().Fingerprint()
	if len(fp) != 12 {
		t.Errorf("expected 12 char fingerprint, got %q", fp)
	}
	if strings.Contains(fp, "secret") {
		t.Errorf("fingerprint leaks the key: %q", fp)
	}
}

func TestPatchFor(t *testing.T) {
	p, err := PatchFor(FieldAmount, "50")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if p.Amount == nil || p.Overview != nil || p.Work != nil {
		t.Fatalf("expected only amount set, got %+v", p)
	}
	if p.Amount.String() != "50" {
		t.Errorf("expected amount 50, got %s", p.Amount.String())
	}

	if _, err := PatchFor(FieldAmount, "fifty"); !IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}

	p, err = PatchFor(FieldWork, "")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if p.Work == nil || *p.Work != "" {
		t.Errorf("expected empty work to be a set field, got %+v", p)
	}
}

func TestEntryPatchApplyRevertHolds(t *testing.T) {
	e := Entry{ID: "1", Overview: "old", Amount: NewMoney(10), Work: "w"}
	p, err := PatchFor(FieldOverview, "new")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	next := p.Apply(e)
	if next.Overview != "new" || next.Work != "w" {
		t.Fatalf("unexpected apply result: %+v", next)
	}
	if !p.Holds(next) {
		t.Error("patch should hold on the edited entry")
	}
	if p.Holds(e) {
		t.Error("patch should not hold on the original entry")
	}
	back := p.Revert(e).Apply(next)
	if back.Overview != e.Overview || back.Work != e.Work || !back.Amount.Equal(e.Amount.Decimal) {
		t.Errorf("revert: got %+v, want %+v", back, e)
	}
}

func TestParseEntryField(t *testing.T) {
	f, err := ParseEntryField(" Amount ")
	if err != nil || f != FieldAmount {
		t.Fatalf("expected amount, got %q err=%v", f, err)
	}
	if _, err := ParseEntryField("date"); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewSheetValidate(t *testing.T) {
	valid := NewSheet{Tenant: "p", Name: "March", Month: 3, Year: 2025, Entries: DayEntries(3, 2025)}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tests := []struct {
		name  string
		sheet NewSheet
		field string
	}{
		{"missing password", NewSheet{Name: "x", Month: 1, Year: 2025}, "password"},
		{"missing name", NewSheet{Tenant: "p", Month: 1, Year: 2025}, "name"},
		{"bad month", NewSheet{Tenant: "p", Name: "x", Month: 13, Year: 2025}, "month"},
		{"bad year", NewSheet{Tenant: "p", Name: "x", Month: 1}, "year"},
		{"entry outside month", NewSheet{Tenant: "p", Name: "x", Month: 1, Year: 2025, Entries: []NewEntry{{Date: "01/02/2025"}}}, "date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ve *ValidationError
			if err := tt.sheet.Validate(); !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestEntryHasData(t *testing.T) {
	cases := []struct {
		e    Entry
		want bool
	}{
		{Entry{}, false},
		{Entry{Work: "x"}, true},
		{Entry{Amount: NewMoney(1)}, true},
	}
	for i, tc := range cases {
		if got := tc.e.HasData(); got != tc.want {
			t.Errorf("case %d: HasData() = %v, want %v", i, got, tc.want)
		}
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&TransportError{Op: "x", Err: ErrNotFound}, true},
		{&CollaboratorError{Op: "x", Status: 503, Err: ErrNotFound}, true},
		{&CollaboratorError{Op: "x", Status: 400, Err: ErrNotFound}, false},
		{NewValidationError("f", "m"), false},
		{ErrNotFound, false},
	}
	for i, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Errorf("case %d: Retryable(%v) = %v, want %v", i, tc.err, got, tc.want)
		}
	}
}
