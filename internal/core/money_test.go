package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"100000", "100000", true},
		{"-20000", "-20000", true},
		{"12,5", "12.5", true},
		{"12.5", "12.5", true},
		{" 1_000 ", "1000", true},
		{"", "0", true},
		{"abc", "", false},
		{"1,000.5.2", "", false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestMoneyFormatGrouped(t *testing.T) {
	cases := map[string]string{
		"0":         "0",
		"999":       "999",
		"1000":      "1.000",
		"-20000":    "-20.000",
		"1234567.5": "1.234.567,5",
	}
	for in, want := range cases {
		m, err := ParseMoney(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got := m.FormatGrouped(); got != want {
			t.Errorf("FormatGrouped(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestMoneyJSONIsBareNumber(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{NewMoney(-20000)})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"amount":-20000}` {
		t.Fatalf("unexpected json %s", b)
	}

	var in struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":50,"b":"12.5","c":null}`), &in); err != nil {
		t.Fatal(err)
	}
	if in.A.String() != "50" || in.B.String() != "12.5" || !in.C.IsZero() {
		t.Fatalf("unexpected decode %s %s %s", in.A, in.B, in.C)
	}
}

func TestMoneyScan(t *testing.T) {
	var m Money
	for _, src := range []any{"42.5", int64(7), []byte("-3")} {
		if err := m.Scan(src); err != nil {
			t.Fatalf("scan %v: %v", src, err)
		}
	}
	if m.String() != "-3" {
		t.Fatalf("got %s", m)
	}
	if err := m.Scan(nil); err != nil || !m.IsZero() {
		t.Fatalf("nil scan: %v %s", err, m)
	}
}
