package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{}, false},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDateAndMonthKey(t *testing.T) {
	d, err := ParseDate("2024-05-10")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.String() != "2024-05-10" || d.MonthKey() != "2024-05" {
		t.Fatalf("unexpected date %s / %s", d, d.MonthKey())
	}
	if _, err := ParseDate("2024-5-10"); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2024, 2, 29))
	if err != nil || string(b) != `"2024-02-29"` {
		t.Fatalf("marshal: %s %v", b, err)
	}
	var d Date
	if err := json.Unmarshal([]byte(`"2023-12-31"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.MonthKey() != "2023-12" {
		t.Fatalf("unexpected month key %s", d.MonthKey())
	}
	if err := json.Unmarshal([]byte(`"31/12/2023"`), &d); err == nil {
		t.Fatalf("expected error for bad layout")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:     NewDate(2024, 5, 10),
		Kind:     Expense,
		Category: "food",
		Amount:   5000,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := map[string]Transaction{
		"zero date":        {Kind: Expense, Category: "food", Amount: 1},
		"zero amount":      {Date: NewDate(2024, 5, 10), Kind: Expense, Category: "food", Amount: 0},
		"negative amount":  {Date: NewDate(2024, 5, 10), Kind: Expense, Category: "food", Amount: -5},
		"unknown kind":     {Date: NewDate(2024, 5, 10), Kind: "transfer", Category: "food", Amount: 1},
		"category of kind": {Date: NewDate(2024, 5, 10), Kind: Income, Category: "food", Amount: 1},
		"long label":       {Date: NewDate(2024, 5, 10), Kind: Expense, Category: "food", Amount: 1, Label: strings.Repeat("x", 101)},
	}
	for name, tx := range bads {
		err := tx.Validate()
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if !IsValidation(err) {
			t.Fatalf("%s: expected ValidationError, got %T", name, err)
		}
	}

	err := Transaction{Date: NewDate(2024, 5, 10), Kind: Expense, Category: "food", Amount: 0}.Validate()
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestFixedItemFieldsNormalizeAndValidate(t *testing.T) {
	f := FixedItemFields{Group: "  ", Name: " Rent ", Amount: 800000, Kind: Expense}.Normalize()
	if f.Group != DefaultGroup || f.Name != "Rent" {
		t.Fatalf("unexpected normalize result: %+v", f)
	}
	if err := f.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	if err := (FixedItemFields{Name: " ", Amount: 1, Kind: Expense}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if err := (FixedItemFields{Name: "x", Amount: 0, Kind: Expense}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := (FixedItemFields{Name: "x", Amount: 1}).Validate(); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestFixedItemVersionIsActiveFor(t *testing.T) {
	to := MonthKey("2024-05")
	tests := []struct {
		name string
		v    FixedItemVersion
		k    MonthKey
		want bool
	}{
		{"open, same month", FixedItemVersion{EffectiveFrom: "2024-03"}, "2024-03", true},
		{"open, month before", FixedItemVersion{EffectiveFrom: "2024-03"}, "2024-02", false},
		{"open, far future", FixedItemVersion{EffectiveFrom: "2024-03"}, "2031-01", true},
		{"closed, upper bound", FixedItemVersion{EffectiveFrom: "2024-01", EffectiveTo: &to}, "2024-05", true},
		{"closed, after bound", FixedItemVersion{EffectiveFrom: "2024-01", EffectiveTo: &to}, "2024-06", false},
		{"legacy empty from", FixedItemVersion{}, "1999-01", true},
		{"sentinel from", FixedItemVersion{EffectiveFrom: AlwaysActive}, "2000-07", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsActiveFor(tt.k); got != tt.want {
				t.Errorf("IsActiveFor(%s) = %v, want %v", tt.k, got, tt.want)
			}
		})
	}
}

func TestFixedItemVersionBoundary(t *testing.T) {
	for _, from := range []MonthKey{"2024-01", "2024-03", "2025-12", "2000-01"} {
		v := FixedItemVersion{EffectiveFrom: from}
		if !v.IsActiveFor(from) {
			t.Errorf("%s: expected active at effectiveFrom", from)
		}
		if v.IsActiveFor(from.Prev()) {
			t.Errorf("%s: expected inactive at %s", from, from.Prev())
		}
	}
}

func TestClosedAtDoesNotAlias(t *testing.T) {
	v := FixedItemVersion{EffectiveFrom: "2024-01"}
	closed := v.ClosedAt("2024-05")
	if v.IsClosed() {
		t.Fatalf("original must stay open")
	}
	if !closed.IsClosed() || *closed.EffectiveTo != "2024-05" {
		t.Fatalf("unexpected closed version %+v", closed)
	}
}
