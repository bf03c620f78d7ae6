package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// DefaultGroup is the folder used for fixed items saved without one.
const DefaultGroup = "default"

const (
	maxLabelLen = 100
	maxNoteLen  = 500
	maxFreeLen  = 50
	dateLayout  = "2006-01-02"
)

type (
	Kind string

	Date struct {
		time.Time
	}

	Transaction struct {
		ID                string `json:"id"`
		OwnerID           string `json:"ownerId"`
		Date              Date   `json:"date"`
		Kind              Kind   `json:"kind"`
		Category          string `json:"category"`
		Label             string `json:"label,omitempty"`
		Amount            int64  `json:"amount"`
		Note              string `json:"note,omitempty"`
		PaymentInstrument string `json:"paymentInstrument,omitempty"`
		PaymentMethod     string `json:"paymentMethod,omitempty"`
	}

	// FixedItemFields is the editable content of a recurring item.
	FixedItemFields struct {
		Group             string `json:"group"`
		Name              string `json:"name"`
		Amount            int64  `json:"amount"`
		Kind              Kind   `json:"kind"`
		Note              string `json:"note,omitempty"`
		PaymentInstrument string `json:"paymentInstrument,omitempty"`
		PaymentMethod     string `json:"paymentMethod,omitempty"`
	}

	// FixedItemVersion is one time-bounded version of a recurring item.
	// EffectiveTo is nil while the version is still open.
	FixedItemVersion struct {
		ID      string `json:"id"`
		OwnerID string `json:"ownerId"`
		FixedItemFields
		EffectiveFrom MonthKey  `json:"effectiveFrom"`
		EffectiveTo   *MonthKey `json:"effectiveTo"`
	}
)

// Categories is the closed category vocabulary per kind.
var Categories = map[Kind][]string{
	Income:  {"salary", "side_income", "allowance", "investment", "other_income"},
	Expense: {"food", "transport", "housing", "medical", "shopping", "culture", "telecom", "education", "insurance", "other_expense"},
}

// Suggested values for the free-text payment fields. Not enforced.
var (
	PaymentInstruments = []string{"credit_card", "debit_card", "cash", "bank_transfer", "other"}
	PaymentMethods     = []string{"card", "kakaopay", "naverpay", "samsungpay", "applepay", "apple_subscription", "google_subscription", "auto_debit", "other"}
)

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidKind
	}
}

// IsCategory reports whether category belongs to the vocabulary of kind.
func IsCategory(kind Kind, category string) bool {
	for _, c := range Categories[kind] {
		if c == category {
			return true
		}
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, invalid("date", ErrInvalidDate)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// MonthKey returns the month the date falls in.
func (d Date) MonthKey() MonthKey {
	return MonthKeyOf(d.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func validateFree(field, s string, max int) error {
	if utf8.RuneCountInString(s) > max {
		return invalid(field, ErrFieldTooLong)
	}
	return nil
}

// Normalize trims the textual fields of a transaction.
func (t Transaction) Normalize() Transaction {
	t.Label = strings.TrimSpace(t.Label)
	t.Note = strings.TrimSpace(t.Note)
	t.PaymentInstrument = strings.TrimSpace(t.PaymentInstrument)
	t.PaymentMethod = strings.TrimSpace(t.PaymentMethod)
	return t
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	if t.Amount <= 0 {
		return invalid("amount", ErrInvalidAmount)
	}
	if err := t.Kind.Validate(); err != nil {
		return invalid("kind", err)
	}
	if !IsCategory(t.Kind, t.Category) {
		return invalid("category", ErrInvalidCategory)
	}
	return errors.Join(
		validateFree("label", t.Label, maxLabelLen),
		validateFree("note", t.Note, maxNoteLen),
		validateFree("paymentInstrument", t.PaymentInstrument, maxFreeLen),
		validateFree("paymentMethod", t.PaymentMethod, maxFreeLen),
	)
}

// Normalize trims the fields and falls back to DefaultGroup for an empty group.
func (f FixedItemFields) Normalize() FixedItemFields {
	f.Group = strings.TrimSpace(f.Group)
	if f.Group == "" {
		f.Group = DefaultGroup
	}
	f.Name = strings.TrimSpace(f.Name)
	f.Note = strings.TrimSpace(f.Note)
	f.PaymentInstrument = strings.TrimSpace(f.PaymentInstrument)
	f.PaymentMethod = strings.TrimSpace(f.PaymentMethod)
	return f
}

func (f FixedItemFields) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if f.Amount <= 0 {
		return invalid("amount", ErrInvalidAmount)
	}
	if err := f.Kind.Validate(); err != nil {
		return invalid("kind", err)
	}
	return errors.Join(
		validateFree("group", f.Group, maxFreeLen),
		validateFree("name", f.Name, maxLabelLen),
		validateFree("note", f.Note, maxNoteLen),
		validateFree("paymentInstrument", f.PaymentInstrument, maxFreeLen),
		validateFree("paymentMethod", f.PaymentMethod, maxFreeLen),
	)
}

// From returns the lower bound, treating an unset one as AlwaysActive.
func (v FixedItemVersion) From() MonthKey {
	if v.EffectiveFrom == "" {
		return AlwaysActive
	}
	return v.EffectiveFrom
}

// IsActiveFor reports whether the version contributes to month k.
func (v FixedItemVersion) IsActiveFor(k MonthKey) bool {
	if v.From() > k {
		return false
	}
	return v.EffectiveTo == nil || k <= *v.EffectiveTo
}

// IsClosed reports whether the version has an upper bound.
func (v FixedItemVersion) IsClosed() bool {
	return v.EffectiveTo != nil
}

// ClosedAt returns a copy of the version with EffectiveTo set to k.
func (v FixedItemVersion) ClosedAt(k MonthKey) FixedItemVersion {
	v.EffectiveTo = &k
	return v
}
