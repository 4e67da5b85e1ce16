package board

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ValueKind tags which field of a Value is meaningful.
type ValueKind string

const (
	KindText     ValueKind = "text"
	KindNumber   ValueKind = "number"
	KindDate     ValueKind = "date"
	KindPerson   ValueKind = "person"
	KindStatus   ValueKind = "status"
	KindCheckbox ValueKind = "checkbox"
	KindLink     ValueKind = "link"
	KindTags     ValueKind = "tags"
)

// IsValid returns true if the kind is one of the defined constants.
func (k ValueKind) IsValid() bool {
	switch k {
	case KindText, KindNumber, KindDate, KindPerson, KindStatus, KindCheckbox, KindLink, KindTags:
		return true
	default:
		return false
	}
}

// Value is a cell value keyed by column id on an Item. Only the fields that
// belong to Kind are populated. Values are never checked against the type of
// the column they are stored under.
type Value struct {
	Kind   ValueKind
	Text   string
	Number float64
	Date   time.Time
	Bool   bool
	Tags   []string
}

func TextValue(s string) Value        { return Value{Kind: KindText, Text: s} }
func NumberValue(n float64) Value     { return Value{Kind: KindNumber, Number: n} }
func DateValue(d time.Time) Value     { return Value{Kind: KindDate, Date: d} }
func PersonValue(userID string) Value { return Value{Kind: KindPerson, Text: userID} }
func StatusValue(label string) Value  { return Value{Kind: KindStatus, Text: label} }
func CheckboxValue(b bool) Value      { return Value{Kind: KindCheckbox, Bool: b} }
func LinkValue(url string) Value      { return Value{Kind: KindLink, Text: url} }

func TagsValue(tags ...string) Value {
	return Value{Kind: KindTags, Tags: slices.Clone(tags)}
}

// Validate checks that the value is well formed for its own kind.
func (v Value) Validate() error {
	switch v.Kind {
	case KindPerson, KindLink:
		if strings.TrimSpace(v.Text) == "" {
			return fmt.Errorf("%s value must not be empty", v.Kind)
		}
	case KindDate:
		if v.Date.IsZero() {
			return errors.New("date value must be set")
		}
	case KindText, KindNumber, KindStatus, KindCheckbox, KindTags:
	default:
		return fmt.Errorf("unknown value kind %q", v.Kind)
	}
	return nil
}

func (v Value) clone() Value {
	v.Tags = slices.Clone(v.Tags)
	return v
}
