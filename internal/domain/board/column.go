package board

import (
	"fmt"
	"strings"

	"github.com/Aidzix/Monday/internal/domain"
)

// ColumnType is the closed set of column kinds a board can declare.
type ColumnType string

const (
	ColumnStatus   ColumnType = "status"
	ColumnText     ColumnType = "text"
	ColumnLongText ColumnType = "long_text"
	ColumnNumber   ColumnType = "number"
	ColumnDate     ColumnType = "date"
	ColumnPerson   ColumnType = "person"
	ColumnCheckbox ColumnType = "checkbox"
	ColumnLink     ColumnType = "link"
	ColumnTags     ColumnType = "tags"
)

// IsValid returns true if the type is one of the defined constants.
func (t ColumnType) IsValid() bool {
	switch t {
	case ColumnStatus, ColumnText, ColumnLongText, ColumnNumber, ColumnDate,
		ColumnPerson, ColumnCheckbox, ColumnLink, ColumnTags:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (t ColumnType) String() string {
	return string(t)
}

// Column describes one attribute shown for every item. Columns never
// reference items.
type Column struct {
	ID       string
	Title    string
	Type     ColumnType
	Settings map[string]any
}

// Validate checks business rules for the Column entity.
func (c *Column) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(c.Title) == "" {
		fields["title"] = domain.MsgRequired
	}
	if !c.Type.IsValid() {
		fields["type"] = fmt.Sprintf("invalid: %q", c.Type)
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
