// Package user holds the read-only view of users owned by the external
// identity service. Boards reference users by id only.
package user

import (
	"strings"

	"github.com/Aidzix/Monday/internal/domain"
)

// User is a person known to the identity service.
type User struct {
	ID          string
	DisplayName string
	Email       string
	Roles       []string
}

// Validate checks that the identity service returned a usable record.
func (u *User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return &domain.ValidationError{Fields: map[string]string{"id": domain.MsgRequired}}
	}
	return nil
}
