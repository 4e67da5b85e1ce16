// Package user implements the Anti-Corruption Layer translators for the
// identity service's user resources.
package user

// UserDTO matches the identity service's User schema.
type UserDTO struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	CreatedAt   string   `json:"created_at,omitempty"`
}
