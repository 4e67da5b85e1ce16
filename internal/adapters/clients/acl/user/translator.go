package user

import (
	"slices"
	"strings"

	domainuser "github.com/Aidzix/Monday/internal/domain/user"
)

// ToDomainUser converts an identity service UserDTO to a domain User. Role
// tags are trimmed, lowercased and de-duplicated; empty tags are dropped.
func ToDomainUser(dto *UserDTO) domainuser.User {
	return domainuser.User{
		ID:          dto.ID,
		DisplayName: strings.TrimSpace(dto.DisplayName),
		Email:       strings.TrimSpace(dto.Email),
		Roles:       normalizeRoles(dto.Roles),
	}
}

func normalizeRoles(in []string) []string {
	roles := make([]string, 0, len(in))
	for _, r := range in {
		r = strings.ToLower(strings.TrimSpace(r))
		if r != "" && !slices.Contains(roles, r) {
			roles = append(roles, r)
		}
	}
	return roles
}
