package auth

import (
	"slices"

	"natours/internal/model"
)

// Allowed reports whether role is one of the permitted roles.
func Allowed(permitted []model.Role, role model.Role) bool {
	return slices.Contains(permitted, role)
}
