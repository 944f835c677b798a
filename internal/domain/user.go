package domain

import "time"

// Role defines the permission level of a user.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleReporter Role = "reporter"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// roleRank orders roles from least to most privileged.
var roleRank = map[Role]int{
	RoleViewer:   1,
	RoleReporter: 2,
	RoleManager:  3,
	RoleAdmin:    4,
}

// HasPermission reports whether the role satisfies the required minimum role.
func (r Role) HasPermission(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// User represents an application user. PasswordHash never leaves the
// store layer and is excluded from JSON.
type User struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
