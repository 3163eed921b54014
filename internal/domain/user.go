package domain

import "time"

// Role distinguishes managers from staff.
type Role string

const (
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleManager || r == RoleStaff
}

// User is the account model for both managers and staff.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Role         Role
	Department   string
	JobTitle     string
	EmployeeID   string
	AvatarURL    string
	IsActive     bool
	LastLogin    *time.Time
	ManagerID    *string
	Timezone     string
	RefreshToken *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsManager reports whether the user may host meetings.
func (u *User) IsManager() bool {
	return u != nil && u.Role == RoleManager
}

// ManagedBy reports whether u is active staff reporting to managerID.
func (u *User) ManagedBy(managerID string) bool {
	return u != nil && u.IsActive && u.Role == RoleStaff && u.ManagerID != nil && *u.ManagerID == managerID
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
