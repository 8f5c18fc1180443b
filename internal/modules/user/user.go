package user

import "time"

// Role is the access role of a user.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleCashier Role = "CASHIER"
)

// User represents a user in the system.
// @Description User information
// @Description with id, email, name, role, store_id, created_at, and updated_at
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	StoreID      string    `json:"store_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether u holds the ADMIN role. A nil user is not an admin.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// IsCashier reports whether u can be paired with a register terminal.
func (u *User) IsCashier() bool { return u != nil && u.Role == RoleCashier }

// HomeStore returns the user's store id, or "" for a nil user.
func (u *User) HomeStore() string {
	if u == nil {
		return ""
	}
	return u.StoreID
}
