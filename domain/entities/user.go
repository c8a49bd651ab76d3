package entities

import "time"

// UserRole distinguishes viewers from streamers
type UserRole string

const (
	UserRoleViewer   UserRole = "VIEWER"
	UserRoleStreamer UserRole = "STREAMER"
)

// UserStatus is the account standing of a user
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User represents a platform account. Identity is immutable after
// registration; the role may move from VIEWER to STREAMER.
type User struct {
	ID        int64      `db:"id"`
	Username  string     `db:"username"`
	Role      UserRole   `db:"role"`
	Status    UserStatus `db:"status"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

// IsStreamer reports whether the user may own a room, tiers and gifts
func (u *User) IsStreamer() bool {
	return u.Role == UserRoleStreamer
}

// IsActive reports whether the user may take part in economic activity
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// IsValid reports whether the role is one the platform knows about
func (r UserRole) IsValid() bool {
	return r == UserRoleViewer || r == UserRoleStreamer
}
