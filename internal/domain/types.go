package domain

import "time"

type AvatarKey string
type SessionID string
type MessageID string

// Role is the access tier resolved for a speaker at chat time.
type Role string

const (
	RolePrivileged Role = "privileged" // owner-like, trusted
	RoleGuest      Role = "guest"      // regular visitor
	RoleBlocked    Role = "blocked"
)

// ParseRole maps a stored label back to a Role, defaulting to Guest.
func ParseRole(s string) Role {
	switch Role(s) {
	case RolePrivileged, RoleGuest, RoleBlocked:
		return Role(s)
	default:
		return RoleGuest
	}
}

type Timestamp = time.Time
