// Package booking holds the pure reservation rules: roles, statuses, the
// hh:mm:ss duration codec, opening-period coverage and the patch allow-lists.
// Nothing in this package performs I/O.
package booking

import (
	"fmt"
	"strings"
)

// Role is a totally ordered privilege level.
type Role int

const (
	RoleInactive Role = iota
	RoleRestricted
	RoleGuest
	RoleBasic
	RoleAdvanced
	RoleAdmin
)

var roleNames = [...]string{
	RoleInactive:   "inactive",
	RoleRestricted: "restricted",
	RoleGuest:      "guest",
	RoleBasic:      "basic",
	RoleAdvanced:   "advanced",
	RoleAdmin:      "admin",
}

// String returns the lowercase storage name of the role.
func (r Role) String() string {
	if r < RoleInactive || r > RoleAdmin {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roleNames[r]
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	return r >= RoleInactive && r <= RoleAdmin
}

// AtLeast reports whether r grants at least the privileges of min.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r >= min
}

// ParseRole converts a case-insensitive role name.
func ParseRole(value string) (Role, error) {
	name := strings.ToLower(strings.TrimSpace(value))
	for i, candidate := range roleNames {
		if candidate == name {
			return Role(i), nil
		}
	}
	return RoleInactive, fmt.Errorf("booking: unknown role %q", value)
}

// SlotStatus is the lifecycle state of a single time slot.
type SlotStatus string

const (
	StatusPending   SlotStatus = "pending"
	StatusConfirmed SlotStatus = "confirmed"
	StatusCancelled SlotStatus = "cancelled"
	StatusRejected  SlotStatus = "rejected"
)

// Valid reports whether s is a known slot status.
func (s SlotStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// Privacy controls how much of a reservation public listings reveal.
type Privacy string

const (
	PrivacyPublic    Privacy = "public"
	PrivacyAnonymous Privacy = "anonymous"
	PrivacyPrivate   Privacy = "private"
)

// Valid reports whether p is a known privacy level.
func (p Privacy) Valid() bool {
	switch p {
	case PrivacyPublic, PrivacyAnonymous, PrivacyPrivate:
		return true
	}
	return false
}

// RoomStatus tells whether a room accepts reservations.
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomUnavailable RoomStatus = "unavailable"
)

// Valid reports whether s is a known room status.
func (s RoomStatus) Valid() bool {
	return s == RoomAvailable || s == RoomUnavailable
}

// InitialStatus returns the status a new slot receives. Roles at or below
// the approval threshold wait in pending; higher roles are confirmed.
func InitialStatus(role, threshold Role) SlotStatus {
	if role <= threshold {
		return StatusPending
	}
	return StatusConfirmed
}
