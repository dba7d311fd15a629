package domain

import "time"

// StaffRole enumerates the roles a staff member can hold within a salon.
type StaffRole string

const (
	RoleOwner        StaffRole = "owner"
	RoleManager      StaffRole = "manager"
	RoleCollaborator StaffRole = "collaborator"
)

// StaffStatus tracks a member's position in the invite lifecycle.
type StaffStatus string

const (
	StaffInvited  StaffStatus = "invited"
	StaffActive   StaffStatus = "active"
	StaffDisabled StaffStatus = "disabled"
)

// StaffMember models one roster entry. Identity is ID; a roster never holds
// two entries with the same ID.
type StaffMember struct {
	ID            int64       `json:"id"`
	Email         string      `json:"email"`
	FirstName     string      `json:"first_name"`
	LastName      string      `json:"last_name"`
	Role          StaffRole   `json:"role"`
	Status        StaffStatus `json:"status"`
	InvitedAt     *time.Time  `json:"invited_at,omitempty"`
	ActivatedAt   *time.Time  `json:"activated_at,omitempty"`
	DeactivatedAt *time.Time  `json:"deactivated_at,omitempty"`
}
