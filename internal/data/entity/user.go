package entity

import "github.com/google/uuid"

type UserRole string

const (
	RoleAdmin        UserRole = "Admin"
	RoleOwner        UserRole = "Owner"
	RoleOwnerAcademy UserRole = "Owner_Academy"
	RoleCoach        UserRole = "Coach"
	RoleUser         UserRole = "User"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleOwner, RoleOwnerAcademy, RoleCoach, RoleUser:
		return true
	}
	return false
}

// IsFieldOwner reports the roles that own fields
func (r UserRole) IsFieldOwner() bool {
	return r == RoleOwner || r == RoleOwnerAcademy
}

type User struct {
	BaseSoftDelete
	Name         string   `db:"name"`
	Email        string   `db:"email"`
	PasswordHash string   `db:"password"`
	Phone        *string  `db:"phone"`
	Role         UserRole `db:"role"`
	IsActive     bool     `db:"is_active"`
}

// Actor is the authenticated caller of a service operation
type Actor struct {
	ID   uuid.UUID
	Role UserRole
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanManageField reports whether the actor may act on behalf of a field:
// approve transfers into it, add periods, see its bookings.
func (a Actor) CanManageField(f *Field) bool {
	if f == nil {
		return false
	}
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleOwner, RoleOwnerAcademy:
		return f.OwnerID == a.ID
	case RoleCoach:
		return f.CoachID != nil && *f.CoachID == a.ID
	case RoleUser:
		return false
	}
	return false
}

// CanManagePayments covers refunds and the payment listing
func (a Actor) CanManagePayments() bool {
	switch a.Role {
	case RoleAdmin, RoleOwner, RoleOwnerAcademy:
		return true
	case RoleCoach, RoleUser:
		return false
	}
	return false
}
