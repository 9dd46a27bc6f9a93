package entity

import (
	"strings"
	"time"
)

// User representa un usuario del sistema. La baja es lógica (IsActive).
type User struct {
	ID            string
	FirstName     string
	LastName      string
	PersonnelCode string
	MobileNumber  string
	Email         string
	PasswordHash  string // bcrypt hash
	Role          Role
	ExpiryDate    *time.Time
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FullName nombre legible para reportes y auditoría.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) Deactivate(now time.Time) {
	u.IsActive = false
	u.UpdatedAt = now
}

func (u *User) Reactivate(now time.Time) {
	u.IsActive = true
	u.UpdatedAt = now
}
