package dto

import "time"

// CreateUserRequest body para POST /api/users.
type CreateUserRequest struct {
	FirstName     string     `json:"first_name" validate:"required,max=100"`
	LastName      string     `json:"last_name" validate:"required,max=100"`
	PersonnelCode string     `json:"personnel_code" validate:"required,max=50"`
	MobileNumber  string     `json:"mobile_number,omitempty" validate:"max=20"`
	Email         string     `json:"email,omitempty" validate:"omitempty,email"`
	Password      string     `json:"password" validate:"required,min=6"`
	Role          string     `json:"role" validate:"required"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`
}

// UserResponse usuario sin datos sensibles.
type UserResponse struct {
	ID            string     `json:"id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	PersonnelCode string     `json:"personnel_code"`
	MobileNumber  string     `json:"mobile_number,omitempty"`
	Email         string     `json:"email,omitempty"`
	Role          string     `json:"role"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
}

// WarehouseResponse bodega accesible.
type WarehouseResponse struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	IsActive bool   `json:"is_active"`
}

// LoginRequest body para POST /api/auth/login.
type LoginRequest struct {
	PersonnelCode string `json:"personnel_code" validate:"required"`
	Password      string `json:"password" validate:"required"`
}

// LoginResponse token + usuario autenticado.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
