package entity

import "strings"

// Role jerarquía global de roles. Menor ordinal = más privilegios.
type Role int

const (
	RoleAdmin                  Role = 1
	RoleSeniorUser             Role = 2
	RoleSeniorWarehouseManager Role = 3
	RoleWarehouseManager       Role = 4
	RoleSupervisor             Role = 5
)

var roleNames = map[Role]string{
	RoleAdmin:                  "Admin",
	RoleSeniorUser:             "SeniorUser",
	RoleSeniorWarehouseManager: "SeniorWarehouseManager",
	RoleWarehouseManager:       "WarehouseManager",
	RoleSupervisor:             "Supervisor",
}

func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return "Unknown"
}

// Valid indica si el rol pertenece a la enumeración.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// BypassesGrants: Admin y SeniorUser no dependen de permisos por bodega.
func (r Role) BypassesGrants() bool {
	return r == RoleAdmin || r == RoleSeniorUser
}

// ParseRole convierte el nombre (insensible a mayúsculas) en Role.
func ParseRole(s string) (Role, bool) {
	for r, n := range roleNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return r, true
		}
	}
	return 0, false
}

// CanCreateRole regla de creación de usuarios según el rol del creador.
func CanCreateRole(creator, target Role) bool {
	switch creator {
	case RoleAdmin:
		return target.Valid()
	case RoleSeniorUser:
		return target.Valid() && target != RoleAdmin && target != RoleSeniorUser
	case RoleSeniorWarehouseManager:
		return target == RoleWarehouseManager || target == RoleSupervisor
	default:
		return false
	}
}

// FilterUsersByRole devuelve los usuarios visibles para un rol (función pura).
//   - Admin: todos
//   - SeniorUser: todos excepto Admin y SeniorUser
//   - SeniorWarehouseManager: solo WarehouseManager
//   - resto: solo el propio usuario
func FilterUsersByRole(role Role, requesterID string, candidates []*User) []*User {
	out := make([]*User, 0, len(candidates))
	for _, u := range candidates {
		if u == nil {
			continue
		}
		var visible bool
		switch role {
		case RoleAdmin:
			visible = true
		case RoleSeniorUser:
			visible = u.Role != RoleAdmin && u.Role != RoleSeniorUser
		case RoleSeniorWarehouseManager:
			visible = u.Role == RoleWarehouseManager
		default:
			visible = u.ID == requesterID
		}
		if visible {
			out = append(out, u)
		}
	}
	return out
}
