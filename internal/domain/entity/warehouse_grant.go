package entity

import "time"

// WarehouseGrant permiso de un usuario sobre una bodega.
// Existe a lo sumo una fila por (UserID, WarehouseID); revocar la desactiva, no la borra.
type WarehouseGrant struct {
	ID          string
	UserID      string
	WarehouseID string
	CanView     bool
	CanModify   bool
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AllowsView: modificar implica ver.
func (g *WarehouseGrant) AllowsView() bool {
	return g != nil && g.IsActive && (g.CanView || g.CanModify)
}

func (g *WarehouseGrant) AllowsModify() bool {
	return g != nil && g.IsActive && g.CanModify
}

// Reactivate sobrescribe los flags y deja la fila activa (re-grant).
func (g *WarehouseGrant) Reactivate(canView, canModify bool, now time.Time) {
	g.CanView = canView
	g.CanModify = canModify
	g.IsActive = true
	g.UpdatedAt = now
}

func (g *WarehouseGrant) Deactivate(now time.Time) {
	g.IsActive = false
	g.UpdatedAt = now
}

// FilterWarehousesByGrants devuelve las bodegas accesibles según los grants (función pura).
// Con includeViewOnly se incluyen los grants de solo lectura.
func FilterWarehousesByGrants(grants []*WarehouseGrant, includeViewOnly bool) map[string]struct{} {
	out := make(map[string]struct{}, len(grants))
	for _, g := range grants {
		if g == nil || !g.IsActive {
			continue
		}
		if g.CanModify || (includeViewOnly && g.CanView) {
			out[g.WarehouseID] = struct{}{}
		}
	}
	return out
}
