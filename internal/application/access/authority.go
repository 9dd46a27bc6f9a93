// Package access resuelve qué usuario puede ver o modificar el stock de qué bodega,
// combinando la jerarquía global de roles con los permisos por bodega.
package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/application/unitofwork"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

// Authority autoridad de acceso por bodega.
type Authority struct {
	uow   *unitofwork.Runner
	repos repository.Repos
	audit *audit.Recorder
	now   func() time.Time
}

// NewAuthority construye la autoridad. repos se usa para lecturas fuera de transacción.
func NewAuthority(uow *unitofwork.Runner, repos repository.Repos, rec *audit.Recorder) *Authority {
	return &Authority{uow: uow, repos: repos, audit: rec, now: time.Now}
}

// grantSnapshot valores guardados en la bitácora.
type grantSnapshot struct {
	CanView   bool `json:"can_view"`
	CanModify bool `json:"can_modify"`
	IsActive  bool `json:"is_active"`
}

func snapshotOf(g *entity.WarehouseGrant) grantSnapshot {
	return grantSnapshot{CanView: g.CanView, CanModify: g.CanModify, IsActive: g.IsActive}
}

func (a *Authority) roleOf(ctx context.Context, userID string) (entity.Role, error) {
	u, err := a.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if u == nil || !u.IsActive {
		return 0, domain.ErrNotFound
	}
	return u.Role, nil
}

// CanView: Admin/SeniorUser siempre; resto requiere grant activo con ver o modificar.
// Un usuario inexistente o inactivo no puede ver nada.
func (a *Authority) CanView(ctx context.Context, userID, warehouseID string) (bool, error) {
	role, err := a.roleOf(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.CanViewAs(ctx, userID, role, warehouseID)
}

// CanModify: Admin/SeniorUser siempre; resto requiere grant activo con modificar.
func (a *Authority) CanModify(ctx context.Context, userID, warehouseID string) (bool, error) {
	role, err := a.roleOf(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.CanModifyAs(ctx, userID, role, warehouseID)
}

// CanViewAs igual que CanView con el rol ya autenticado por el llamador.
func (a *Authority) CanViewAs(ctx context.Context, userID string, role entity.Role, warehouseID string) (bool, error) {
	if role.BypassesGrants() {
		return true, nil
	}
	g, err := a.repos.Grants.Get(ctx, userID, warehouseID)
	if err != nil {
		return false, err
	}
	return g.AllowsView(), nil
}

func (a *Authority) CanModifyAs(ctx context.Context, userID string, role entity.Role, warehouseID string) (bool, error) {
	if role.BypassesGrants() {
		return true, nil
	}
	g, err := a.repos.Grants.Get(ctx, userID, warehouseID)
	if err != nil {
		return false, err
	}
	return g.AllowsModify(), nil
}

// AccessibleWarehouseIDs bodegas con grant activo de modificar (y de ver si includeViewOnly).
// Para Admin/SeniorUser todas las bodegas activas.
func (a *Authority) AccessibleWarehouseIDs(ctx context.Context, userID string, includeViewOnly bool) (map[string]struct{}, error) {
	role, err := a.roleOf(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, err
	}
	return a.AccessibleWarehouseIDsAs(ctx, userID, role, includeViewOnly)
}

func (a *Authority) AccessibleWarehouseIDsAs(ctx context.Context, userID string, role entity.Role, includeViewOnly bool) (map[string]struct{}, error) {
	if role.BypassesGrants() {
		whs, err := a.repos.Warehouses.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		out := make(map[string]struct{}, len(whs))
		for _, w := range whs {
			out[w.ID] = struct{}{}
		}
		return out, nil
	}
	grants, err := a.repos.Grants.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return entity.FilterWarehousesByGrants(grants, includeViewOnly), nil
}

// GrantAccess crea o reactiva el único grant del par, sobrescribiendo los flags.
func (a *Authority) GrantAccess(ctx context.Context, requesterID, userID, warehouseID string, canView, canModify bool) (*entity.WarehouseGrant, error) {
	if userID == "" || warehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	var (
		result *entity.WarehouseGrant
		old    *grantSnapshot
	)
	err := a.uow.Do(ctx, "grant_access", nil, func(ctx context.Context, r repository.Repos) error {
		old, result = nil, nil
		u, err := r.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("usuario %s: %w", userID, domain.ErrNotFound)
		}
		w, err := r.Warehouses.GetByID(ctx, warehouseID)
		if err != nil {
			return err
		}
		if w == nil {
			return fmt.Errorf("bodega %s: %w", warehouseID, domain.ErrNotFound)
		}

		now := a.now()
		g, err := r.Grants.Get(ctx, userID, warehouseID)
		if err != nil {
			return err
		}
		if g == nil {
			g = &entity.WarehouseGrant{
				ID:          uuid.New().String(),
				UserID:      userID,
				WarehouseID: warehouseID,
				CanView:     canView,
				CanModify:   canModify,
				IsActive:    true,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := r.Grants.Create(ctx, g); err != nil {
				return err
			}
		} else {
			snap := snapshotOf(g)
			old = &snap
			g.Reactivate(canView, canModify, now)
			if err := r.Grants.Update(ctx, g); err != nil {
				return err
			}
		}
		result = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	entry := audit.Entry{
		TableName:   entity.TableWarehouseGrant,
		Action:      entity.AuditGrant,
		RecordID:    userID + "-" + warehouseID,
		Description: fmt.Sprintf("Acceso concedido al usuario %s en la bodega %s (ver=%t, modificar=%t)", userID, warehouseID, canView, canModify),
		UserID:      requesterID,
		NewValues:   snapshotOf(result),
	}
	if old != nil {
		entry.OldValues = *old
	}
	a.audit.Log(ctx, entry)
	return result, nil
}

// RevokeAccess desactiva el grant del par. ErrNotFound si nunca existió.
func (a *Authority) RevokeAccess(ctx context.Context, requesterID, userID, warehouseID string) error {
	var old, revoked grantSnapshot
	err := a.uow.Do(ctx, "revoke_access", nil, func(ctx context.Context, r repository.Repos) error {
		g, err := r.Grants.Get(ctx, userID, warehouseID)
		if err != nil {
			return err
		}
		if g == nil {
			return fmt.Errorf("grant %s-%s: %w", userID, warehouseID, domain.ErrNotFound)
		}
		old = snapshotOf(g)
		g.Deactivate(a.now())
		revoked = snapshotOf(g)
		return r.Grants.Update(ctx, g)
	})
	if err != nil {
		return err
	}
	a.audit.Log(ctx, audit.Entry{
		TableName:   entity.TableWarehouseGrant,
		Action:      entity.AuditRevoke,
		RecordID:    userID + "-" + warehouseID,
		Description: fmt.Sprintf("Acceso revocado al usuario %s en la bodega %s", userID, warehouseID),
		UserID:      requesterID,
		OldValues:   old,
		NewValues:   revoked,
	})
	return nil
}

// ListUserGrants grants activos de un usuario con nombres.
func (a *Authority) ListUserGrants(ctx context.Context, userID string) ([]dto.GrantResponse, error) {
	grants, err := a.repos.Grants.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return a.enrich(ctx, grants)
}

// ListWarehouseGrants grants activos sobre una bodega con nombres.
func (a *Authority) ListWarehouseGrants(ctx context.Context, warehouseID string) ([]dto.GrantResponse, error) {
	grants, err := a.repos.Grants.ListActiveByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	return a.enrich(ctx, grants)
}

func (a *Authority) enrich(ctx context.Context, grants []*entity.WarehouseGrant) ([]dto.GrantResponse, error) {
	users := map[string]string{}
	whs := map[string]string{}
	out := make([]dto.GrantResponse, 0, len(grants))
	for _, g := range grants {
		userName, ok := users[g.UserID]
		if !ok {
			u, err := a.repos.Users.GetByID(ctx, g.UserID)
			if err != nil {
				return nil, err
			}
			userName = "Unknown"
			if u != nil {
				userName = u.FullName()
			}
			users[g.UserID] = userName
		}
		whName, ok := whs[g.WarehouseID]
		if !ok {
			w, err := a.repos.Warehouses.GetByID(ctx, g.WarehouseID)
			if err != nil {
				return nil, err
			}
			whName = "Unknown"
			if w != nil {
				whName = w.Name
			}
			whs[g.WarehouseID] = whName
		}
		out = append(out, dto.GrantResponse{
			ID:            g.ID,
			UserID:        g.UserID,
			UserName:      userName,
			WarehouseID:   g.WarehouseID,
			WarehouseName: whName,
			CanView:       g.CanView,
			CanModify:     g.CanModify,
			IsActive:      g.IsActive,
			UpdatedAt:     g.UpdatedAt,
		})
	}
	return out, nil
}
