package directory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

// GetWarehouse obtiene una bodega por ID; nil si no existe.
func (s *Service) GetWarehouse(ctx context.Context, id string) (*dto.WarehouseResponse, error) {
	w, err := s.repos.Warehouses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toWarehouseResponse(w), nil
}

// AccessibleWarehouses bodegas activas visibles para el usuario.
// Admin y SeniorUser ven todas; el resto, las que tienen un permiso activo de ver o modificar.
func (s *Service) AccessibleWarehouses(ctx context.Context, userID string, role entity.Role) ([]dto.WarehouseResponse, error) {
	all, err := s.repos.Warehouses.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	var allowed map[string]struct{}
	if !role.BypassesGrants() {
		if allowed, err = s.authority.AccessibleWarehouseIDsAs(ctx, userID, role, true); err != nil {
			return nil, err
		}
	}
	out := make([]dto.WarehouseResponse, 0, len(all))
	for _, w := range all {
		if allowed != nil {
			if _, ok := allowed[w.ID]; !ok {
				continue
			}
		}
		out = append(out, *toWarehouseResponse(w))
	}
	return out, nil
}

// DeactivateWarehouse baja lógica; ErrHasActiveStock mientras tenga stock activo mayor a cero.
// La fila de la bodega se bloquea en exclusivo: las mutaciones de stock la leen con bloqueo
// compartido, así ninguna entrada confirma en una bodega ya dada de baja.
func (s *Service) DeactivateWarehouse(ctx context.Context, id, actorID string) error {
	var name string
	err := s.uow.Do(ctx, "deactivate_warehouse", nil, func(ctx context.Context, r repository.Repos) error {
		w, err := r.Warehouses.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if w == nil {
			return fmt.Errorf("bodega %s: %w", id, domain.ErrNotFound)
		}
		busy, err := r.Stocks.HasPositiveInWarehouse(ctx, id)
		if err != nil {
			return err
		}
		if busy {
			return domain.ErrHasActiveStock
		}
		name = w.Name
		w.Deactivate(s.now())
		return r.Warehouses.Update(ctx, w)
	})
	if err != nil {
		return err
	}
	s.audit.Log(ctx, audit.Entry{
		TableName:   entity.TableWarehouse,
		Action:      entity.AuditDelete,
		RecordID:    id,
		Description: "Bodega desactivada: " + name,
		UserID:      actorID,
	})
	return nil
}

// DeactivateBrand baja lógica; ErrHasActiveStock mientras algún producto de la marca tenga stock.
func (s *Service) DeactivateBrand(ctx context.Context, id, actorID string) error {
	var name string
	err := s.uow.Do(ctx, "deactivate_brand", nil, func(ctx context.Context, r repository.Repos) error {
		b, err := r.Brands.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return fmt.Errorf("marca %s: %w", id, domain.ErrNotFound)
		}
		busy, err := r.Stocks.HasPositiveForBrand(ctx, id)
		if err != nil {
			return err
		}
		if busy {
			return domain.ErrHasActiveStock
		}
		name = b.Name
		b.Deactivate(s.now())
		return r.Brands.Update(ctx, b)
	})
	if err != nil {
		return err
	}
	s.audit.Log(ctx, audit.Entry{
		TableName:   entity.TableBrand,
		Action:      entity.AuditDelete,
		RecordID:    id,
		Description: "Marca desactivada: " + name,
		UserID:      actorID,
	})
	return nil
}

func toWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	if w == nil {
		return nil
	}
	return &dto.WarehouseResponse{
		ID:       w.ID,
		Code:     w.Code,
		Name:     w.Name,
		Address:  w.Address,
		IsActive: w.IsActive,
	}
}
