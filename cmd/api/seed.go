package main

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/infrastructure/memory"
)

const (
	demoAdminCode     = "ADMIN-001"
	demoAdminPassword = "admin123"
)

// seedDemo carga un catálogo mínimo para levantar la API sin base de datos.
func seedDemo(store *memory.Store) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(demoAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := time.Now()
	store.SeedUser(&entity.User{
		ID: "demo-admin", FirstName: "Admin", LastName: "Demo", PersonnelCode: demoAdminCode,
		PasswordHash: string(hash), Role: entity.RoleAdmin, IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	store.SeedWarehouse(&entity.Warehouse{ID: "demo-wh-central", Code: "CEN", Name: "Bodega Central", IsActive: true, CreatedAt: now, UpdatedAt: now})
	store.SeedWarehouse(&entity.Warehouse{ID: "demo-wh-norte", Code: "NOR", Name: "Bodega Norte", IsActive: true, CreatedAt: now, UpdatedAt: now})
	store.SeedBrand(&entity.Brand{ID: "demo-brand", Name: "Genérica", IsActive: true, CreatedAt: now, UpdatedAt: now})
	store.SeedProduct(&entity.Product{
		ID: "demo-product", BrandID: "demo-brand", Name: "Tornillo 1/4", PrimaryCode: "TOR-14",
		ReorderPoint: 20, SafetyStock: 5, IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	store.SeedCostCenter(&entity.CostCenter{ID: "demo-cc", Code: "MANT", Name: "Mantenimiento", IsActive: true, CreatedAt: now, UpdatedAt: now})
	return nil
}
