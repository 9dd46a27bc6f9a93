package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/jhoicas/stockledger/internal/infrastructure/memory"
)

func seeded() *memory.Store {
	s := memory.NewStore()
	s.SeedProduct(&entity.Product{ID: "p-1", Name: "Tornillo", BrandID: "b-1", TotalStock: 5, ReorderPoint: 10, IsActive: true})
	s.SeedWarehouse(&entity.Warehouse{ID: "w-1", Name: "Central", IsActive: true})
	s.SeedUser(&entity.User{ID: "u-1", PersonnelCode: "A1", Role: entity.RoleAdmin, IsActive: true})
	return s
}

func newStock(id string, qty int64) *entity.Stock {
	return &entity.Stock{ID: id, ProductID: "p-1", BrandID: "b-1", WarehouseID: "w-1", Quantity: qty, IsActive: true, Version: 1, CreatedAt: time.Now()}
}

// ─── Run / commit ────────────────────────────────────────────────────────────

func TestRun_ErrorDescartaEscrituras(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	err := s.Run(ctx, func(r repository.Repos) error {
		require.NoError(t, r.Stocks.Create(ctx, newStock("s-1", 3)))
		require.NoError(t, r.Products.AddTotalStock(ctx, "p-1", 3))

		// la propia transacción ve sus escrituras
		st, err := r.Stocks.Get(ctx, "p-1", "w-1")
		require.NoError(t, err)
		require.NotNil(t, st)
		p, _ := r.Products.GetByID(ctx, "p-1")
		assert.Equal(t, int64(8), p.TotalStock)
		return errors.New("abortar")
	})
	require.Error(t, err)

	st, err := s.Repos().Stocks.Get(ctx, "p-1", "w-1")
	require.NoError(t, err)
	assert.Nil(t, st)
	p, _ := s.Repos().Products.GetByID(ctx, "p-1")
	assert.Equal(t, int64(5), p.TotalStock)
}

func TestRun_ContextoCancelado(t *testing.T) {
	s := seeded()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := s.Run(ctx, func(repository.Repos) error { called = true; return nil })
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestCommit_DosFilasActivasMismaClaveEsConflicto(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	require.NoError(t, s.Repos().Stocks.Create(ctx, newStock("s-1", 1)))

	err := s.Run(ctx, func(r repository.Repos) error {
		return r.Stocks.Create(ctx, newStock("s-2", 1))
	})
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestCommit_FilaInactivaNoBloqueaNuevaActiva(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	old := newStock("s-1", 0)
	require.NoError(t, s.Repos().Stocks.Create(ctx, old))

	err := s.Run(ctx, func(r repository.Repos) error {
		old.IsActive = false
		if err := r.Stocks.Update(ctx, old); err != nil {
			return err
		}
		return r.Stocks.Create(ctx, newStock("s-2", 4))
	})
	require.NoError(t, err)

	st, err := s.Repos().Stocks.Get(ctx, "p-1", "w-1")
	require.NoError(t, err)
	assert.Equal(t, "s-2", st.ID)
}

func TestCommit_GrantDuplicadoEsConflicto(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	g := &entity.WarehouseGrant{ID: "g-1", UserID: "u-1", WarehouseID: "w-1", CanView: true, IsActive: true}
	require.NoError(t, s.Repos().Grants.Create(ctx, g))

	dup := *g
	dup.ID = "g-2"
	require.ErrorIs(t, s.Repos().Grants.Create(ctx, &dup), domain.ErrConflict)
}

func TestCommit_CodigoPersonalDuplicado(t *testing.T) {
	s := seeded()
	err := s.Repos().Users.Create(context.Background(), &entity.User{ID: "u-2", PersonnelCode: "A1"})
	require.ErrorIs(t, err, domain.ErrDuplicate)
}

// ─── Productos ───────────────────────────────────────────────────────────────

func TestProduct_UpdateNoPisaTotal(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	p, _ := s.Repos().Products.GetByID(ctx, "p-1")
	require.NoError(t, s.Repos().Products.AddTotalStock(ctx, "p-1", 2))

	p.Name = "Tornillo 3/8"
	p.TotalStock = 0
	require.NoError(t, s.Repos().Products.Update(ctx, p))

	got, _ := s.Repos().Products.GetByID(ctx, "p-1")
	assert.Equal(t, "Tornillo 3/8", got.Name)
	assert.Equal(t, int64(7), got.TotalStock)
}

func TestProduct_ListLowStock(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	low, err := s.Repos().Products.ListLowStock(ctx)
	require.NoError(t, err)
	assert.Len(t, low, 1)

	require.NoError(t, s.Repos().Products.SetTotalStock(ctx, "p-1", 11))
	low, err = s.Repos().Products.ListLowStock(ctx)
	require.NoError(t, err)
	assert.Empty(t, low)
}

// ─── Movimientos ─────────────────────────────────────────────────────────────

func TestTransactions_FiltroYPaginacion(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	base := time.Now()
	for i, wh := range []string{"w-1", "w-2", "w-1"} {
		require.NoError(t, s.Repos().Transactions.Create(ctx, &entity.InventoryTransaction{
			ID: wh + string(rune('a'+i)), ProductID: "p-1", WarehouseID: wh, Quantity: 1,
			Type: entity.TransactionIn, CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	rows, err := s.Repos().Transactions.List(ctx, repository.TransactionFilter{WarehouseIDs: []string{"w-1"}})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "w-1c", rows[0].ID)

	none, err := s.Repos().Transactions.List(ctx, repository.TransactionFilter{Restricted: true})
	require.NoError(t, err)
	assert.Empty(t, none)

	page, err := s.Repos().Transactions.List(ctx, repository.TransactionFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "w-2b", page[0].ID)
}
