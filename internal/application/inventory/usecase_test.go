package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger/internal/application/access"
	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/application/unitofwork"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/jhoicas/stockledger/internal/infrastructure/memory"
	"github.com/jhoicas/stockledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	adminID   = "u-admin"
	seniorID  = "u-senior"
	managerID = "u-manager"
	superID   = "u-super"

	p1  = "p-1"
	p2  = "p-2"
	w1  = "w-1"
	w2  = "w-2"
	w3  = "w-3"
	cc1 = "cc-1"
	b1  = "b-1"
)

// recordingPublisher guarda los eventos publicados.
type recordingPublisher struct {
	mu     sync.Mutex
	events []dto.StockEvent
}

func (r *recordingPublisher) Publish(_ context.Context, e dto.StockEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingPublisher) all() []dto.StockEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dto.StockEvent(nil), r.events...)
}

type fixture struct {
	engine *inventory.Engine
	auth   *access.Authority
	store  *memory.Store
	events *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	now := time.Now()
	for id, role := range map[string]entity.Role{
		adminID:   entity.RoleAdmin,
		seniorID:  entity.RoleSeniorUser,
		managerID: entity.RoleWarehouseManager,
		superID:   entity.RoleSupervisor,
	} {
		store.SeedUser(&entity.User{ID: id, FirstName: "Nombre", LastName: id, PersonnelCode: id, Role: role, IsActive: true, CreatedAt: now})
	}
	for _, id := range []string{w1, w2, w3} {
		store.SeedWarehouse(&entity.Warehouse{ID: id, Code: id, Name: "Bodega " + id, IsActive: true})
	}
	store.SeedBrand(&entity.Brand{ID: b1, Name: "Marca 1", IsActive: true})
	store.SeedProduct(&entity.Product{ID: p1, BrandID: b1, Name: "Tornillo", PrimaryCode: "T-1", ReorderPoint: 5, SafetyStock: 2, IsActive: true})
	store.SeedProduct(&entity.Product{ID: p2, BrandID: b1, Name: "Tuerca", PrimaryCode: "T-2", ReorderPoint: 0, IsActive: true})
	store.SeedCostCenter(&entity.CostCenter{ID: cc1, Code: "CC1", Name: "Mantenimiento", IsActive: true})

	log := logger.Nop()
	uow := unitofwork.NewRunner(store, unitofwork.NewLocalKeyLocker(), unitofwork.DefaultConfig(), log)
	rec := audit.NewRecorder(store.Repos().AuditLogs, log, 0)
	auth := access.NewAuthority(uow, store.Repos(), rec)
	events := &recordingPublisher{}
	engine := inventory.NewEngine(uow, store.Repos(), auth, rec, events, log)
	return &fixture{engine: engine, auth: auth, store: store, events: events}
}

func (f *fixture) quantity(t *testing.T, productID, warehouseID string) (int64, bool) {
	t.Helper()
	st, err := f.store.Repos().Stocks.Get(context.Background(), productID, warehouseID)
	require.NoError(t, err)
	if st == nil {
		return 0, false
	}
	return st.Quantity, true
}

func (f *fixture) totalStock(t *testing.T, productID string) int64 {
	t.Helper()
	p, err := f.store.Repos().Products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	return p.TotalStock
}

func (f *fixture) audits(t *testing.T, action entity.AuditAction) []*entity.AuditLog {
	t.Helper()
	rows, err := f.store.Repos().AuditLogs.List(context.Background(), repository.AuditFilter{Action: action})
	require.NoError(t, err)
	return rows
}

func (f *fixture) transactionCount(t *testing.T) int {
	t.Helper()
	rows, err := f.store.Repos().Transactions.List(context.Background(), repository.TransactionFilter{})
	require.NoError(t, err)
	return len(rows)
}

func (f *fixture) adjust(t *testing.T, productID, warehouseID, action string, qty int64) (*dto.StockResponse, error) {
	t.Helper()
	return f.engine.AdjustStock(context.Background(), dto.AdjustStockRequest{
		ProductID: productID, WarehouseID: warehouseID, Action: action, Quantity: qty, Reason: "conteo",
	}, adminID)
}

func txIn(productID, warehouseID string, qty int64) dto.CreateTransactionRequest {
	return dto.CreateTransactionRequest{ProductID: productID, WarehouseID: warehouseID, Quantity: qty, Type: "In"}
}

func txOut(productID, warehouseID string, qty int64) dto.CreateTransactionRequest {
	return dto.CreateTransactionRequest{ProductID: productID, WarehouseID: warehouseID, Quantity: qty, Type: "Out"}
}

// ──────────────────────────────────────────────────────────────────────────────
// CreateTransaction
// ──────────────────────────────────────────────────────────────────────────────

// Salida sin fila de stock: falla sin crear movimiento ni stock.
func TestCreateTransaction_SalidaSinStock(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.CreateTransaction(context.Background(), txOut(p1, w1, 10), adminID, entity.RoleAdmin)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, exists := f.quantity(t, p1, w1)
	assert.False(t, exists)
	assert.Zero(t, f.transactionCount(t))
	assert.Empty(t, f.events.all())
}

// SeniorUser no necesita grant.
func TestCreateTransaction_SeniorUserSinGrant(t *testing.T) {
	f := newFixture(t)

	resp, err := f.engine.CreateTransaction(context.Background(), txIn(p1, w3, 4), seniorID, entity.RoleSeniorUser)
	require.NoError(t, err)
	assert.Equal(t, int64(4), resp.Quantity)

	qty, _ := f.quantity(t, p1, w3)
	assert.Equal(t, int64(4), qty)
}

func TestCreateTransaction_WarehouseManagerRequiereModificar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.CreateTransaction(ctx, txIn(p1, w1, 1), managerID, entity.RoleWarehouseManager)
	require.ErrorIs(t, err, domain.ErrForbidden, "sin grant")

	_, err = f.auth.GrantAccess(ctx, adminID, managerID, w1, true, false)
	require.NoError(t, err)
	_, err = f.engine.CreateTransaction(ctx, txIn(p1, w1, 1), managerID, entity.RoleWarehouseManager)
	require.ErrorIs(t, err, domain.ErrForbidden, "solo ver no alcanza")

	_, err = f.auth.GrantAccess(ctx, adminID, managerID, w1, true, true)
	require.NoError(t, err)
	_, err = f.engine.CreateTransaction(ctx, txIn(p1, w1, 1), managerID, entity.RoleWarehouseManager)
	require.NoError(t, err)
	assert.Equal(t, 1, f.transactionCount(t))
}

func TestCreateTransaction_TipoInvalido(t *testing.T) {
	f := newFixture(t)
	req := txIn(p1, w1, 1)
	req.Type = "Transfer"

	_, err := f.engine.CreateTransaction(context.Background(), req, adminID, entity.RoleAdmin)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, f.transactionCount(t))
}

func TestCreateTransaction_ReferenciasInexistentes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.CreateTransaction(ctx, txIn("p-x", w1, 1), adminID, entity.RoleAdmin)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.engine.CreateTransaction(ctx, txIn(p1, "w-x", 1), adminID, entity.RoleAdmin)
	require.ErrorIs(t, err, domain.ErrNotFound)

	req := txOut(p1, w1, 1)
	missing := "cc-x"
	req.CostCenterID = &missing
	_, err = f.engine.CreateTransaction(ctx, req, adminID, entity.RoleAdmin)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateTransaction_EntradaYSalidaEnriquecidas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.CreateTransaction(ctx, txIn(p1, w1, 10), adminID, entity.RoleAdmin)
	require.NoError(t, err)

	out := txOut(p1, w1, 3)
	cc := cc1
	out.CostCenterID = &cc
	out.Note = "consumo"
	resp, err := f.engine.CreateTransaction(ctx, out, superID, entity.RoleSupervisor)
	require.NoError(t, err)

	assert.Equal(t, "Out", resp.Type)
	assert.Equal(t, "Tornillo", resp.ProductName)
	assert.Equal(t, "Bodega "+w1, resp.WarehouseName)
	assert.Equal(t, "Mantenimiento", resp.CostCenterName)
	assert.Equal(t, "Nombre "+superID, resp.UserName)

	qty, _ := f.quantity(t, p1, w1)
	assert.Equal(t, int64(7), qty)
	assert.Equal(t, int64(7), f.totalStock(t, p1))
	assert.Len(t, f.audits(t, entity.AuditCreate), 2)
}

func TestCreateTransaction_SalidaMayorAlStockNoMuta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.CreateTransaction(ctx, txIn(p1, w1, 2), adminID, entity.RoleAdmin)
	require.NoError(t, err)

	_, err = f.engine.CreateTransaction(ctx, txOut(p1, w1, 3), adminID, entity.RoleAdmin)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	qty, _ := f.quantity(t, p1, w1)
	assert.Equal(t, int64(2), qty)
	assert.Equal(t, 1, f.transactionCount(t))
}

// ──────────────────────────────────────────────────────────────────────────────
// AdjustStock
// ──────────────────────────────────────────────────────────────────────────────

// SET crea la fila; un DECREASE mayor falla y deja la cantidad intacta.
func TestAdjustStock_SetLuegoDecreaseExcesivo(t *testing.T) {
	f := newFixture(t)

	resp, err := f.adjust(t, p1, w1, "SET", 20)
	require.NoError(t, err)
	assert.Equal(t, int64(20), resp.Quantity)

	_, err = f.adjust(t, p1, w1, "DECREASE", 25)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	qty, _ := f.quantity(t, p1, w1)
	assert.Equal(t, int64(20), qty)
	assert.Equal(t, int64(20), f.totalStock(t, p1))
	assert.Len(t, f.audits(t, entity.AuditAdjust), 1, "el ajuste fallido no se audita")
}

func TestAdjustStock_IncreaseDecreaseVuelveAlOriginal(t *testing.T) {
	f := newFixture(t)
	_, err := f.adjust(t, p1, w1, "SET", 8)
	require.NoError(t, err)

	_, err = f.adjust(t, p1, w1, "INCREASE", 5)
	require.NoError(t, err)
	resp, err := f.adjust(t, p1, w1, "decrease", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(8), resp.Quantity)

	entries := f.audits(t, entity.AuditAdjust)
	require.Len(t, entries, 3)
	// Más reciente primero: DECREASE 13 -> 8, luego INCREASE 8 -> 13
	assert.JSONEq(t, `{"quantity":13}`, *entries[0].OldValues)
	assert.JSONEq(t, `{"quantity":8}`, *entries[0].NewValues)
	assert.JSONEq(t, `{"quantity":8}`, *entries[1].OldValues)
	assert.JSONEq(t, `{"quantity":13}`, *entries[1].NewValues)
	assert.Equal(t, p1+"-"+w1, entries[0].RecordID)
}

func TestAdjustStock_DecreaseSinFila(t *testing.T) {
	f := newFixture(t)
	_, err := f.adjust(t, p1, w1, "DECREASE", 1)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	_, exists := f.quantity(t, p1, w1)
	assert.False(t, exists)
}

func TestAdjustStock_AccionOCantidadInvalida(t *testing.T) {
	f := newFixture(t)
	_, err := f.adjust(t, p1, w1, "MULTIPLY", 2)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.adjust(t, p1, w1, "INCREASE", 0)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.adjust(t, p1, w1, "SET", -1)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAdjustStock_FalloDeBitacoraNoFallaElAjuste(t *testing.T) {
	f := newFixture(t)
	f.store.FailAuditWrites(errors.New("bitácora caída"))

	resp, err := f.adjust(t, p1, w1, "INCREASE", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Quantity)

	f.store.FailAuditWrites(nil)
	assert.Empty(t, f.audits(t, entity.AuditAdjust))
}

// N incrementos concurrentes de +1 desde cero terminan exactamente en N.
func TestAdjustStock_IncrementosConcurrentesSinPerdidas(t *testing.T) {
	f := newFixture(t)
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.AdjustStock(context.Background(), dto.AdjustStockRequest{
				ProductID: p1, WarehouseID: w1, Action: "INCREASE", Quantity: 1,
			}, adminID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	qty, _ := f.quantity(t, p1, w1)
	assert.Equal(t, int64(n), qty)
	assert.Equal(t, int64(n), f.totalStock(t, p1))
	assert.Len(t, f.audits(t, entity.AuditAdjust), n)
}

func TestAdjustStock_DecrementosConcurrentesNuncaNegativos(t *testing.T) {
	f := newFixture(t)
	_, err := f.adjust(t, p1, w1, "SET", 10)
	require.NoError(t, err)

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.AdjustStock(context.Background(), dto.AdjustStockRequest{
				ProductID: p1, WarehouseID: w1, Action: "DECREASE", Quantity: 1,
			}, adminID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, domain.ErrInsufficientStock) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 10, rejected)
	qty, _ := f.quantity(t, p1, w1)
	assert.Zero(t, qty)
}

func TestAdjustStock_TotalSumaVariasBodegas(t *testing.T) {
	f := newFixture(t)
	var wg sync.WaitGroup
	for _, wh := range []string{w1, w2, w3} {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(wh string) {
				defer wg.Done()
				_, err := f.engine.AdjustStock(context.Background(), dto.AdjustStockRequest{
					ProductID: p1, WarehouseID: wh, Action: "INCREASE", Quantity: 2,
				}, adminID)
				assert.NoError(t, err)
			}(wh)
		}
	}
	wg.Wait()
	assert.Equal(t, int64(60), f.totalStock(t, p1))
}

func TestAdjustStock_ContextoCanceladoNoMuta(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.engine.AdjustStock(ctx, dto.AdjustStockRequest{ProductID: p1, WarehouseID: w1, Action: "INCREASE", Quantity: 1}, adminID)
	require.Error(t, err)
	_, exists := f.quantity(t, p1, w1)
	assert.False(t, exists)
}

// ──────────────────────────────────────────────────────────────────────────────
// TransferStock
// ──────────────────────────────────────────────────────────────────────────────

func transfer(productID, from, to string, qty int64) dto.TransferStockRequest {
	return dto.TransferStockRequest{ProductID: productID, SourceWarehouseID: from, DestinationWarehouseID: to, Quantity: qty, Reason: "reubicación"}
}

func TestTransferStock_InsuficienteNoTocaDestino(t *testing.T) {
	f := newFixture(t)
	_, err := f.adjust(t, p1, w1, "SET", 3)
	require.NoError(t, err)
	_, err = f.adjust(t, p1, w2, "SET", 7)
	require.NoError(t, err)

	err = f.engine.TransferStock(context.Background(), transfer(p1, w1, w2, 4), adminID)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	src, _ := f.quantity(t, p1, w1)
	dst, _ := f.quantity(t, p1, w2)
	assert.Equal(t, int64(3), src)
	assert.Equal(t, int64(7), dst)
	assert.Empty(t, f.audits(t, entity.AuditTransfer))
}

func TestTransferStock_SinFilaOrigenNoCreaDestino(t *testing.T) {
	f := newFixture(t)
	err := f.engine.TransferStock(context.Background(), transfer(p1, w1, w2, 1), adminID)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	_, exists := f.quantity(t, p1, w2)
	assert.False(t, exists)
}

func TestTransferStock_MueveYConservaTotal(t *testing.T) {
	f := newFixture(t)
	_, err := f.adjust(t, p1, w1, "SET", 10)
	require.NoError(t, err)

	require.NoError(t, f.engine.TransferStock(context.Background(), transfer(p1, w1, w2, 4), adminID))

	src, _ := f.quantity(t, p1, w1)
	dst, _ := f.quantity(t, p1, w2)
	assert.Equal(t, int64(6), src)
	assert.Equal(t, int64(4), dst)
	assert.Equal(t, int64(10), f.totalStock(t, p1))

	entries := f.audits(t, entity.AuditTransfer)
	require.Len(t, entries, 1)
	assert.Equal(t, p1, entries[0].RecordID)
	assert.JSONEq(t, `{"source_quantity":6,"destination_quantity":4}`, *entries[0].NewValues)
}

func TestTransferStock_MismaBodegaInvalida(t *testing.T) {
	f := newFixture(t)
	err := f.engine.TransferStock(context.Background(), transfer(p1, w1, w1, 1), adminID)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Transferencias cruzadas en ambos sentidos no se bloquean entre sí y conservan el total.
func TestTransferStock_CruzadasSinDeadlock(t *testing.T) {
	f := newFixture(t)
	_, err := f.adjust(t, p1, w1, "SET", 100)
	require.NoError(t, err)
	_, err = f.adjust(t, p1, w2, "SET", 100)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				assert.NoError(t, f.engine.TransferStock(context.Background(), transfer(p1, w1, w2, 1), adminID))
			}()
			go func() {
				defer wg.Done()
				assert.NoError(t, f.engine.TransferStock(context.Background(), transfer(p1, w2, w1, 1), adminID))
			}()
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("las transferencias cruzadas no terminaron")
	}
	src, _ := f.quantity(t, p1, w1)
	dst, _ := f.quantity(t, p1, w2)
	assert.Equal(t, int64(200), src+dst)
	assert.Equal(t, int64(200), f.totalStock(t, p1))
}

func TestTransferStock_PublicaAmbosLados(t *testing.T) {
	f := newFixture(t)
	_, err := f.adjust(t, p1, w1, "SET", 5)
	require.NoError(t, err)
	require.NoError(t, f.engine.TransferStock(context.Background(), transfer(p1, w1, w2, 2), adminID))

	events := f.events.all()
	require.Len(t, events, 3)
	assert.Equal(t, "TRANSFER", events[1].Kind)
	assert.Equal(t, int64(-2), events[1].Delta)
	assert.Equal(t, int64(2), events[2].Delta)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestConsultas_WarehouseManagerFiltrado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.CreateTransaction(ctx, txIn(p1, w1, 1), adminID, entity.RoleAdmin)
	require.NoError(t, err)
	_, err = f.engine.CreateTransaction(ctx, txIn(p1, w2, 1), adminID, entity.RoleAdmin)
	require.NoError(t, err)
	_, err = f.auth.GrantAccess(ctx, adminID, managerID, w1, true, false)
	require.NoError(t, err)

	mine, err := f.engine.GetUserAccessibleTransactions(ctx, managerID, entity.RoleWarehouseManager, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, w1, mine[0].WarehouseID)

	_, err = f.engine.GetTransactionsByWarehouse(ctx, w2, managerID, entity.RoleWarehouseManager, dto.PageRequest{})
	require.ErrorIs(t, err, domain.ErrForbidden)

	byProduct, err := f.engine.GetTransactionsByProduct(ctx, p1, managerID, entity.RoleWarehouseManager, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, byProduct, 1)

	// Supervisor no se filtra
	all, err := f.engine.GetUserAccessibleTransactions(ctx, superID, entity.RoleSupervisor, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestConsultas_WarehouseManagerSinGrantsNoVeNada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.engine.CreateTransaction(ctx, txIn(p1, w1, 1), adminID, entity.RoleAdmin)
	require.NoError(t, err)

	rows, err := f.engine.GetUserAccessibleTransactions(ctx, managerID, entity.RoleWarehouseManager, dto.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = f.engine.GetTransactionByID(ctx, created.ID, managerID, entity.RoleWarehouseManager)
	require.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.engine.GetTransactionByID(ctx, created.ID, adminID, entity.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestConsultas_StockYBajoStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.adjust(t, p1, w1, "SET", 3)
	require.NoError(t, err)
	_, err = f.adjust(t, p2, w1, "SET", 9)
	require.NoError(t, err)

	st, err := f.engine.GetStock(ctx, p1, w1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.Quantity)
	assert.Equal(t, "Tornillo", st.ProductName)

	_, err = f.engine.GetStock(ctx, p1, w2)
	require.ErrorIs(t, err, domain.ErrNotFound)

	byWh, err := f.engine.GetStocksByWarehouse(ctx, w1)
	require.NoError(t, err)
	assert.Len(t, byWh, 2)

	low, err := f.engine.GetLowStockProducts(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, p1, low[0].ProductID)

	summary, err := f.engine.GetBrandStockSummary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, 2, summary[0].TotalProducts)
	assert.Equal(t, int64(12), summary[0].TotalStock)
	assert.Equal(t, 1, summary[0].LowStockProducts)
}

// ──────────────────────────────────────────────────────────────────────────────
// Mantenimiento
// ──────────────────────────────────────────────────────────────────────────────

func TestDeactivateStock_SoloEnCero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.adjust(t, p1, w1, "SET", 2)
	require.NoError(t, err)

	require.ErrorIs(t, f.engine.DeactivateStock(ctx, p1, w1, adminID), domain.ErrHasActiveStock)

	_, err = f.adjust(t, p1, w1, "SET", 0)
	require.NoError(t, err)
	require.NoError(t, f.engine.DeactivateStock(ctx, p1, w1, adminID))

	_, exists := f.quantity(t, p1, w1)
	assert.False(t, exists)

	// Una nueva entrada crea otra fila activa
	_, err = f.adjust(t, p1, w1, "INCREASE", 1)
	require.NoError(t, err)
	stocks, err := f.engine.GetStocksByProduct(ctx, p1)
	require.NoError(t, err)
	assert.Len(t, stocks, 1)
}

func TestRebuildTotals_CorrigeDesvios(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.adjust(t, p1, w1, "SET", 4)
	require.NoError(t, err)
	require.NoError(t, f.store.Repos().Products.SetTotalStock(ctx, p1, 99))

	changed, err := f.engine.RebuildTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, int64(4), f.totalStock(t, p1))
}

func TestRecomputeTotal_AjusteConfirmadoEnMedioNoSePierde(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.adjust(t, p1, w1, "SET", 10)
	require.NoError(t, err)

	// El recálculo suma 10; antes de su commit se confirma un +5 en la misma clave
	err = f.store.Run(ctx, func(r repository.Repos) error {
		total, err := inventory.NewStockStore(r, nil).RecomputeTotal(ctx, p1)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(10), total)
		if _, err := f.adjust(t, p1, w1, "INCREASE", 5); err != nil {
			return err
		}
		return nil
	})
	require.ErrorIs(t, err, domain.ErrConflict)

	qty, _ := f.quantity(t, p1, w1)
	assert.Equal(t, int64(15), qty)
	assert.Equal(t, int64(15), f.totalStock(t, p1))
}

func TestRebuildTotals_ConAjustesConcurrentesCuadra(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.adjust(t, p1, w1, "SET", 1)
	require.NoError(t, err)

	const n = 40
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			wh := w1
			if i%2 == 1 {
				wh = w2
			}
			_, err := f.engine.AdjustStock(ctx, dto.AdjustStockRequest{ProductID: p1, WarehouseID: wh, Quantity: 1, Action: "INCREASE"}, adminID)
			errs <- err
		}(i)
	}
	for i := 0; i < 10; i++ {
		if _, err := f.engine.RebuildTotals(ctx); err != nil {
			require.ErrorIs(t, err, domain.ErrConflict)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	q1, _ := f.quantity(t, p1, w1)
	q2, _ := f.quantity(t, p1, w2)
	assert.Equal(t, int64(n+1), q1+q2)
	assert.Equal(t, q1+q2, f.totalStock(t, p1))
}

// ──────────────────────────────────────────────────────────────────────────────
// Bajas de bodega / marca concurrentes con mutaciones
// ──────────────────────────────────────────────────────────────────────────────

func (f *fixture) deactivateWarehouse(t *testing.T, id string) error {
	t.Helper()
	return f.store.Run(context.Background(), func(r repository.Repos) error {
		w, err := r.Warehouses.GetForUpdate(context.Background(), id)
		if err != nil {
			return err
		}
		w.Deactivate(time.Now())
		return r.Warehouses.Update(context.Background(), w)
	})
}

func TestApplyDelta_BajaDeBodegaEnMedioNoDejaStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Entrada en curso; la baja de la bodega confirma antes que ella
	err := f.store.Run(ctx, func(r repository.Repos) error {
		if _, err := inventory.NewStockStore(r, nil).ApplyDelta(ctx, p1, w1, 3); err != nil {
			return err
		}
		return f.deactivateWarehouse(t, w1)
	})
	require.ErrorIs(t, err, domain.ErrConflict)

	_, exists := f.quantity(t, p1, w1)
	assert.False(t, exists)
	assert.Equal(t, int64(0), f.totalStock(t, p1))

	// El reintento ya ve la bodega inactiva dentro de la unidad
	err = f.store.Run(ctx, func(r repository.Repos) error {
		_, err := inventory.NewStockStore(r, nil).ApplyDelta(ctx, p1, w1, 3)
		return err
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeactivateWarehouse_EntradaConfirmadaEnMedioLaBloquea(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.store.Run(ctx, func(r repository.Repos) error {
		w, err := r.Warehouses.GetForUpdate(ctx, w1)
		if err != nil {
			return err
		}
		busy, err := r.Stocks.HasPositiveInWarehouse(ctx, w1)
		if err != nil {
			return err
		}
		assert.False(t, busy)
		if _, err := f.adjust(t, p1, w1, "INCREASE", 2); err != nil {
			return err
		}
		w.Deactivate(time.Now())
		return r.Warehouses.Update(ctx, w)
	})
	require.ErrorIs(t, err, domain.ErrConflict)

	w, err := f.store.Repos().Warehouses.GetByID(ctx, w1)
	require.NoError(t, err)
	assert.True(t, w.IsActive)
	qty, _ := f.quantity(t, p1, w1)
	assert.Equal(t, int64(2), qty)
}

func TestApplyDelta_BajaDeMarcaEnMedioNoDejaStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.store.Run(ctx, func(r repository.Repos) error {
		if _, err := inventory.NewStockStore(r, nil).ApplyDelta(ctx, p1, w1, 3); err != nil {
			return err
		}
		return f.store.Run(ctx, func(r2 repository.Repos) error {
			b, err := r2.Brands.GetForUpdate(ctx, b1)
			if err != nil {
				return err
			}
			b.Deactivate(time.Now())
			return r2.Brands.Update(ctx, b)
		})
	})
	require.ErrorIs(t, err, domain.ErrConflict)
	_, exists := f.quantity(t, p1, w1)
	assert.False(t, exists)

	_, err = f.adjust(t, p1, w1, "INCREASE", 1)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
