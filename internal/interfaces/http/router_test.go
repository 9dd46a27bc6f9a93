package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stockledger/internal/application/access"
	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/auth"
	"github.com/jhoicas/stockledger/internal/application/directory"
	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/application/unitofwork"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/stockledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/stockledger/pkg/jwt"
	"github.com/jhoicas/stockledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// App completa sobre el store en memoria
// ──────────────────────────────────────────────────────────────────────────────

const testPassword = "secreto123"

var testUsers = map[string]entity.Role{
	"u-admin":   entity.RoleAdmin,
	"u-senior":  entity.RoleSeniorUser,
	"u-swm":     entity.RoleSeniorWarehouseManager,
	"u-manager": entity.RoleWarehouseManager,
	"u-super":   entity.RoleSupervisor,
}

type apiFixture struct {
	app   *fiber.App
	store *memory.Store
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	store := memory.NewStore()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	for id, role := range testUsers {
		store.SeedUser(&entity.User{ID: id, FirstName: "Nombre", LastName: id, PersonnelCode: "C-" + id,
			PasswordHash: string(hash), Role: role, IsActive: true, CreatedAt: time.Now()})
	}
	store.SeedWarehouse(&entity.Warehouse{ID: "w-1", Code: "W1", Name: "Central", IsActive: true})
	store.SeedWarehouse(&entity.Warehouse{ID: "w-2", Code: "W2", Name: "Norte", IsActive: true})
	store.SeedBrand(&entity.Brand{ID: "b-1", Name: "Marca", IsActive: true})
	store.SeedProduct(&entity.Product{ID: "p-1", BrandID: "b-1", Name: "Tornillo", ReorderPoint: 5, IsActive: true})

	log := logger.Nop()
	uow := unitofwork.NewRunner(store, unitofwork.NewLocalKeyLocker(), unitofwork.DefaultConfig(), log)
	rec := audit.NewRecorder(store.Repos().AuditLogs, log, 0)
	authority := access.NewAuthority(uow, store.Repos(), rec)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:    auth.NewAuthUseCase(store.Repos().Users, auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: 60, Issuer: testIssuer}),
		Engine:    inventory.NewEngine(uow, store.Repos(), authority, rec, nil, log),
		Authority: authority,
		Directory: directory.NewService(uow, store.Repos(), authority, rec),
		Audit:     rec,
		JWTSecret: testJWTSecret,
		Log:       log,
	})
	return &apiFixture{app: app, store: store}
}

// call ejecuta la petición como userID (vacío = sin token) y decodifica la respuesta en out si no es nil.
func (f *apiFixture) call(t *testing.T, method, path, userID string, body interface{}, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", bearerFor(t, userID))
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		raw, _ := io.ReadAll(resp.Body)
		if len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, out), string(raw))
		}
	}
	return resp.StatusCode
}

func bearerFor(t *testing.T, userID string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, userID, testUsers[userID].String(), testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func txBody(typ string, qty int64) dto.CreateTransactionRequest {
	return dto.CreateTransactionRequest{ProductID: "p-1", WarehouseID: "w-1", Quantity: qty, Type: typ}
}

// ──────────────────────────────────────────────────────────────────────────────
// Auth
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_CredencialesValidas(t *testing.T) {
	f := newAPI(t)
	var out dto.LoginResponse
	code := f.call(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{PersonnelCode: "C-u-admin", Password: testPassword}, &out)

	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "Admin", out.User.Role)

	userID, role, err := pkgjwt.Parse(testJWTSecret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-admin", userID)
	assert.Equal(t, "Admin", role)
}

func TestLogin_PasswordIncorrecto(t *testing.T) {
	f := newAPI(t)
	var out dto.ErrorResponse
	code := f.call(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{PersonnelCode: "C-u-admin", Password: "otra"}, &out)

	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", out.Code)
}

func TestLogin_BodyIncompleto(t *testing.T) {
	f := newAPI(t)
	var out dto.ErrorResponse
	code := f.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{"personnel_code": "C-u-admin"}, &out)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION", out.Code)
	require.Len(t, out.Fields, 1)
	assert.Equal(t, "password", out.Fields[0].Field)
}

func TestRutasProtegidas_SinToken(t *testing.T) {
	f := newAPI(t)
	assert.Equal(t, http.StatusUnauthorized, f.call(t, http.MethodGet, "/api/transactions", "", nil, nil))
	assert.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/health", "", nil, nil))
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos
// ──────────────────────────────────────────────────────────────────────────────

func TestTransactions_EntradaYSalidaSinStock(t *testing.T) {
	f := newAPI(t)

	var created dto.TransactionResponse
	code := f.call(t, http.MethodPost, "/api/transactions", "u-admin", txBody("In", 5), &created)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "In", created.Type)
	assert.Equal(t, "Tornillo", created.ProductName)
	assert.Equal(t, "Central", created.WarehouseName)

	var errOut dto.ErrorResponse
	code = f.call(t, http.MethodPost, "/api/transactions", "u-admin", txBody("Out", 6), &errOut)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "INSUFFICIENT_STOCK", errOut.Code)

	var got dto.TransactionResponse
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/transactions/"+created.ID, "u-admin", nil, &got))
	assert.Equal(t, int64(5), got.Quantity)
}

func TestTransactions_TipoInvalidoEsValidacion(t *testing.T) {
	f := newAPI(t)
	var out dto.ErrorResponse
	code := f.call(t, http.MethodPost, "/api/transactions", "u-admin", txBody("Lateral", 1), &out)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION", out.Code)
	require.NotEmpty(t, out.Fields)
	assert.Equal(t, "type", out.Fields[0].Field)
}

func TestTransactions_SupervisorNoRegistra(t *testing.T) {
	f := newAPI(t)
	assert.Equal(t, http.StatusForbidden, f.call(t, http.MethodPost, "/api/transactions", "u-super", txBody("In", 1), nil))
}

func TestTransactions_WarehouseManagerConGrant(t *testing.T) {
	f := newAPI(t)

	var out dto.ErrorResponse
	code := f.call(t, http.MethodPost, "/api/transactions", "u-manager", txBody("In", 1), &out)
	require.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", out.Code)

	var grant dto.GrantResponse
	code = f.call(t, http.MethodPost, "/api/access/grants", "u-senior",
		dto.GrantAccessRequest{UserID: "u-manager", WarehouseID: "w-1", CanModify: true}, &grant)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, grant.CanModify)
	assert.Equal(t, "Central", grant.WarehouseName)

	assert.Equal(t, http.StatusCreated, f.call(t, http.MethodPost, "/api/transactions", "u-manager", txBody("In", 1), nil))

	var list dto.ListResponse[dto.TransactionResponse]
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/transactions", "u-manager", nil, &list))
	assert.Len(t, list.Items, 1)

	require.Equal(t, http.StatusForbidden, f.call(t, http.MethodGet, "/api/transactions/warehouse/w-2", "u-manager", nil, nil))
}

// ──────────────────────────────────────────────────────────────────────────────
// Stock
// ──────────────────────────────────────────────────────────────────────────────

func TestStock_AjusteTransferenciaYConsulta(t *testing.T) {
	f := newAPI(t)

	var st dto.StockResponse
	code := f.call(t, http.MethodPost, "/api/stock/adjust", "u-admin",
		dto.AdjustStockRequest{ProductID: "p-1", WarehouseID: "w-1", Quantity: 10, Action: "set", Reason: "conteo"}, &st)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(10), st.Quantity)

	code = f.call(t, http.MethodPost, "/api/stock/transfer", "u-admin",
		dto.TransferStockRequest{ProductID: "p-1", SourceWarehouseID: "w-1", DestinationWarehouseID: "w-2", Quantity: 4}, nil)
	require.Equal(t, http.StatusNoContent, code)

	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/stock/product/p-1/warehouse/w-2", "u-super", nil, &st))
	assert.Equal(t, int64(4), st.Quantity)

	var byProduct dto.ListResponse[dto.StockResponse]
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/stock/product/p-1", "u-super", nil, &byProduct))
	assert.Len(t, byProduct.Items, 2)

	var errOut dto.ErrorResponse
	code = f.call(t, http.MethodPost, "/api/stock/transfer", "u-admin",
		dto.TransferStockRequest{ProductID: "p-1", SourceWarehouseID: "w-1", DestinationWarehouseID: "w-2", Quantity: 100}, &errOut)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "INSUFFICIENT_STOCK", errOut.Code)
}

func TestStock_TransferenciaMismaBodegaEsValidacion(t *testing.T) {
	f := newAPI(t)
	code := f.call(t, http.MethodPost, "/api/stock/transfer", "u-admin",
		dto.TransferStockRequest{ProductID: "p-1", SourceWarehouseID: "w-1", DestinationWarehouseID: "w-1", Quantity: 1}, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStock_SinFilaEs404(t *testing.T) {
	f := newAPI(t)
	var out dto.ErrorResponse
	code := f.call(t, http.MethodGet, "/api/stock/product/p-1/warehouse/w-1", "u-admin", nil, &out)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", out.Code)
}

func TestStock_ReportesSegunRol(t *testing.T) {
	f := newAPI(t)

	var low dto.ListResponse[dto.LowStockProductResponse]
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/stock/reports/low-stock", "u-super", nil, &low))
	require.Len(t, low.Items, 1)
	assert.Equal(t, "p-1", low.Items[0].ProductID)

	assert.Equal(t, http.StatusForbidden, f.call(t, http.MethodGet, "/api/stock/reports/brand-summary", "u-manager", nil, nil))
}

// ──────────────────────────────────────────────────────────────────────────────
// Directorio y bitácora
// ──────────────────────────────────────────────────────────────────────────────

func TestWarehouses_DesactivarConStock(t *testing.T) {
	f := newAPI(t)
	require.Equal(t, http.StatusCreated, f.call(t, http.MethodPost, "/api/transactions", "u-admin", txBody("In", 2), nil))

	var out dto.ErrorResponse
	code := f.call(t, http.MethodDelete, "/api/warehouses/w-1", "u-admin", nil, &out)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "HAS_ACTIVE_STOCK", out.Code)

	assert.Equal(t, http.StatusNoContent, f.call(t, http.MethodDelete, "/api/warehouses/w-2", "u-admin", nil, nil))

	var list dto.ListResponse[dto.WarehouseResponse]
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/warehouses", "u-admin", nil, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "w-1", list.Items[0].ID)
}

func TestUsers_CreacionSegunJerarquia(t *testing.T) {
	f := newAPI(t)
	req := dto.CreateUserRequest{FirstName: "Ana", LastName: "Ruiz", PersonnelCode: "N-1", Password: "clave123", Role: "Admin"}

	var out dto.ErrorResponse
	code := f.call(t, http.MethodPost, "/api/users", "u-swm", req, &out)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", out.Code)

	req.Role = "WarehouseManager"
	var created dto.UserResponse
	require.Equal(t, http.StatusCreated, f.call(t, http.MethodPost, "/api/users", "u-swm", req, &created))
	assert.Equal(t, "WarehouseManager", created.Role)

	code = f.call(t, http.MethodPost, "/api/users", "u-admin", req, &out)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "DUPLICATE", out.Code)

	var visible dto.ListResponse[dto.UserResponse]
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/users", "u-swm", nil, &visible))
	for _, u := range visible.Items {
		assert.Equal(t, "WarehouseManager", u.Role)
	}
	assert.Equal(t, http.StatusNotFound, f.call(t, http.MethodGet, "/api/users/u-admin", "u-swm", nil, nil))
}

func TestAudit_ConsultaYFiltros(t *testing.T) {
	f := newAPI(t)
	require.Equal(t, http.StatusCreated, f.call(t, http.MethodPost, "/api/transactions", "u-admin", txBody("In", 3), nil))
	require.Equal(t, http.StatusOK, f.call(t, http.MethodPost, "/api/stock/adjust", "u-admin",
		dto.AdjustStockRequest{ProductID: "p-1", WarehouseID: "w-1", Quantity: 1, Action: "INCREASE"}, nil))

	var list dto.ListResponse[dto.AuditLogResponse]
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/audit?action=adjust", "u-admin", nil, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "p-1-w-1", list.Items[0].RecordID)
	require.NotNil(t, list.Items[0].NewValues)
	assert.JSONEq(t, `{"quantity":4}`, *list.Items[0].NewValues)
	assert.Equal(t, 1000, list.Limit, "sin limit se informa el tope aplicado")

	var limited dto.ListResponse[dto.AuditLogResponse]
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/audit?limit=1", "u-admin", nil, &limited))
	assert.Len(t, limited.Items, 1)
	assert.Equal(t, 1, limited.Limit)

	var out dto.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, f.call(t, http.MethodGet, "/api/audit?from=ayer", "u-admin", nil, &out))
	assert.Equal(t, http.StatusForbidden, f.call(t, http.MethodGet, "/api/audit", "u-manager", nil, nil))
}
