package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/pkg/logger"
)

// TransactionHandler movimientos de entrada/salida (protegido).
type TransactionHandler struct {
	engine *inventory.Engine
	log    *logger.Logger
}

// NewTransactionHandler construye el handler.
func NewTransactionHandler(engine *inventory.Engine, log *logger.Logger) *TransactionHandler {
	return &TransactionHandler{engine: engine, log: log}
}

// Create godoc
// @Summary      Registrar movimiento de inventario
// @Tags         transactions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransactionRequest  true  "product_id, warehouse_id, quantity, type (In|Out), cost_center_id, note"
// @Success      201   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transactions [post]
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateTransactionRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.engine.CreateTransaction(c.UserContext(), in, userID, GetRole(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener movimiento por ID
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.TransactionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id} [get]
func (h *TransactionHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.engine.GetTransactionByID(c.UserContext(), c.Params("id"), GetUserID(c), GetRole(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// List movimientos visibles para el usuario; ?product_id= filtra por producto.
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	p := page(c)
	var (
		out []dto.TransactionResponse
		err error
	)
	if productID := c.Query("product_id"); productID != "" {
		out, err = h.engine.GetTransactionsByProduct(c.UserContext(), productID, GetUserID(c), GetRole(c), p)
	} else {
		out, err = h.engine.GetUserAccessibleTransactions(c.UserContext(), GetUserID(c), GetRole(c), p)
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.TransactionResponse]{Items: out, Limit: p.Limit, Offset: p.Offset})
}

// ListByWarehouse movimientos de una bodega.
func (h *TransactionHandler) ListByWarehouse(c *fiber.Ctx) error {
	p := page(c)
	out, err := h.engine.GetTransactionsByWarehouse(c.UserContext(), c.Params("warehouseId"), GetUserID(c), GetRole(c), p)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.TransactionResponse]{Items: out, Limit: p.Limit, Offset: p.Offset})
}
