package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/pkg/logger"
)

// StockHandler consultas y mutaciones manuales de stock.
type StockHandler struct {
	engine *inventory.Engine
	log    *logger.Logger
}

func NewStockHandler(engine *inventory.Engine, log *logger.Logger) *StockHandler {
	return &StockHandler{engine: engine, log: log}
}

// Adjust godoc
// @Summary      Ajuste manual de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "action: INCREASE | DECREASE | SET"
// @Success      200   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/adjust [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.engine.AdjustStock(c.UserContext(), in, GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Transfer godoc
// @Summary      Transferir stock entre bodegas
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Param        body  body  dto.TransferStockRequest  true  "origen, destino y cantidad"
// @Success      204
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/transfer [post]
func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferStockRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	if err := h.engine.TransferStock(c.UserContext(), in, GetUserID(c)); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Get stock de un producto en una bodega.
func (h *StockHandler) Get(c *fiber.Ctx) error {
	out, err := h.engine.GetStock(c.UserContext(), c.Params("productId"), c.Params("warehouseId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

func (h *StockHandler) ByWarehouse(c *fiber.Ctx) error {
	out, err := h.engine.GetStocksByWarehouse(c.UserContext(), c.Params("warehouseId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.StockResponse]{Items: out})
}

func (h *StockHandler) ByProduct(c *fiber.Ctx) error {
	out, err := h.engine.GetStocksByProduct(c.UserContext(), c.Params("productId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.StockResponse]{Items: out})
}

func (h *StockHandler) LowStock(c *fiber.Ctx) error {
	out, err := h.engine.GetLowStockProducts(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.LowStockProductResponse]{Items: out})
}

func (h *StockHandler) BrandSummary(c *fiber.Ctx) error {
	out, err := h.engine.GetBrandStockSummary(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.BrandStockSummaryResponse]{Items: out})
}

// Deactivate baja lógica de la fila; solo con cantidad cero.
func (h *StockHandler) Deactivate(c *fiber.Ctx) error {
	err := h.engine.DeactivateStock(c.UserContext(), c.Params("productId"), c.Params("warehouseId"), GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RebuildTotals recalcula Product.TotalStock desde las filas activas.
func (h *StockHandler) RebuildTotals(c *fiber.Ctx) error {
	fixed, err := h.engine.RebuildTotals(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"corrected": fixed})
}
