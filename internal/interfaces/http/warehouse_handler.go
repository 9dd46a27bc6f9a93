package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger/internal/application/directory"
	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/pkg/logger"
)

// WarehouseHandler bodegas y marcas (protegido).
type WarehouseHandler struct {
	dir *directory.Service
	log *logger.Logger
}

// NewWarehouseHandler construye el handler.
func NewWarehouseHandler(dir *directory.Service, log *logger.Logger) *WarehouseHandler {
	return &WarehouseHandler{dir: dir, log: log}
}

// List godoc
// @Summary      Bodegas accesibles para el usuario
// @Tags         warehouses
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ListResponse[dto.WarehouseResponse]
// @Router       /api/warehouses [get]
func (h *WarehouseHandler) List(c *fiber.Ctx) error {
	out, err := h.dir.AccessibleWarehouses(c.UserContext(), GetUserID(c), GetRole(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.WarehouseResponse]{Items: out})
}

// GetByID godoc
// @Summary      Obtener bodega por ID
// @Tags         warehouses
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la bodega"
// @Success      200  {object}  dto.WarehouseResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id} [get]
func (h *WarehouseHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.dir.GetWarehouse(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "bodega no encontrada"})
	}
	return c.JSON(out)
}

// Deactivate baja lógica; 409 HAS_ACTIVE_STOCK si aún tiene existencias.
func (h *WarehouseHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.dir.DeactivateWarehouse(c.UserContext(), c.Params("id"), GetUserID(c)); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeactivateBrand misma regla que las bodegas, sobre los productos de la marca.
func (h *WarehouseHandler) DeactivateBrand(c *fiber.Ctx) error {
	if err := h.dir.DeactivateBrand(c.UserContext(), c.Params("id"), GetUserID(c)); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
