package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger/internal/application/access"
	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/pkg/logger"
)

// AccessHandler permisos de usuarios sobre bodegas.
type AccessHandler struct {
	authority *access.Authority
	log       *logger.Logger
}

func NewAccessHandler(authority *access.Authority, log *logger.Logger) *AccessHandler {
	return &AccessHandler{authority: authority, log: log}
}

// Grant godoc
// @Summary      Otorgar o actualizar permiso sobre una bodega
// @Tags         access
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.GrantAccessRequest  true  "user_id, warehouse_id, can_view, can_modify"
// @Success      200   {object}  dto.GrantResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/access/grants [post]
func (h *AccessHandler) Grant(c *fiber.Ctx) error {
	var in dto.GrantAccessRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	ctx := c.UserContext()
	g, err := h.authority.GrantAccess(ctx, GetUserID(c), in.UserID, in.WarehouseID, in.CanView, in.CanModify)
	if err != nil {
		return writeError(c, h.log, err)
	}
	grants, err := h.authority.ListUserGrants(ctx, in.UserID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	for _, resp := range grants {
		if resp.ID == g.ID {
			return c.JSON(resp)
		}
	}
	return c.JSON(dto.GrantResponse{
		ID: g.ID, UserID: g.UserID, WarehouseID: g.WarehouseID,
		CanView: g.CanView, CanModify: g.CanModify, IsActive: g.IsActive, UpdatedAt: g.UpdatedAt,
	})
}

// Revoke desactiva el permiso del par usuario/bodega.
func (h *AccessHandler) Revoke(c *fiber.Ctx) error {
	err := h.authority.RevokeAccess(c.UserContext(), GetUserID(c), c.Params("userId"), c.Params("warehouseId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AccessHandler) ListByUser(c *fiber.Ctx) error {
	out, err := h.authority.ListUserGrants(c.UserContext(), c.Params("userId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.GrantResponse]{Items: out})
}

func (h *AccessHandler) ListByWarehouse(c *fiber.Ctx) error {
	out, err := h.authority.ListWarehouseGrants(c.UserContext(), c.Params("warehouseId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.GrantResponse]{Items: out})
}

// Check responde si el usuario autenticado puede ver y modificar la bodega.
func (h *AccessHandler) Check(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, role, warehouseID := GetUserID(c), GetRole(c), c.Params("warehouseId")
	canView, err := h.authority.CanViewAs(ctx, userID, role, warehouseID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	canModify, err := h.authority.CanModifyAs(ctx, userID, role, warehouseID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"warehouse_id": warehouseID, "can_view": canView, "can_modify": canModify})
}
