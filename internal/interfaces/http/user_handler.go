package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger/internal/application/directory"
	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/pkg/logger"
)

// UserHandler gestión de usuarios según la jerarquía de roles.
type UserHandler struct {
	dir *directory.Service
	log *logger.Logger
}

func NewUserHandler(dir *directory.Service, log *logger.Logger) *UserHandler {
	return &UserHandler{dir: dir, log: log}
}

// List usuarios visibles para el rol del solicitante.
func (h *UserHandler) List(c *fiber.Ctx) error {
	out, err := h.dir.VisibleUsers(c.UserContext(), GetUserID(c), GetRole(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.UserResponse]{Items: out})
}

// Me usuario autenticado.
func (h *UserHandler) Me(c *fiber.Ctx) error {
	out, err := h.dir.GetUser(c.UserContext(), GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "usuario no encontrado"})
	}
	return c.JSON(out)
}

// GetByID un usuario; 404 también si existe pero no es visible para el rol.
func (h *UserHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	visible, err := h.dir.VisibleUsers(c.UserContext(), GetUserID(c), GetRole(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	for _, u := range visible {
		if u.ID == id {
			return c.JSON(u)
		}
	}
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "usuario no encontrado"})
}

// Create godoc
// @Summary      Crear usuario
// @Tags         users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateUserRequest  true  "datos del usuario; role según la jerarquía del creador"
// @Success      201   {object}  dto.UserResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/users [post]
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateUserRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.dir.CreateUser(c.UserContext(), GetUserID(c), GetRole(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *UserHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.dir.DeactivateUser(c.UserContext(), c.Params("id"), GetUserID(c)); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UserHandler) Reactivate(c *fiber.Ctx) error {
	if err := h.dir.ReactivateUser(c.UserContext(), c.Params("id"), GetUserID(c)); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
