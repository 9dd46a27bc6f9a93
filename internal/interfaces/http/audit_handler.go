package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/jhoicas/stockledger/pkg/logger"
)

// AuditHandler consulta de la bitácora.
type AuditHandler struct {
	recorder *audit.Recorder
	log      *logger.Logger
}

func NewAuditHandler(recorder *audit.Recorder, log *logger.Logger) *AuditHandler {
	return &AuditHandler{recorder: recorder, log: log}
}

// Query godoc
// @Summary      Consultar bitácora
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        from        query  string  false  "RFC3339"
// @Param        to          query  string  false  "RFC3339"
// @Param        table_name  query  string  false  "Stock, InventoryTransaction, ..."
// @Param        action      query  string  false  "CREATE, UPDATE, DELETE, ADJUST, TRANSFER, GRANT, REVOKE"
// @Param        user_id     query  string  false  "usuario que ejecutó la acción"
// @Param        limit       query  int     false  "máximo de filas; 1000 por defecto y como tope"
// @Success      200  {object}  dto.ListResponse[dto.AuditLogResponse]
// @Router       /api/audit [get]
func (h *AuditHandler) Query(c *fiber.Ctx) error {
	f := repository.AuditFilter{
		TableName: c.Query("table_name"),
		Action:    entity.AuditAction(strings.ToUpper(c.Query("action"))),
		UserID:    c.Query("user_id"),
		Limit:     c.QueryInt("limit", 0),
	}
	var ok bool
	if f.From, ok = queryTime(c, "from"); !ok {
		return invalidTime(c, "from")
	}
	if f.To, ok = queryTime(c, "to"); !ok {
		return invalidTime(c, "to")
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from debe ser anterior a to"})
	}

	logs, err := h.recorder.Query(c.UserContext(), f)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, dto.AuditLogResponse{
			ID:          l.ID,
			TableName:   l.TableName,
			Action:      string(l.Action),
			RecordID:    l.RecordID,
			Description: l.Description,
			OldValues:   l.OldValues,
			NewValues:   l.NewValues,
			UserID:      l.UserID,
			CreatedAt:   l.CreatedAt,
		})
	}
	// limit informa el tope aplicado: len(items) == limit indica que puede haber más
	return c.JSON(dto.ListResponse[dto.AuditLogResponse]{Items: out, Limit: audit.EffectiveLimit(f.Limit)})
}

// queryTime lee un parámetro RFC3339 opcional; false si viene con formato inválido.
func queryTime(c *fiber.Ctx, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}

func invalidTime(c *fiber.Ctx, key string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Code:    "VALIDATION",
		Message: key + " debe tener formato RFC3339",
		Fields:  []dto.FieldError{{Field: key, Tag: "rfc3339"}},
	})
}
