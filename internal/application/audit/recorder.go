// Package audit registra la bitácora append-only de mutaciones.
// Un fallo al escribir la bitácora nunca se propaga al llamador: se reporta por log.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/jhoicas/stockledger/pkg/logger"
)

const defaultWriteTimeout = 3 * time.Second

// Entry datos de una entrada. OldValues/NewValues se serializan a JSON si no son nil.
type Entry struct {
	TableName   string
	Action      entity.AuditAction
	RecordID    string
	Description string
	UserID      string
	OldValues   any
	NewValues   any
}

// Recorder escribe y consulta la bitácora.
type Recorder struct {
	repo    repository.AuditLogRepository
	log     *logger.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewRecorder construye el recorder. timeout <= 0 usa 3s.
func NewRecorder(repo repository.AuditLogRepository, log *logger.Logger, timeout time.Duration) *Recorder {
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	return &Recorder{repo: repo, log: log.Component("audit"), timeout: timeout, now: time.Now}
}

// Log agrega una entrada. Se ejecuta aunque ctx ya esté cancelado: la mutación ya se confirmó.
func (r *Recorder) Log(ctx context.Context, e Entry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	entry := &entity.AuditLog{
		ID:          uuid.New().String(),
		TableName:   e.TableName,
		Action:      e.Action,
		RecordID:    e.RecordID,
		Description: e.Description,
		OldValues:   r.snapshot(e.OldValues),
		NewValues:   r.snapshot(e.NewValues),
		UserID:      e.UserID,
		CreatedAt:   r.now(),
	}
	if err := r.repo.Create(ctx, entry); err != nil {
		r.log.Error().Err(err).
			Str("table", e.TableName).
			Str("action", string(e.Action)).
			Str("record_id", e.RecordID).
			Str("user_id", e.UserID).
			Msg("no se pudo escribir la bitácora")
	}
}

func (r *Recorder) snapshot(v any) *string {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		r.log.Warn().Err(err).Msg("snapshot de auditoría no serializable")
		return nil
	}
	s := string(b)
	return &s
}

// MaxQueryLimit tope de filas por consulta; también es el valor por defecto.
const MaxQueryLimit = 1000

// EffectiveLimit límite que Query aplica realmente para el pedido n.
func EffectiveLimit(n int) int {
	if n <= 0 || n > MaxQueryLimit {
		return MaxQueryLimit
	}
	return n
}

// Query devuelve las entradas que cumplen todos los filtros, más recientes primero,
// truncadas a EffectiveLimit(f.Limit).
func (r *Recorder) Query(ctx context.Context, f repository.AuditFilter) ([]*entity.AuditLog, error) {
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, domain.ErrInvalidInput
	}
	if f.Action != "" && !validAction(f.Action) {
		return nil, domain.ErrInvalidInput
	}
	f.Limit = EffectiveLimit(f.Limit)
	return r.repo.List(ctx, f)
}

func validAction(a entity.AuditAction) bool {
	switch a {
	case entity.AuditCreate, entity.AuditUpdate, entity.AuditDelete, entity.AuditAdjust,
		entity.AuditTransfer, entity.AuditGrant, entity.AuditRevoke:
		return true
	}
	return false
}
