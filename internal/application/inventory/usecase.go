// Package inventory aplica las operaciones que cambian cantidades (movimientos de entrada/salida,
// ajustes y transferencias) dentro de una unidad atómica por operación, y expone las consultas de stock.
package inventory

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stockledger/internal/application/unitofwork"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/jhoicas/stockledger/pkg/logger"
)

const tracerName = "stockledger/inventory"

// Engine motor de inventario.
type Engine struct {
	uow       *unitofwork.Runner
	repos     repository.Repos // lecturas fuera de transacción
	authority Authority
	audit     AuditLogger
	events    EventPublisher
	log       *logger.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewEngine construye el motor. events puede ser nil.
func NewEngine(
	uow *unitofwork.Runner,
	repos repository.Repos,
	authority Authority,
	auditLog AuditLogger,
	events EventPublisher,
	log *logger.Logger,
) *Engine {
	if events == nil {
		events = NopPublisher{}
	}
	return &Engine{
		uow:       uow,
		repos:     repos,
		authority: authority,
		audit:     auditLog,
		events:    events,
		log:       log.Component("inventory"),
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
}

func (e *Engine) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// requireProduct / requireWarehouse: referencia existente y activa, si no ErrNotFound.
func (e *Engine) requireProduct(ctx context.Context, id string) (*entity.Product, error) {
	p, err := e.repos.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.IsActive {
		return nil, fmt.Errorf("producto %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func (e *Engine) requireWarehouse(ctx context.Context, id string) (*entity.Warehouse, error) {
	w, err := e.repos.Warehouses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil || !w.IsActive {
		return nil, fmt.Errorf("bodega %s: %w", id, domain.ErrNotFound)
	}
	return w, nil
}

// publish emite el evento tras el commit; nunca afecta el resultado.
func (e *Engine) publish(ctx context.Context, kind string, st *entity.Stock, delta int64, userID string) {
	e.events.Publish(context.WithoutCancel(ctx), stockEvent(kind, st, delta, userID, e.now()))
}
