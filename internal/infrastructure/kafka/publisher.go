// Package kafka publica los eventos de stock confirmados en un tópico de Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/pkg/logger"
)

var _ inventory.EventPublisher = (*Publisher)(nil)

// MessageProducer escritura de un mensaje; lo implementa el writer instrumentado.
type MessageProducer interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

// NewWriter writer de kafka-go instrumentado con OpenTelemetry (propaga el trace en los headers).
func NewWriter(brokers []string, topic, clientID string, tp trace.TracerProvider) (*otelkafka.Writer, error) {
	base := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
	return otelkafka.NewWriter(base,
		otelkafka.WithTracerProvider(tp),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes(
			[]attribute.KeyValue{
				semconv.MessagingDestinationNameKey.String(topic),
				attribute.String("messaging.kafka.client_id", clientID),
			},
		),
	)
}

const (
	queueSize    = 1024
	writeTimeout = 5 * time.Second
)

type queued struct {
	ctx   context.Context
	event dto.StockEvent
}

// Publisher encola eventos y los escribe en segundo plano. Si la cola está llena el evento se descarta.
type Publisher struct {
	producer MessageProducer
	log      *logger.Logger
	queue    chan queued
	done     chan struct{}
}

// NewPublisher construye el publicador; Run debe ejecutarse en una goroutine.
func NewPublisher(producer MessageProducer, log *logger.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		log:      log.Component("kafka"),
		queue:    make(chan queued, queueSize),
		done:     make(chan struct{}),
	}
}

// Publish no bloquea.
func (p *Publisher) Publish(ctx context.Context, event dto.StockEvent) {
	select {
	case p.queue <- queued{ctx: context.WithoutCancel(ctx), event: event}:
	default:
		p.log.Warn().Str("product_id", event.ProductID).Str("warehouse_id", event.WarehouseID).Msg("cola de eventos llena, evento descartado")
	}
}

// Run escribe los eventos hasta que ctx termine; luego vacía la cola y cierra el producer.
func (p *Publisher) Run(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case q := <-p.queue:
			p.write(q)
		case <-ctx.Done():
			for {
				select {
				case q := <-p.queue:
					p.write(q)
				default:
					if err := p.producer.Close(); err != nil {
						p.log.Error().Err(err).Msg("cerrar writer")
					}
					return
				}
			}
		}
	}
}

// Wait bloquea hasta que Run termine.
func (p *Publisher) Wait() {
	<-p.done
}

func (p *Publisher) write(q queued) {
	payload, err := json.Marshal(q.event)
	if err != nil {
		p.log.Error().Err(err).Msg("serializar evento")
		return
	}
	ctx, cancel := context.WithTimeout(q.ctx, writeTimeout)
	defer cancel()
	msg := kafka.Message{
		Key:   []byte(q.event.WarehouseID + ":" + q.event.ProductID),
		Value: payload,
	}
	if err := p.producer.WriteMessage(ctx, msg); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			p.log.Warn().Err(err).Msg("timeout publicando evento de stock")
			return
		}
		p.log.Error().Err(err).Str("product_id", q.event.ProductID).Msg("no se pudo publicar el evento de stock")
		return
	}
	p.log.Debug().Str("kind", q.event.Kind).Str("product_id", q.event.ProductID).Msg("evento de stock publicado")
}
