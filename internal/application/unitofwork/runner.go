// Package unitofwork ejecuta unidades atómicas acotadas en tiempo sobre un TxRunner:
// bloqueo por clave en orden fijo, timeout por intento y reintento solo ante ErrConflict.
package unitofwork

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/jhoicas/stockledger/pkg/logger"
)

// Config límites de cada unidad.
type Config struct {
	Timeout     time.Duration // por intento
	MaxAttempts int
}

// DefaultConfig 5s por intento, 3 intentos.
func DefaultConfig() Config {
	return Config{Timeout: 5 * time.Second, MaxAttempts: 3}
}

// Runner ejecuta fn dentro de una transacción con las claves de stock bloqueadas.
type Runner struct {
	tx     repository.TxRunner
	locker KeyLocker
	cfg    Config
	log    *logger.Logger
}

func NewRunner(tx repository.TxRunner, locker KeyLocker, cfg Config, log *logger.Logger) *Runner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	return &Runner{tx: tx, locker: locker, cfg: cfg, log: log.Component("unitofwork")}
}

// Do ejecuta fn como una unidad atómica. Las claves se ordenan (bodega, producto) y se
// deduplican antes de bloquear. Solo ErrConflict se reintenta; el resto se devuelve tal cual.
func (r *Runner) Do(ctx context.Context, op string, keys []entity.StockKey, fn func(ctx context.Context, repos repository.Repos) error) error {
	lockKeys := SortKeys(keys)

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 20 * time.Millisecond
	eb.MaxInterval = 250 * time.Millisecond
	eb.MaxElapsedTime = 0
	var b backoff.BackOff = eb
	b = backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.cfg.MaxAttempts-1)), ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := r.attempt(ctx, lockKeys, fn)
		if err == nil {
			return nil
		}
		if domain.IsRetryable(err) {
			r.log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Msg("conflicto, reintentando")
			return err
		}
		return backoff.Permanent(err)
	}, b)
	if err != nil && ctx.Err() != nil && !errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
	return err
}

func (r *Runner) attempt(ctx context.Context, keys []string, fn func(ctx context.Context, repos repository.Repos) error) error {
	unitCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	if len(keys) > 0 {
		unlock, err := r.locker.Lock(unitCtx, keys...)
		if err != nil {
			return r.classify(ctx, err)
		}
		defer unlock()
	}
	err := r.tx.Run(unitCtx, func(repos repository.Repos) error {
		return fn(unitCtx, repos)
	})
	return r.classify(ctx, err)
}

// classify: el vencimiento del timeout propio de la unidad se informa como ErrConflict;
// la cancelación del llamador se devuelve como tal.
func (r *Runner) classify(parent context.Context, err error) error {
	if err == nil {
		return nil
	}
	if parent.Err() != nil {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: tiempo de espera agotado", domain.ErrConflict)
	}
	return err
}

// SortKeys orden total fijo (bodega asc, producto asc) sin duplicados.
func SortKeys(keys []entity.StockKey) []string {
	sorted := make([]entity.StockKey, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
	out := make([]string, 0, len(sorted))
	for i, k := range sorted {
		if i > 0 && k == sorted[i-1] {
			continue
		}
		out = append(out, k.String())
	}
	return out
}
