// Package redislock implementa unitofwork.KeyLocker sobre Redis para varias instancias de la API.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stockledger/internal/application/unitofwork"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/pkg/logger"
)

var _ unitofwork.KeyLocker = (*KeyLocker)(nil)

const releaseTimeout = 2 * time.Second

// Config conexión y comportamiento del lock.
type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	TTL      time.Duration // vida máxima de cada lock si el proceso muere sin liberarlo
}

// NewClient abre el cliente y verifica la conexión con PING.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// KeyLocker un lock de Redis por clave de stock ("stock:<bodega>:<producto>").
type KeyLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	retry  time.Duration
	log    *logger.Logger
}

// NewKeyLocker construye el locker sobre un cliente ya conectado.
func NewKeyLocker(rdb redislock.RedisClient, ttl time.Duration, log *logger.Logger) *KeyLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &KeyLocker{
		locker: redislock.New(rdb),
		ttl:    ttl,
		retry:  25 * time.Millisecond,
		log:    log.Component("redislock"),
	}
}

// Lock obtiene las claves en el orden recibido reintentando hasta que ctx expire.
// Si alguna no se obtiene devuelve ErrConflict y libera las ya obtenidas.
func (k *KeyLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	held := make([]*redislock.Lock, 0, len(keys))
	unlock := func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(rctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				k.log.Warn().Err(err).Str("key", held[i].Key()).Msg("no se pudo liberar el lock")
			}
		}
	}
	opts := &redislock.Options{RetryStrategy: redislock.LinearBackoff(k.retry)}
	for _, key := range keys {
		lock, err := k.locker.Obtain(ctx, key, k.ttl, opts)
		if err != nil {
			unlock()
			if errors.Is(err, redislock.ErrNotObtained) {
				return nil, fmt.Errorf("lock %s: %w", key, domain.ErrConflict)
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		held = append(held, lock)
	}
	return unlock, nil
}
