package lock

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/pkg/logger"
)

// RedisOptions tiempo de vida y reintentos de cada llave.
type RedisOptions struct {
	TTL          time.Duration
	RetryCount   int
	RetryBackoff time.Duration
}

// Redis serializa por llave entre varias instancias de la API usando redislock.
type Redis struct {
	client *redislock.Client
	opts   RedisOptions
	log    *logger.Logger
}

// NewRedis construye el locker distribuido sobre un cliente go-redis.
func NewRedis(rdb *redis.Client, opts RedisOptions, log *logger.Logger) *Redis {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Second
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 100 * time.Millisecond
	}
	return &Redis{client: redislock.New(rdb), opts: opts, log: log.Component("redislock")}
}

// Acquire obtiene todas las llaves en orden; si alguna no se obtiene libera las anteriores.
// Una llave ocupada tras agotar los reintentos se informa como CONFLICT.
func (r *Redis) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	held := make([]*redislock.Lock, 0, len(keys))
	releaseAll := func() {
		for i := len(held) - 1; i >= 0; i-- {
			// el contexto del request puede estar cancelado; la liberación no debe depender de él
			if err := held[i].Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				r.log.Warn().Err(err).Str("key", held[i].Key()).Msg("no se pudo liberar el bloqueo")
			}
		}
	}
	for _, k := range keys {
		l, err := r.client.Obtain(ctx, k, r.opts.TTL, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(r.opts.RetryBackoff), r.opts.RetryCount),
		})
		if err != nil {
			releaseAll()
			if errors.Is(err, redislock.ErrNotObtained) {
				return nil, domain.ErrConflict.WithMessage("recurso ocupado por otra operación").WithEntity(k)
			}
			return nil, err
		}
		held = append(held, l)
	}
	return releaseAll, nil
}
