package cache

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// slotKey is the one redis key the cache uses. Invalidation deletes
// exactly this key, nothing else.
const slotKey = "cache:feed:index"

const (
	slotTTL   = time.Hour
	redisWait = 2 * time.Second
)

// Redis is a Cache backed by a single redis key, so the slot survives
// process restarts and is shared across replicas.
type Redis struct {
	client *redis.Client
	log    *zap.SugaredLogger
}

// RedisOptions carries the connection settings for the cache client.
type RedisOptions struct {
	Host     string
	Port     int
	DB       int
	Password string
}

// NewRedis dials redis and returns the cache. The ping result is ignored;
// a dead redis degrades every Get to a miss instead of failing requests.
func NewRedis(opts RedisOptions, log *zap.SugaredLogger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)),
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  redisWait,
		WriteTimeout: redisWait,
	})
	ctx, cancel := context.WithTimeout(context.Background(), redisWait)
	defer cancel()
	_ = client.Ping(ctx).Err()
	return &Redis{client: client, log: log}
}

// Get returns the cached rendering, or false on a miss or redis error.
func (r *Redis) Get() ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisWait)
	defer cancel()
	b, err := r.client.Get(ctx, slotKey).Bytes()
	if err != nil {
		if r.log != nil && err != redis.Nil {
			r.log.Debugf("feed cache get failed: %v", err)
		}
		return nil, false
	}
	return b, true
}

// Set fills the slot with a TTL as a backstop against missed invalidations.
func (r *Redis) Set(value []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), redisWait)
	defer cancel()
	if err := r.client.Set(ctx, slotKey, value, slotTTL).Err(); err != nil && r.log != nil {
		r.log.Warnf("feed cache set failed: %v", err)
	}
}

// Invalidate deletes the slot key.
func (r *Redis) Invalidate() {
	ctx, cancel := context.WithTimeout(context.Background(), redisWait)
	defer cancel()
	if err := r.client.Del(ctx, slotKey).Err(); err != nil && r.log != nil {
		r.log.Warnf("feed cache invalidate failed: %v", err)
	}
}
