package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultRedisLockTTL   = 15 * time.Second
	defaultRedisRetryWait = 25 * time.Millisecond
	redisKeyPrefix        = "learnpulse:lock:"
)

// 仅当值匹配时删除，避免误删其他实例续上的锁
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ErrRedisAddrMissing 在未配置地址时返回
var ErrRedisAddrMissing = errors.New("missing redis address")

// Redis 在多实例部署下通过 SET NX PX 实现跨进程的按键锁。
// 进程内先经过 Local，避免同一实例内的请求空转重试。
// 锁有固定 TTL 且不续期，只是尽力而为的前置排队；事务超过 TTL 时其他实例可能拿到锁，
// 写入的串行化最终由账户行上的 SELECT ... FOR UPDATE 保证。
type Redis struct {
	local *Local
	rdb   *goredis.Client
	ttl   time.Duration
	wait  time.Duration
}

// NewRedis 连接 Redis 并校验可用性
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, ErrRedisAddrMissing
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{local: NewLocal(), rdb: rdb, ttl: defaultRedisLockTTL, wait: defaultRedisRetryWait}, nil
}

// Lock 实现 Locker
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	unlockLocal, err := r.local.Lock(ctx, key)
	if err != nil {
		return nil, err
	}

	redisKey := redisKeyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := r.rdb.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			unlockLocal()
			return nil, fmt.Errorf("acquire redis lock: %w", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			unlockLocal()
			return nil, ctx.Err()
		case <-time.After(r.wait):
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, r.rdb, []string{redisKey}, token).Err()
		unlockLocal()
	}, nil
}

// Close 关闭底层连接
func (r *Redis) Close() error {
	return r.rdb.Close()
}
