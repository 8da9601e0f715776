package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"goactor/framework/log"
	"goactor/utility/safemap"

	"github.com/redis/go-redis/v9"
)

// RedisRegistry SETNX绑定, 设置ttl时后台定期续期本进程绑定的key
type RedisRegistry struct {
	client   redis.UniversalClient
	basePath string
	ttl      time.Duration

	bound  *safemap.SafeMap[string, struct{}]
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRedisRegistry 多个地址时使用集群客户端
func NewRedisRegistry(addrs []string, username string, password string, basePath string, ttlSeconds int64) *RedisRegistry {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    addrs,
		Username: username,
		Password: password,
	})
	return NewRedisRegistryWithClient(client, basePath, ttlSeconds)
}

func NewRedisRegistryWithClient(client redis.UniversalClient, basePath string, ttlSeconds int64) *RedisRegistry {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	reg := &RedisRegistry{
		client:   client,
		basePath: basePath,
		ttl:      time.Duration(ttlSeconds) * time.Second,
		bound:    safemap.NewSafeMap[string, struct{}](),
	}

	if reg.ttl > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		reg.cancel = cancel
		reg.wg.Add(1)
		go reg.refreshLoop(ctx)
	}
	return reg
}

func (reg *RedisRegistry) Bind(ctx context.Context, name string, endpoint string) error {
	ok, err := reg.client.SetNX(ctx, joinPath(reg.basePath, name), endpoint, reg.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyBound
	}
	reg.bound.Set(name, struct{}{})
	return nil
}

func (reg *RedisRegistry) Lookup(ctx context.Context, name string) (string, error) {
	endpoint, err := reg.client.Get(ctx, joinPath(reg.basePath, name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotBound
	}
	return endpoint, err
}

func (reg *RedisRegistry) Unbind(ctx context.Context, name string) error {
	reg.bound.Del(name)
	return reg.client.Del(ctx, joinPath(reg.basePath, name)).Err()
}

func (reg *RedisRegistry) List(ctx context.Context, prefix string) (map[string]string, error) {
	ret := make(map[string]string)
	iter := reg.client.Scan(ctx, 0, joinPath(reg.basePath, prefix)+"*", 256).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		endpoint, err := reg.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		ret[trimPath(reg.basePath, key)] = endpoint
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (reg *RedisRegistry) refreshLoop(ctx context.Context) {
	defer reg.wg.Done()

	interval := reg.ttl / 3
	if interval < 100*time.Millisecond {
		interval = 100 * time.Millisecond
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}

		reg.bound.Range(func(name string, _ struct{}) bool {
			if err := reg.client.Expire(ctx, joinPath(reg.basePath, name), reg.ttl).Err(); err != nil {
				log.Warn("refresh redis binding %s error: %v", name, err)
			}
			return true
		})
	}
}

func (reg *RedisRegistry) Close() error {
	if reg.cancel != nil {
		reg.cancel()
		reg.wg.Wait()
	}
	return reg.client.Close()
}
