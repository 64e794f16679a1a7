package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"whiteboard-backend/internal/model"
)

// ListKey 화이트보드 목록 캐시 키
const ListKey = "whiteboards:list"

// GenerationKey 목록 무효화 횟수 (Invalidate마다 증가)
const GenerationKey = "whiteboards:list:gen"

// DefaultListTTL 목록 캐시 유지 시간
const DefaultListTTL = 60 * time.Second

// ListCache 화이트보드 목록 캐시
//
// Failures are logged and swallowed; a cache miss is always safe.
// Readers take Generation before querying the store and pass it to Set, so a
// list read before a concurrent write is never cached after that write's
// Invalidate.
type ListCache interface {
	Get(ctx context.Context) ([]model.WhiteboardSummary, bool)
	Generation(ctx context.Context) (int64, bool)
	Set(ctx context.Context, gen int64, list []model.WhiteboardSummary)
	Invalidate(ctx context.Context)
	Health(ctx context.Context) error
	Close() error
}

// RedisClient go-redis 기반 목록 캐시
type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient creates a new Redis client
func NewRedisClient(addr, password string, db int, ttl time.Duration) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	if ttl <= 0 {
		ttl = DefaultListTTL
	}
	log.Printf("[Redis] Connected to %s", addr)
	return &RedisClient{client: client, ttl: ttl}, nil
}

// Get 캐시된 목록 조회
func (r *RedisClient) Get(ctx context.Context) ([]model.WhiteboardSummary, bool) {
	data, err := r.client.Get(ctx, ListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		log.Printf("[Redis] Failed to read list cache: %v", err)
		return nil, false
	}

	var list []model.WhiteboardSummary
	if err := json.Unmarshal(data, &list); err != nil {
		log.Printf("[Redis] Corrupt list cache, dropping: %v", err)
		r.Invalidate(ctx)
		return nil, false
	}
	return list, true
}

// Generation 현재 무효화 세대 조회
func (r *RedisClient) Generation(ctx context.Context) (int64, bool) {
	gen, err := r.client.Get(ctx, GenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		log.Printf("[Redis] Failed to read list generation: %v", err)
		return 0, false
	}
	return gen, true
}

// Set 목록 저장 (TTL 적용). gen 이후 Invalidate가 있었으면 저장하지 않음
func (r *RedisClient) Set(ctx context.Context, gen int64, list []model.WhiteboardSummary) {
	if list == nil {
		list = []model.WhiteboardSummary{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		log.Printf("[Redis] Failed to encode list cache: %v", err)
		return
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, GenerationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStaleList
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, ListKey, data, r.ttl)
			return nil
		})
		return err
	}, GenerationKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleList), errors.Is(err, redis.TxFailedErr):
		log.Printf("[Redis] List changed while reading (gen %d), not caching", gen)
	default:
		log.Printf("[Redis] Failed to write list cache: %v", err)
	}
}

var errStaleList = errors.New("list generation changed")

// Invalidate 목록 캐시 삭제 및 세대 증가
func (r *RedisClient) Invalidate(ctx context.Context) {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey)
		pipe.Del(ctx, ListKey)
		return nil
	})
	if err != nil {
		log.Printf("[Redis] Failed to invalidate list cache: %v", err)
	}
}

// Health checks Redis connectivity
func (r *RedisClient) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// NopCache 캐시 없음 (REDIS_ADDR 미설정 시)
type NopCache struct{}

func (NopCache) Get(context.Context) ([]model.WhiteboardSummary, bool) { return nil, false }
func (NopCache) Generation(context.Context) (int64, bool)              { return 0, false }
func (NopCache) Set(context.Context, int64, []model.WhiteboardSummary) {}
func (NopCache) Invalidate(context.Context)                            {}
func (NopCache) Health(context.Context) error                          { return nil }
func (NopCache) Close() error                                          { return nil }
