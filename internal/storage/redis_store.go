package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "rank-harvester:outcomes:"
	redisOpTimeout = 3 * time.Second
)

// redisStore keeps one hash per collection date, one field per
// country/category/collection. Expiry is left to redis.
type redisStore struct {
	client     *redis.Client
	outcomeTTL time.Duration
}

func openRedis(opts Options) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Redis.Addr,
		Password:     opts.Redis.Password,
		DB:           opts.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  redisOpTimeout,
		WriteTimeout: redisOpTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return newRedisStore(client, opts), nil
}

func newRedisStore(client *redis.Client, opts Options) *redisStore {
	return &redisStore{client: client, outcomeTTL: opts.OutcomeTTL}
}

func redisDateKey(date string) string {
	return redisKeyPrefix + strings.ToLower(date)
}

func (r *redisStore) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

// RecordOutcome stores rec in the hash of its date and pushes the hash expiry
// out to the outcome TTL.
func (r *redisStore) RecordOutcome(rec OutcomeRecord) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	key := redisDateKey(rec.Date)
	field := strings.TrimPrefix(rec.Key(), strings.ToLower(rec.Date)+"/")
	if err := r.client.HSet(ctx, key, field, string(value)).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	if err := r.client.Expire(ctx, key, r.outcomeTTL).Err(); err != nil {
		return fmt.Errorf("redis expire: %w", err)
	}
	return nil
}

func (r *redisStore) Summary(date string) (Summary, error) {
	sum := Summary{Date: date}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	fields, err := r.client.HGetAll(ctx, redisDateKey(date)).Result()
	if err != nil {
		return sum, fmt.Errorf("redis hgetall: %w", err)
	}
	for name, raw := range fields {
		var rec OutcomeRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		sum.add(name, rec)
	}
	sort.Strings(sum.Failing)
	return sum, nil
}
