package redisx

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// StatusCache keeps the last known status of an order together with its owner,
// so that a status poll can be authorized without reading the order row.
//
// Every entry carries the generation it was loaded under. Invalidate bumps the
// generation, so an entry written by a reader that loaded the row before a status
// change never matches again and is treated as a miss.
type StatusCache struct{ rdb *redis.Client }

func NewStatusCache(rdb *redis.Client) *StatusCache { return &StatusCache{rdb: rdb} }

func (s *StatusCache) Get(ctx context.Context, number string) (userID, status string, ok bool) {
	vals, err := s.rdb.MGet(ctx, fmt.Sprintf(KeyOrderStatus, number), fmt.Sprintf(KeyOrderStatusGen, number)).Result()
	if err != nil || len(vals) != 2 {
		return "", "", false
	}
	v, _ := vals[0].(string)
	gen, _ := vals[1].(string)
	if gen == "" {
		gen = "0"
	}
	entryGen, rest, ok := strings.Cut(v, "|")
	if !ok || entryGen != gen {
		return "", "", false
	}
	userID, status, ok = strings.Cut(rest, "|")
	return userID, status, ok
}

// Version returns the generation to pass to Set. Read it before loading the order.
func (s *StatusCache) Version(ctx context.Context, number string) (int64, error) {
	gen, err := s.rdb.Get(ctx, fmt.Sprintf(KeyOrderStatusGen, number)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (s *StatusCache) Set(ctx context.Context, number string, version int64, userID, status string) error {
	v := strconv.FormatInt(version, 10) + "|" + userID + "|" + status
	return s.rdb.Set(ctx, fmt.Sprintf(KeyOrderStatus, number), v, TTLStatusCache).Err()
}

func (s *StatusCache) Invalidate(ctx context.Context, number string) error {
	genKey := fmt.Sprintf(KeyOrderStatusGen, number)
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, genKey)
		p.Expire(ctx, genKey, TTLStatusGen)
		p.Del(ctx, fmt.Sprintf(KeyOrderStatus, number))
		return nil
	})
	return err
}

// Cooldown rate-limits code issuance per purpose and address.
type Cooldown struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCooldown(rdb *redis.Client, ttl time.Duration) *Cooldown {
	return &Cooldown{rdb: rdb, ttl: ttl}
}

// Acquire reports false while an earlier acquisition for the same key is still live.
func (c *Cooldown) Acquire(ctx context.Context, purpose, email string) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, fmt.Sprintf(KeyCodeCooldown, purpose, email), "1", c.ttl).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return ok, err
}
