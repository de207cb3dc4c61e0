package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// UpdateDeduper suprime updates reentregados por Telegram cuando el ack llega
// lento. Seen devuelve true si el update_id ya fue procesado.
type UpdateDeduper interface {
	Seen(updateID int64) (bool, error)
}

type memoryUpdateDeduper struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[int64]time.Time
}

func NewMemoryUpdateDeduper(ttl time.Duration) UpdateDeduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &memoryUpdateDeduper{
		ttl:   ttl,
		items: make(map[int64]time.Time),
	}
}

func (d *memoryUpdateDeduper) Seen(updateID int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now().UTC()
	for id, exp := range d.items {
		if now.After(exp) {
			delete(d.items, id)
		}
	}
	if _, ok := d.items[updateID]; ok {
		return true, nil
	}
	d.items[updateID] = now.Add(d.ttl)
	return false, nil
}

type redisUpdateDeduper struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisUpdateDeduper(client *redis.Client, ttl time.Duration) UpdateDeduper {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &redisUpdateDeduper{
		client: client,
		ttl:    ttl,
		prefix: "tg:update:",
	}
}

func (d *redisUpdateDeduper) Seen(updateID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	key := d.prefix + strconv.FormatInt(updateID, 10)
	created, err := d.client.SetNX(ctx, key, "1", d.ttl).Result()
	if err != nil {
		return false, err
	}
	return !created, nil
}
