package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ayooluwa21/tikker-backend/internal/domain"
)

// Cache fronts the public event reads. Stale reads are fine here; the
// booking path never goes through the cache.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

func eventKey(id string) string {
	return "event:" + id
}

// GetEvent returns the cached event, or nil on a miss. Cache errors
// degrade to a miss so redis outages never fail a read.
func (c *Cache) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	data, err := c.client.Get(ctx, eventKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e domain.Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Cache) SetEvent(ctx context.Context, e domain.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, eventKey(e.ID.String()), data, c.ttl).Err()
}

func (c *Cache) InvalidateEvent(ctx context.Context, id string) error {
	return c.client.Del(ctx, eventKey(id)).Err()
}
