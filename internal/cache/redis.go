package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/orbitaltravel/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisCache provides the distributed locks that keep two writers off the
// same booking or seat.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg config.RedisConfig) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// releaseScript deletes a lock only while it still holds the caller's token,
// so an expired lock re-acquired by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// AcquireBookingLock returns the lock token on success and "" when another
// writer holds the booking.
func (c *RedisCache) AcquireBookingLock(ctx context.Context, bookingID string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, bookingLockKey(bookingID), token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

func (c *RedisCache) ReleaseBookingLock(ctx context.Context, bookingID, token string) error {
	return releaseScript.Run(ctx, c.client, []string{bookingLockKey(bookingID)}, token).Err()
}

func (c *RedisCache) AcquireSeatLock(ctx context.Context, flightID, seat, bookingID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, seatLockKey(flightID, seat), bookingID, ttl).Result()
}

func (c *RedisCache) ReleaseSeatLock(ctx context.Context, flightID, seat, bookingID string) error {
	return releaseScript.Run(ctx, c.client, []string{seatLockKey(flightID, seat)}, bookingID).Err()
}

func bookingLockKey(bookingID string) string {
	return fmt.Sprintf("lock:booking:%s", bookingID)
}

func seatLockKey(flightID, seat string) string {
	return fmt.Sprintf("lock:flight:%s:seat:%s", flightID, seat)
}
