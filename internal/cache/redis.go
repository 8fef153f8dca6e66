package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/Domenick1991/airledger/config"
	"github.com/Domenick1991/airledger/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still holds the caller's
// token, so an expired lock taken over by another engine is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// setFlightsScript stores the listing only while the version read before
// the store query is still current. An invalidation in between bumps the
// version, so a listing read before a booking committed is dropped.
var setFlightsScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1]) or "0"
if current ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
else
	redis.call("SET", KEYS[2], ARGV[2])
end
return 1`)

type RedisCache struct {
	client     *redis.Client
	flightsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		flightsTTL: flightsTTL,
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GetFlights returns nil, nil on a cache miss.
func (c *RedisCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, flightsKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

// FlightsVersion returns the invalidation counter, 0 when never invalidated.
func (c *RedisCache) FlightsVersion(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, flightsVersionKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// SetFlights caches the listing if no invalidation happened since version
// was read. It reports whether the listing was stored.
func (c *RedisCache) SetFlights(ctx context.Context, flights []domain.Flight, version int64) (bool, error) {
	payload, err := json.Marshal(flights)
	if err != nil {
		return false, err
	}
	stored, err := setFlightsScript.Run(ctx, c.client,
		[]string{flightsVersionKey(), flightsKey()},
		strconv.FormatInt(version, 10), payload, c.flightsTTL.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, flightsVersionKey())
		pipe.Del(ctx, flightsKey())
		return nil
	})
	return err
}

// AcquireFlightLock takes the exclusive lock on a flight for at most ttl.
// ok is false when another holder has it.
func (c *RedisCache) AcquireFlightLock(ctx context.Context, number string, ttl time.Duration) (token string, ok bool, err error) {
	token = uuid.NewString()
	ok, err = c.client.SetNX(ctx, flightLockKey(number), token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

func (c *RedisCache) ReleaseFlightLock(ctx context.Context, number, token string) error {
	return releaseScript.Run(ctx, c.client, []string{flightLockKey(number)}, token).Err()
}

func flightsKey() string {
	return "cache:flights"
}

func flightsVersionKey() string {
	return "cache:flights:version"
}

func flightLockKey(number string) string {
	return "lock:flight:" + number
}
