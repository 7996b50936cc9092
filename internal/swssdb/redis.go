package swssdb

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Options describes how to reach one switch database
type Options struct {
	Network  string // "tcp" or "unix"
	Addr     string // host:port or socket path
	Password string
	DB       int
}

// RedisConn is a Conn backed by a go-redis client bound to a single database number
type RedisConn struct {
	client *redis.Client
	db     int
}

// Dial creates a client for opts.DB and verifies it with a ping
func Dial(ctx context.Context, opts Options) (*RedisConn, error) {
	network := opts.Network
	if network == "" {
		network = "tcp"
	}
	client := redis.NewClient(&redis.Options{
		Network:  network,
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	c := &RedisConn{client: client, db: opts.DB}
	if err := c.Ping(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return c, nil
}

// DB returns the database number this connection is bound to
func (c *RedisConn) DB() int {
	return c.db
}

// GetAll runs HGETALL on key
func (c *RedisConn) GetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: hgetall %s (db %d): %w", ErrConnection, key, c.db, err)
	}
	return fields, nil
}

// SetFields runs HSET on key with every field in fields
func (c *RedisConn) SetFields(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		values = append(values, k, v)
	}
	if err := c.client.HSet(ctx, key, values...).Err(); err != nil {
		return fmt.Errorf("%w: hset %s (db %d): %w", ErrConnection, key, c.db, err)
	}
	return nil
}

// Delete removes key
func (c *RedisConn) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: del %s (db %d): %w", ErrConnection, key, c.db, err)
	}
	return nil
}

// Ping checks that the server answers
func (c *RedisConn) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: failed to connect to redis db %d: %w", ErrConnection, c.db, err)
	}
	return nil
}

// Close releases the underlying client
func (c *RedisConn) Close() error {
	return c.client.Close()
}
