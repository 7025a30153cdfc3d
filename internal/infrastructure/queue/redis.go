package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue cola sobre una lista Redis: LPUSH para encolar, BRPOP para consumir.
type RedisQueue struct {
	client *redis.Client
	key    string
	// pollTimeout tiempo máximo de cada BRPOP antes de volver a revisar ctx.
	pollTimeout time.Duration
}

// Options conexión a Redis.
type Options struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// ConnectRedis establece la conexión y verifica con PING.
func ConnectRedis(ctx context.Context, opts Options) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("error pinging Redis: %w", err)
	}
	return NewRedisQueue(client, opts.Key), nil
}

// NewRedisQueue envuelve un cliente existente.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "sunat:documents"
	}
	return &RedisQueue{client: client, key: key, pollTimeout: 5 * time.Second}
}

// Enqueue agrega el ID al inicio de la lista.
func (q *RedisQueue) Enqueue(ctx context.Context, documentID string) error {
	if err := q.client.LPush(ctx, q.key, documentID).Err(); err != nil {
		return fmt.Errorf("queue: lpush: %w", err)
	}
	return nil
}

// Dequeue toma el ID más antiguo (BRPOP), reintentando hasta que llegue uno o se cancele ctx.
func (q *RedisQueue) Dequeue(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		res, err := q.client.BRPop(ctx, q.pollTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("queue: brpop: %w", err)
		}
		// res = [key, value]
		if len(res) == 2 {
			return res[1], nil
		}
	}
}

// Len elementos pendientes en la lista.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// HealthCheck verifica la salud de Redis.
func (q *RedisQueue) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return q.client.Ping(ctx).Err()
}

// Close cierra la conexión a Redis.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
