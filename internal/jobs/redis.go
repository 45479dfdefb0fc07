package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisQueue stores jobs in a Redis list (LPUSH / BRPOP), so pending work
// survives a process restart and can be shared by several instances.
type RedisQueue struct {
	rdb   *goredis.Client
	key   string
	block time.Duration
}

// NewRedisQueue connects to addr and verifies the connection.
func NewRedisQueue(ctx context.Context, addr, password, key string) (*RedisQueue, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisQueue{rdb: rdb, key: key, block: 2 * time.Second}, nil
}

// Enqueue implements Queue.
func (q *RedisQueue) Enqueue(ctx context.Context, j Job) error {
	raw, err := encodeJob(j)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, q.key, raw).Err()
}

// Dequeue implements Queue. BRPOP is issued with a short timeout in a loop
// so ctx cancellation is observed promptly.
func (q *RedisQueue) Dequeue(ctx context.Context) (Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Job{}, err
		}
		res, err := q.rdb.BRPop(ctx, q.block, q.key).Result()
		if errors.Is(err, goredis.Nil) {
			continue
		}
		if errors.Is(err, goredis.ErrClosed) {
			return Job{}, ErrClosed
		}
		if err != nil {
			return Job{}, err
		}
		// res = [key, value]
		if len(res) != 2 {
			return Job{}, fmt.Errorf("unexpected BRPOP reply of length %d", len(res))
		}
		return decodeJob(res[1])
	}
}

// Close closes the Redis client.
func (q *RedisQueue) Close() error { return q.rdb.Close() }

func encodeJob(j Job) (string, error) {
	b, err := json.Marshal(j)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJob(s string) (Job, error) {
	var j Job
	if err := json.Unmarshal([]byte(s), &j); err != nil {
		return Job{}, fmt.Errorf("decode job: %w", err)
	}
	if j.CalendarID == 0 {
		return Job{}, errors.New("decode job: missing calendarId")
	}
	return j, nil
}
