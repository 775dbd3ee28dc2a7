package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// RedisQueue liste "pending" alimentée par LPUSH. Chaque message est déplacé
// atomiquement vers la liste "processing" (BLMOVE) le temps du traitement,
// puis retiré (LREM).
type RedisQueue struct {
	client        *redis.Client
	pendingKey    string
	processingKey string
	blockTimeout  time.Duration
}

func NewRedisQueue(ctx context.Context, opts RedisOptions) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return newRedisQueue(client, opts.Key), nil
}

func newRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "admix:workflow-events"
	}
	return &RedisQueue{
		client:        client,
		pendingKey:    key,
		processingKey: key + ":processing",
		blockTimeout:  5 * time.Second,
	}
}

func (q *RedisQueue) Publish(ctx context.Context, event Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := q.client.LPush(ctx, q.pendingKey, raw).Err(); err != nil {
		return fmt.Errorf("failed to push event %s: %w", event.ID, err)
	}
	return nil
}

// requeueProcessing remet en attente les messages restés en cours après un arrêt brutal
func (q *RedisQueue) requeueProcessing(ctx context.Context) (int, error) {
	moved := 0
	for {
		err := q.client.LMove(ctx, q.processingKey, q.pendingKey, "LEFT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, err
		}
		moved++
	}
}

func (q *RedisQueue) Consume(ctx context.Context, concurrency int, handler Handler) error {
	log := zerolog.Ctx(ctx)
	if concurrency < 1 {
		concurrency = 1
	}

	moved, err := q.requeueProcessing(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover in-flight events: %w", err)
	}
	if moved > 0 {
		log.Warn().Int("count", moved).Msg("RedisQueue.Consume: recovered in-flight events")
	}

	var wg sync.WaitGroup
	for i := 1; i <= concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for ctx.Err() == nil {
				raw, err := q.client.BLMove(ctx, q.pendingKey, q.processingKey, "RIGHT", "LEFT", q.blockTimeout).Result()
				if err != nil {
					if errors.Is(err, redis.Nil) || ctx.Err() != nil {
						continue
					}
					log.Error().Err(err).Int("worker_id", workerID).Msg("RedisQueue.Consume: BLMOVE failed")
					time.Sleep(time.Second)
					continue
				}

				var event Event
				if err := json.Unmarshal([]byte(raw), &event); err != nil {
					log.Error().Err(err).Msg("RedisQueue.Consume: dropping undecodable event")
				} else {
					_ = handler(ctx, event)
				}

				// Acquittement même si le contexte est annulé
				if err := q.client.LRem(context.WithoutCancel(ctx), q.processingKey, 1, raw).Err(); err != nil {
					log.Error().Err(err).Str("event_id", event.ID).Msg("RedisQueue.Consume: failed to ack event")
				}
			}
		}(i)
	}
	wg.Wait()
	return ctx.Err()
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
