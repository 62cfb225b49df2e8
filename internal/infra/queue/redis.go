package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"matri-board/internal/domain"
	"matri-board/internal/infra/metrics"
)

// RedisContactQueue реализует domain.ContactQueue поверх списка Redis.
// Используется, когда брокер AMQP не настроен.
type RedisContactQueue struct {
	client *redis.Client
	key    string
}

var _ domain.ContactQueue = (*RedisContactQueue)(nil)

// NewRedis создаёт очередь на списке Redis.
func NewRedis(client *redis.Client, key string) *RedisContactQueue {
	return &RedisContactQueue{client: client, key: key}
}

// Enqueue добавляет задачу в конец списка.
func (q *RedisContactQueue) Enqueue(ctx context.Context, job domain.ContactJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("не удалось сериализовать задачу: %w", err)
	}
	start := time.Now()
	err = q.client.LPush(ctx, q.key, body).Err()
	metrics.ObserveNetworkRequest("redis", "lpush", q.key, start, err)
	if err != nil {
		return fmt.Errorf("не удалось добавить задачу в очередь: %w", err)
	}
	return nil
}

// Pop блокируется до появления следующей задачи.
func (q *RedisContactQueue) Pop(ctx context.Context) (domain.ContactJob, error) {
	res, err := q.client.BRPop(ctx, 0, q.key).Result()
	if err != nil {
		return domain.ContactJob{}, fmt.Errorf("не удалось получить задачу из очереди: %w", err)
	}
	if len(res) < 2 {
		return domain.ContactJob{}, fmt.Errorf("неожиданный ответ brpop")
	}
	var job domain.ContactJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return domain.ContactJob{}, fmt.Errorf("не удалось разобрать задачу: %w", err)
	}
	return job, nil
}
