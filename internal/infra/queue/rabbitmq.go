package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"matri-board/internal/domain"
	"matri-board/internal/infra/metrics"
)

// RabbitContactQueue реализует domain.ContactQueue поверх RabbitMQ.
type RabbitContactQueue struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	queue      string
	deliveries <-chan amqp.Delivery
}

var _ domain.ContactQueue = (*RabbitContactQueue)(nil)

// NewRabbit подключается к брокеру и объявляет очередь.
func NewRabbit(url, queue string) (*RabbitContactQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("не удалось открыть канал rabbitmq: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("не удалось объявить очередь %s: %w", queue, err)
	}
	return &RabbitContactQueue{conn: conn, ch: ch, queue: queue}, nil
}

// Enqueue публикует задачу в очередь.
func (q *RabbitContactQueue) Enqueue(ctx context.Context, job domain.ContactJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("не удалось сериализовать задачу: %w", err)
	}
	start := time.Now()
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("не удалось опубликовать задачу: %w", err)
	}
	return nil
}

// Pop блокируется до появления следующей задачи.
func (q *RabbitContactQueue) Pop(ctx context.Context) (domain.ContactJob, error) {
	if q.deliveries == nil {
		deliveries, err := q.ch.Consume(q.queue, "", false, false, false, false, nil)
		if err != nil {
			return domain.ContactJob{}, fmt.Errorf("не удалось подписаться на очередь: %w", err)
		}
		q.deliveries = deliveries
	}

	select {
	case <-ctx.Done():
		return domain.ContactJob{}, ctx.Err()
	case d, ok := <-q.deliveries:
		if !ok {
			return domain.ContactJob{}, fmt.Errorf("канал доставки закрыт")
		}
		var job domain.ContactJob
		if err := json.Unmarshal(d.Body, &job); err != nil {
			_ = d.Nack(false, false)
			return domain.ContactJob{}, fmt.Errorf("не удалось разобрать задачу: %w", err)
		}
		if err := d.Ack(false); err != nil {
			return domain.ContactJob{}, fmt.Errorf("не удалось подтвердить задачу: %w", err)
		}
		return job, nil
	}
}

// Close закрывает канал и соединение.
func (q *RabbitContactQueue) Close() {
	if q.ch != nil {
		_ = q.ch.Close()
	}
	if q.conn != nil {
		_ = q.conn.Close()
	}
}
