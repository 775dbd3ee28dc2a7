package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const rabbitRoutingKey = "workflow.event"

type RabbitMQOptions struct {
	URL      string
	Exchange string
	Queue    string
}

// RabbitMQQueue exchange direct durable, messages persistants, ack manuel
type RabbitMQQueue struct {
	conn     *amqp.Connection
	exchange string
	queue    string

	mu      sync.Mutex
	publish *amqp.Channel
}

// dialRabbitMQ retente la connexion avec un backoff exponentiel
func dialRabbitMQ(ctx context.Context, url string) (*amqp.Connection, error) {
	log := zerolog.Ctx(ctx)
	operation := func() (*amqp.Connection, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Error().Err(err).Msg("Failed to connect to RabbitMQ. Retrying...")
			return nil, err
		}
		return conn, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 10 * time.Second
	conn, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(5))
	if err != nil {
		return nil, err
	}
	log.Info().Msg("Successfully connected to RabbitMQ")
	return conn, nil
}

func NewRabbitMQQueue(ctx context.Context, opts RabbitMQOptions) (*RabbitMQQueue, error) {
	conn, err := dialRabbitMQ(ctx, opts.URL)
	if err != nil {
		return nil, err
	}

	q := &RabbitMQQueue{conn: conn, exchange: opts.Exchange, queue: opts.Queue}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := q.declare(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	q.publish = ch
	return q, nil
}

func (q *RabbitMQQueue) declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(q.exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", q.exchange, err)
	}
	if _, err := ch.QueueDeclare(q.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", q.queue, err)
	}
	if err := ch.QueueBind(q.queue, rabbitRoutingKey, q.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", q.queue, err)
	}
	return nil
}

func (q *RabbitMQQueue) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	return q.publish.PublishWithContext(ctx, q.exchange, rabbitRoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         event.Name,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

func (q *RabbitMQQueue) Consume(ctx context.Context, concurrency int, handler Handler) error {
	log := zerolog.Ctx(ctx)
	if concurrency < 1 {
		concurrency = 1
	}

	ch, err := q.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Error().Str("queue", q.queue).Msg("failed to set QoS")
		return err
	}

	deliveries, err := ch.Consume(q.queue, "", false, false, false, false, nil)
	if err != nil {
		log.Error().Str("queue", q.queue).Msg("failed to consume queue")
		return err
	}

	log.Info().Str("queue", q.queue).Str("exchange", q.exchange).Int("workers", concurrency).Msg("workflow consumer started")

	jobs := make(chan amqp.Delivery, concurrency)
	var wg sync.WaitGroup
	for i := 1; i <= concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for msg := range jobs {
				var event Event
				if err := json.Unmarshal(msg.Body, &event); err != nil {
					log.Error().Err(err).Int("worker_id", workerID).Msg("dropping undecodable event")
				} else {
					_ = handler(ctx, event)
				}
				if err := msg.Ack(false); err != nil {
					log.Error().Err(err).Msg("failed to acknowledge message")
				}
			}
		}(i)
	}

	for {
		select {
		case delivery, ok := <-deliveries:
			if !ok {
				close(jobs)
				wg.Wait()
				return nil
			}
			jobs <- delivery
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		}
	}
}

func (q *RabbitMQQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.publish != nil {
		q.publish.Close()
	}
	return q.conn.Close()
}
