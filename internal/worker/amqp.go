package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jonathan/cv-job-matcher/internal/types"
	"github.com/streadway/amqp"
)

// Queue defaults
const (
	DefaultQueue    = "profile_requests"
	DefaultExchange = "profile_updates"
	DefaultWorkers  = 3
)

// RoutingKey is the topic a job's status updates are published under
func RoutingKey(jobID string) string {
	return "profile." + jobID
}

// AMQPPublisher publishes job status updates to a topic exchange
type AMQPPublisher struct {
	conn     *amqp.Connection
	exchange string
}

// NewAMQPPublisher declares exchange as a durable topic exchange
func NewAMQPPublisher(conn *amqp.Connection, exchange string) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &AMQPPublisher{conn: conn, exchange: exchange}, nil
}

// PublishStatus publishes status under RoutingKey(status.ID)
func (p *AMQPPublisher) PublishStatus(_ context.Context, status types.JobStatus) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	body, err := json.Marshal(statusMessage{JobStatus: status, Timestamp: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	return ch.Publish(
		p.exchange,
		RoutingKey(status.ID),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

type statusMessage struct {
	types.JobStatus
	Timestamp time.Time `json:"timestamp"`
}

// PoolOptions configures a consumer pool
type PoolOptions struct {
	Queue   string
	Workers int
}

// Pool runs consumers over one AMQP connection, one channel each
type Pool struct {
	conn      *amqp.Connection
	processor *Processor
	opts      PoolOptions
}

// NewPool creates a Pool
func NewPool(conn *amqp.Connection, processor *Processor, opts PoolOptions) *Pool {
	if opts.Queue == "" {
		opts.Queue = DefaultQueue
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Pool{conn: conn, processor: processor, opts: opts}
}

// Run blocks until ctx is done or every consumer has stopped. Messages are
// acked after processing; invalid ones are dropped and failed ones are
// requeued once.
func (p *Pool) Run(ctx context.Context) error {
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for i := range p.opts.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("[worker] consumer %d started on %s", i+1, p.opts.Queue)
			if err := p.consume(ctx, i); err != nil {
				errOnce.Do(func() { firstErr = err })
			}
		}()
	}
	wg.Wait()
	return firstErr
}

func (p *Pool) consume(ctx context.Context, id int) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("consumer %d: failed to open channel: %w", id+1, err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		p.opts.Queue, // queue name
		true,         // durable (survives broker restarts)
		false,        // auto-delete when unused
		false,        // exclusive
		false,        // no-wait
		nil,          // arguments
	); err != nil {
		return fmt.Errorf("consumer %d: failed to declare queue: %w", id+1, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("consumer %d: failed to set qos: %w", id+1, err)
	}

	msgs, err := ch.Consume(
		p.opts.Queue, // queue name
		"",           // consumer tag
		false,        // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("consumer %d: failed to consume: %w", id+1, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("consumer %d: delivery channel closed", id+1)
			}
			p.handle(ctx, id, msg)
		}
	}
}

func (p *Pool) handle(ctx context.Context, id int, msg amqp.Delivery) {
	err := p.processor.Process(ctx, msg.Body)
	var invalid *InvalidJobError
	switch {
	case err == nil:
		_ = msg.Ack(false)
	case errors.As(err, &invalid) || msg.Redelivered:
		log.Printf("[worker] consumer %d dropping message: %v", id+1, err)
		_ = msg.Nack(false, false)
	default:
		_ = msg.Nack(false, true)
	}
}
