package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	eventRiskSaved   = "risk_factors.saved"
	eventRiskUpdated = "risk_factors.updated"
	eventRiskDeleted = "risk_factors.deleted"
)

// riskAssessedEvent is published whenever a user's stored risk assessment changes.
type riskAssessedEvent struct {
	Type         string    `json:"type"`
	UserID       int       `json:"user_id"`
	RiskScore    int       `json:"risk_score"`
	RiskLevel    riskLevel `json:"risk_level"`
	TotalFactors int       `json:"total_factors"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func newRiskEvent(typ string, rec riskFactorRecord, now time.Time) riskAssessedEvent {
	return riskAssessedEvent{
		Type:         typ,
		UserID:       rec.UserID,
		RiskScore:    rec.RiskScore,
		RiskLevel:    riskLevelFor(rec.RiskScore),
		TotalFactors: activeFactorCount(rec.factors()),
		OccurredAt:   now.UTC(),
	}
}

type riskEventPublisher interface {
	Publish(ctx context.Context, ev riskAssessedEvent) error
	Close() error
}

/* ─── Log publisher ──────────────────────────────────────────────────── */

// logPublisher is used when no broker is configured.
type logPublisher struct{}

func (logPublisher) Publish(_ context.Context, ev riskAssessedEvent) error {
	log.Printf("[event] %s user=%d score=%d level=%s", ev.Type, ev.UserID, ev.RiskScore, ev.RiskLevel)
	return nil
}

func (logPublisher) Close() error { return nil }

/* ─── RabbitMQ publisher ─────────────────────────────────────────────── */

// amqpPublisher publishes JSON events to a single queue on the default exchange.
// amqp channels are not safe for concurrent publishing, so mu serializes Publish.
type amqpPublisher struct {
	queue string
	conn  *amqp.Connection

	mu      sync.Mutex
	channel *amqp.Channel
}

func newAMQPPublisher(addr, queue string) (*amqpPublisher, error) {
	conn, err := amqp.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	log.Printf("[amqp] connected, publishing to %s", queue)
	return &amqpPublisher{queue: queue, conn: conn, channel: ch}, nil
}

func (p *amqpPublisher) Publish(ctx context.Context, ev riskAssessedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.PublishWithContext(ctx,
		"",      // exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    ev.OccurredAt,
			Type:         ev.Type,
			Body:         body,
		})
}

func (p *amqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.Close(); err != nil {
		log.Printf("[amqp] error closing channel: %v", err)
	}
	return p.conn.Close()
}
