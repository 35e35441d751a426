package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"news_ingest/internal/domain"
)

// EventArticleAccepted is the event name carried by every message.
const EventArticleAccepted = "article.accepted"

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

// RabbitMQ announces accepted articles on a durable direct exchange. The
// channel runs in confirm mode, so Publish returns only after the broker
// has taken responsibility for the message.
type RabbitMQ struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	cfg    Config
	logger *slog.Logger
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	r := &RabbitMQ{conn: conn, cfg: cfg, logger: logger.With("component", "publisher")}
	if err := r.open(); err != nil {
		_ = r.Close()
		return nil, err
	}

	r.logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)
	return r, nil
}

func (r *RabbitMQ) open() error {
	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	r.ch = ch

	if err := declareTopology(ch, r.cfg); err != nil {
		return err
	}
	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("enable publisher confirms: %w", err)
	}
	return nil
}

func declareTopology(ch *amqp.Channel, cfg Config) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

type ArticleMessage struct {
	Event     string         `json:"event"`
	MessageID string         `json:"message_id"`
	Article   domain.Article `json:"article"`
	Timestamp time.Time      `json:"timestamp"`
}

func newMessage(article *domain.Article, now time.Time) ArticleMessage {
	return ArticleMessage{
		Event:     EventArticleAccepted,
		MessageID: uuid.NewString(),
		Article:   *article,
		Timestamp: now.UTC(),
	}
}

// Publish sends one persistent JSON message for an accepted article and
// waits for the broker to confirm it.
func (r *RabbitMQ) Publish(ctx context.Context, article *domain.Article) error {
	msg := newMessage(article, time.Now())

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	confirm, err := r.ch.PublishWithDeferredConfirmWithContext(ctx, r.cfg.Exchange, r.cfg.RoutingKey, false, false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    msg.MessageID,
			Type:         msg.Event,
			Timestamp:    msg.Timestamp,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publish article %d: %w", article.ID, err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("await confirm for article %d: %w", article.ID, err)
	}
	if !acked {
		return fmt.Errorf("broker rejected article %d", article.ID)
	}

	r.logger.Debug("published article", "id", article.ID, "source", article.Source, "message_id", msg.MessageID)
	return nil
}

// Close shuts the channel and the connection.
func (r *RabbitMQ) Close() error {
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn == nil || r.conn.IsClosed() {
		return nil
	}
	return r.conn.Close()
}
