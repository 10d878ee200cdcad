package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/streadway/amqp"

	"github.com/sunzhengang/github-topics-trending/internal/models"
	"github.com/sunzhengang/github-topics-trending/pkg/errors"
	"github.com/sunzhengang/github-topics-trending/pkg/logger"
)

const batchType = "repository.batch"

// * Batch is one fetch run handed to the downstream trending pipeline
type Batch struct {
	ID           string              `json:"id"`
	Topic        string              `json:"topic"`
	Query        string              `json:"query"`
	Sort         string              `json:"sort"`
	FetchedAt    time.Time           `json:"fetched_at"`
	Complete     bool                `json:"complete"`
	Reason       string              `json:"reason"`
	Count        int                 `json:"count"`
	Repositories []models.Repository `json:"repositories"`
}

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

func NewRabbitMQ(url, queue string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, queueError("Failed to connect to RabbitMQ", "Could not dial the broker", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, queueError("Failed to open RabbitMQ channel", "Could not open a channel on the connection", err)
	}

	if _, err := channel.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, queueError("Failed to declare queue", fmt.Sprintf("Could not declare queue %q", queue), err)
	}

	logger.Info("connected to RabbitMQ, publishing to queue %s", queue)
	return &RabbitMQ{
		conn:    conn,
		channel: channel,
		queue:   queue,
	}, nil
}

func (r *RabbitMQ) Publish(ctx context.Context, batch Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := encode(batch)
	if err != nil {
		return queueError("Failed to encode batch", fmt.Sprintf("Could not marshal batch %s", batch.ID), err)
	}

	if err := r.channel.Publish(
		"",
		r.queue,
		false,
		false,
		msg,
	); err != nil {
		return queueError("Failed to publish batch", fmt.Sprintf("Could not publish batch %s to %q", batch.ID, r.queue), err)
	}

	logger.Info("published batch %s with %d repositories to %s", batch.ID, batch.Count, r.queue)
	return nil
}

// * Consume hands every batch on the queue to handler until ctx is done or
// * the channel closes. Undecodable messages are logged and skipped.
func (r *RabbitMQ) Consume(ctx context.Context, handler func(Batch) error) error {
	msgs, err := r.channel.Consume(
		r.queue,
		"",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return queueError("Failed to consume queue", fmt.Sprintf("Could not register a consumer on %q", r.queue), err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return nil
			}

			batch, err := decode(d)
			if err != nil {
				logger.Error("Error decoding message: %v", err)
				continue
			}

			if err := handler(batch); err != nil {
				logger.Error("Error handling batch %s: %v", batch.ID, err)
			}
		}
	}
}

func (r *RabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil {
		return err
	}
	return r.conn.Close()
}

func encode(batch Batch) (amqp.Publishing, error) {
	body, err := json.Marshal(batch)
	if err != nil {
		return amqp.Publishing{}, err
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    batch.ID,
		Timestamp:    batch.FetchedAt,
		Type:         batchType,
		Body:         body,
	}, nil
}

func decode(d amqp.Delivery) (Batch, error) {
	if d.Type != "" && d.Type != batchType {
		return Batch{}, fmt.Errorf("unexpected message type %q", d.Type)
	}

	var batch Batch
	if err := json.Unmarshal(d.Body, &batch); err != nil {
		return Batch{}, err
	}
	return batch, nil
}

func queueError(title, detail string, cause error) error {
	return errors.New(errors.RefQueue, title, detail, cause, errors.LevelError).
		WithStatus(http.StatusServiceUnavailable)
}
