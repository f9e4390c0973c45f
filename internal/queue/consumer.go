package queue

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type MessageHandler interface {
	Handle(ctx context.Context, msg redis.XMessage) error
}

const defaultMaxDeliveries = 5

type ConsumerConfig struct {
	Stream        string
	Group         string
	Name          string
	ClaimInterval time.Duration
	// MaxDeliveries caps how often one entry is handed to a handler before it
	// is moved to DeadLetterStream.
	MaxDeliveries    int64
	DeadLetterStream string
}

// Consumer reads the job stream as one member of a consumer group. Entries
// left pending by a crashed member are claimed after ClaimInterval.
type Consumer struct {
	client  *redis.Client
	cfg     ConsumerConfig
	logger  zerolog.Logger
	handler MessageHandler
}

func NewConsumer(client *redis.Client, cfg ConsumerConfig, logger zerolog.Logger, handler MessageHandler) *Consumer {
	if cfg.MaxDeliveries <= 0 {
		cfg.MaxDeliveries = defaultMaxDeliveries
	}
	if cfg.DeadLetterStream == "" {
		cfg.DeadLetterStream = cfg.Stream + ":dead"
	}
	return &Consumer{
		client:  client,
		cfg:     cfg,
		logger:  logger,
		handler: handler,
	}
}

// EnsureGroup creates the stream and the consumer group if they are missing.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (c *Consumer) Start(ctx context.Context) error {
	if err := c.EnsureGroup(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(c.cfg.ClaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := c.read(ctx); err != nil && ctx.Err() == nil {
				c.logger.Error().Err(err).Msg("stream read error")
				time.Sleep(2 * time.Second)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.claimStalled(ctx); err != nil && ctx.Err() == nil {
				c.logger.Error().Err(err).Msg("claim stalled error")
			}
		default:
		}
	}
}

func (c *Consumer) read(ctx context.Context) error {
	result, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Name,
		Streams:  []string{c.cfg.Stream, ">"},
		Count:    10,
		Block:    5 * time.Second,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	for _, stream := range result {
		for _, msg := range stream.Messages {
			c.process(ctx, msg)
		}
	}
	return nil
}

// process acks only handled messages; failures stay pending for a later claim.
func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	if err := c.handler.Handle(ctx, msg); err != nil {
		c.logger.Error().
			Err(err).
			Str("message_id", msg.ID).
			Msg("handle message failed")
		return
	}
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
		c.logger.Error().Err(err).Str("message_id", msg.ID).Msg("ack failed")
	}
}

func (c *Consumer) claimStalled(ctx context.Context) error {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.cfg.Stream,
		Group:  c.cfg.Group,
		Idle:   c.cfg.ClaimInterval,
		Start:  "-",
		End:    "+",
		Count:  10,
	}).Result()
	if err != nil {
		return err
	}

	retry, exhausted := c.partition(pending)
	for _, entry := range exhausted {
		if err := c.deadLetter(ctx, entry); err != nil {
			c.logger.Error().Err(err).Str("message_id", entry.ID).Msg("dead letter error")
		}
	}

	for _, entry := range retry {
		msgs, err := c.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   c.cfg.Stream,
			Group:    c.cfg.Group,
			Consumer: c.cfg.Name,
			MinIdle:  c.cfg.ClaimInterval,
			Messages: []string{entry.ID},
		}).Result()
		if err != nil {
			c.logger.Error().Err(err).Msg("claim error")
			continue
		}
		for _, msg := range msgs {
			c.process(ctx, msg)
		}
	}
	return nil
}

// partition splits idle pending entries into those worth another delivery and
// those that reached MaxDeliveries.
func (c *Consumer) partition(pending []redis.XPendingExt) (retry, exhausted []redis.XPendingExt) {
	for _, entry := range pending {
		switch {
		case entry.Idle < c.cfg.ClaimInterval:
		case entry.RetryCount >= c.cfg.MaxDeliveries:
			exhausted = append(exhausted, entry)
		default:
			retry = append(retry, entry)
		}
	}
	return retry, exhausted
}

// deadLetter copies the entry to the dead-letter stream and acks it so it
// stops occupying the pending list.
func (c *Consumer) deadLetter(ctx context.Context, entry redis.XPendingExt) error {
	msgs, err := c.client.XRangeN(ctx, c.cfg.Stream, entry.ID, entry.ID, 1).Result()
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		values := make(map[string]interface{}, len(msg.Values)+2)
		for k, v := range msg.Values {
			values[k] = v
		}
		values["sourceId"] = msg.ID
		values["deliveries"] = entry.RetryCount
		if err := c.client.XAdd(ctx, &redis.XAddArgs{Stream: c.cfg.DeadLetterStream, Values: values}).Err(); err != nil {
			return err
		}
	}

	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, entry.ID).Err(); err != nil {
		return err
	}
	c.logger.Error().
		Str("message_id", entry.ID).
		Int64("deliveries", entry.RetryCount).
		Str("dead_letter_stream", c.cfg.DeadLetterStream).
		Msg("job gave up after repeated failures")
	return nil
}
