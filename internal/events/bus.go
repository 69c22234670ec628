// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

// Package events wires the catalog update stream into the recommender.
//
// Content updates arrive as messages on an in-process Watermill pub/sub.
// The consumer applies each update to the in-memory catalog and invalidates
// the recommender's similarity cache for the affected content id, so
// metadata edits take effect without a restart.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/uday68/mindhangar-sub001/internal/recommend"
)

// TopicContent is the catalog update topic.
const TopicContent = "catalog.content"

// Event kinds carried on TopicContent.
const (
	EventContentUpsert = "upsert"
	EventContentDelete = "delete"
)

// ContentEvent is one catalog mutation.
type ContentEvent struct {
	// Kind is EventContentUpsert or EventContentDelete.
	Kind string `json:"kind"`

	// Item is the full item for upserts. Only Item.ID is consulted for
	// deletes.
	Item recommend.ContentItem `json:"item"`
}

// Config holds tuning for the event bus.
type Config struct {
	// BufferSize is the per-subscriber channel buffer.
	BufferSize int64

	// RetryMaxRetries caps handler retries before a message is dropped.
	RetryMaxRetries int

	// RetryInterval is the initial retry backoff.
	RetryInterval time.Duration

	// CloseTimeout bounds router shutdown.
	CloseTimeout time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize:      256,
		RetryMaxRetries: 3,
		RetryInterval:   100 * time.Millisecond,
		CloseTimeout:    10 * time.Second,
	}
}

// Invalidator receives similarity-cache invalidations for updated content.
// Satisfied by *recommend.Engine.
type Invalidator interface {
	InvalidateContent(id recommend.ContentID)
}

// Bus is the in-process catalog event pipeline: publisher, subscriber, and
// the router that applies updates to the catalog.
type Bus struct {
	pubsub  *gochannel.GoChannel
	router  *message.Router
	catalog *recommend.MemoryCatalog
	inval   Invalidator
	logger  zerolog.Logger
}

// NewBus creates the event bus and registers the catalog update handler.
// Call Run to start consuming.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBus(cfg Config, catalog *recommend.MemoryCatalog, inval Invalidator, logger zerolog.Logger) (*Bus, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}

	wmLogger := NewLoggerAdapter(logger.With().Str("component", "events").Logger())

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.BufferSize,
	}, wmLogger)

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      cfg.RetryMaxRetries,
			InitialInterval: cfg.RetryInterval,
			Logger:          wmLogger,
		}.Middleware,
	)

	b := &Bus{
		pubsub:  pubsub,
		router:  router,
		catalog: catalog,
		inval:   inval,
		logger:  logger.With().Str("component", "events").Logger(),
	}

	router.AddNoPublisherHandler(
		"catalog-content-updates",
		TopicContent,
		pubsub,
		b.handleContent,
	)

	return b, nil
}

// Run starts the router and blocks until ctx is canceled or the router
// stops. Safe to run under a supervisor.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running returns a channel closed once the router is consuming. Useful in
// tests to avoid publishing before the handler is attached.
func (b *Bus) Running() <-chan struct{} {
	return b.router.Running()
}

// Close shuts down the router and the underlying pub/sub.
func (b *Bus) Close() error {
	if err := b.router.Close(); err != nil {
		return fmt.Errorf("close router: %w", err)
	}
	return b.pubsub.Close()
}

// PublishUpsert emits a catalog upsert event.
func (b *Bus) PublishUpsert(item recommend.ContentItem) error {
	return b.publish(ContentEvent{Kind: EventContentUpsert, Item: item})
}

// PublishDelete emits a catalog delete event.
func (b *Bus) PublishDelete(id recommend.ContentID) error {
	return b.publish(ContentEvent{Kind: EventContentDelete, Item: recommend.ContentItem{ID: id}})
}

func (b *Bus) publish(ev ContentEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal content event: %w", err)
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	if err := b.pubsub.Publish(TopicContent, msg); err != nil {
		return fmt.Errorf("publish content event: %w", err)
	}
	return nil
}

// handleContent applies one catalog mutation. Undecodable payloads are
// dropped without retry since they can never succeed.
func (b *Bus) handleContent(msg *message.Message) error {
	var ev ContentEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		b.logger.Error().Err(err).Str("message_id", msg.UUID).Msg("dropping undecodable content event")
		return nil
	}
	if ev.Item.ID == "" {
		b.logger.Warn().Str("message_id", msg.UUID).Msg("dropping content event without id")
		return nil
	}

	switch ev.Kind {
	case EventContentDelete:
		b.catalog.Delete(ev.Item.ID)
	case EventContentUpsert:
		b.catalog.Upsert(ev.Item)
	default:
		b.logger.Warn().Str("kind", ev.Kind).Str("message_id", msg.UUID).Msg("dropping content event with unknown kind")
		return nil
	}

	if b.inval != nil {
		b.inval.InvalidateContent(ev.Item.ID)
	}
	b.logger.Debug().
		Str("kind", ev.Kind).
		Str("content_id", string(ev.Item.ID)).
		Msg("catalog event applied")
	return nil
}
