// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package pipeline

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"

	"github.com/rewindlab/riftrewind/internal/config"
	"github.com/rewindlab/riftrewind/internal/metrics"
)

// NewRouter builds the Watermill router with the stage handlers wired
// to their topics. Middleware in order (outer to inner): panic
// recovery, retry with exponential backoff, poison queue for messages
// that exhaust their retries.
func NewRouter(cfg *config.NATSConfig, sub message.Subscriber, pub message.Publisher, h *Handlers, logger watermill.LoggerAdapter) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.RouterCloseTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	router.AddPlugin(plugin.SignalsHandler)

	router.AddMiddleware(middleware.Recoverer)

	retry := middleware.Retry{
		MaxRetries:      cfg.RouterRetryCount,
		InitialInterval: cfg.RouterRetryInitialInterval,
		MaxInterval:     time.Minute,
		Multiplier:      2.0,
		Logger:          logger,
	}
	router.AddMiddleware(retry.Middleware)

	if cfg.RouterPoisonQueueEnabled {
		poison, err := middleware.PoisonQueue(pub, cfg.RouterPoisonQueueTopic)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		router.AddMiddleware(poison)
	}

	router.AddConsumerHandler("journey-fetch", TopicFetch, sub, instrument(TopicFetch, h.Fetch))
	router.AddConsumerHandler("journey-process", TopicProcess, sub, instrument(TopicProcess, h.Process))
	router.AddConsumerHandler("journey-finale", TopicFinale, sub, instrument(TopicFinale, h.Finale))
	router.AddConsumerHandler("journey-poison", TopicPoison, sub, instrument(TopicPoison, h.Poison))

	return router, nil
}

func instrument(topic string, fn message.NoPublishHandlerFunc) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		err := fn(msg)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.MessagesHandled.WithLabelValues(topic, outcome).Inc()
		return err
	}
}
