// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package pipeline

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/rewindlab/riftrewind/internal/models"
)

// StageCommand is the single wire message of the pipeline. Quarter is
// empty for finale commands.
type StageCommand struct {
	JobID   string `json:"job_id"`
	Quarter string `json:"quarter,omitempty"`
}

// Validate checks the command against its topic's shape.
func (c *StageCommand) Validate(topic string) error {
	if c.JobID == "" {
		return fmt.Errorf("command missing job id")
	}
	switch topic {
	case TopicFetch, TopicProcess:
		if models.QuarterIndex(c.Quarter) == 0 {
			return fmt.Errorf("command for %s has invalid quarter %q", topic, c.Quarter)
		}
	case TopicFinale:
		if c.Quarter != "" {
			return fmt.Errorf("finale command must not carry a quarter")
		}
	}
	return nil
}

// Serializer handles command encoding for NATS messages.
type Serializer struct{}

// NewSerializer creates a new serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Marshal converts a command into a Watermill message with a fresh
// UUID.
func (s *Serializer) Marshal(cmd *StageCommand) (*message.Message, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("marshal command: %w", err)
	}
	return message.NewMessage(watermill.NewUUID(), data), nil
}

// Unmarshal decodes a Watermill message payload.
func (s *Serializer) Unmarshal(msg *message.Message) (*StageCommand, error) {
	var cmd StageCommand
	if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
		return nil, fmt.Errorf("unmarshal command: %w", err)
	}
	return &cmd, nil
}
