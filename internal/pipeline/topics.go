// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

// Package pipeline wires the quarter processing stages over NATS
// JetStream via Watermill. Each stage consumes one topic, performs its
// work behind a compare-and-set status transition, and enqueues the
// next stage. Delivery is at-least-once; the CAS in the job registry
// makes redelivery a no-op that still forwards the chain.
package pipeline

// Topics of the journey stream. The stream subject wildcard covers all
// of them, including the poison queue.
const (
	TopicFetch   = "journey.fetch"
	TopicProcess = "journey.process"
	TopicFinale  = "journey.finale"
	TopicPoison  = "journey.poison"

	StreamName = "JOURNEY"
)

// StreamSubjects lists the subjects bound to the journey stream.
var StreamSubjects = []string{"journey.>"}
