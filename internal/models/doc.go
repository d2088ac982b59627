// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

// Package models defines the shared data types of the journey pipeline:
// jobs and their quarter state machine, normalized match records, value
// profiles, quarter artifacts, season summaries, and the HTTP API
// envelope. The types here carry no behavior beyond validation and the
// quarter status ordering; all computation lives in the engine packages.
package models
