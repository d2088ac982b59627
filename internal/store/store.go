// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

// Package store is the document store for pipeline outputs: raw quarter
// datasets, processed quarter artifacts, and the finale season summary.
// Documents are addressed by (jobID, quarter) and written whole; writes
// are deterministic for a given input, so at-least-once redelivery
// overwrites a document with identical content.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/rewindlab/riftrewind/internal/models"
)

// Key prefixes for BadgerDB storage
const (
	datasetKeyPrefix  = "ds:"
	artifactKeyPrefix = "art:"
	summaryKeyPrefix  = "sum:"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Store is the BadgerDB-backed document store.
type Store struct {
	db *badger.DB
}

// New wraps an open BadgerDB handle. The handle is shared with the job
// registry; the caller owns its lifecycle.
func New(db *badger.DB) *Store {
	return &Store{db: db}
}

// Open opens the BadgerDB database backing both the registry and the
// store, routing Badger's own logging through zerolog.
func Open(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = badgerLogger{}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return db, nil
}

func datasetKey(jobID, quarter string) []byte {
	return []byte(datasetKeyPrefix + jobID + ":" + quarter)
}

func artifactKey(jobID, quarter string) []byte {
	return []byte(artifactKeyPrefix + jobID + ":" + quarter)
}

func summaryKey(jobID string) []byte {
	return []byte(summaryKeyPrefix + jobID + ":" + models.FinaleKey)
}

// PutDataset stores the raw match records of one quarter.
func (s *Store) PutDataset(ctx context.Context, ds *models.QuarterDataset) error {
	return s.put(datasetKey(ds.JobID, ds.Quarter), ds)
}

// GetDataset retrieves the raw match records of one quarter.
func (s *Store) GetDataset(ctx context.Context, jobID, quarter string) (*models.QuarterDataset, error) {
	var ds models.QuarterDataset
	if err := s.get(datasetKey(jobID, quarter), &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// PutArtifact stores the processed output of one quarter.
func (s *Store) PutArtifact(ctx context.Context, a *models.QuarterArtifact) error {
	return s.put(artifactKey(a.JobID, a.Quarter), a)
}

// GetArtifact retrieves the processed output of one quarter.
func (s *Store) GetArtifact(ctx context.Context, jobID, quarter string) (*models.QuarterArtifact, error) {
	var a models.QuarterArtifact
	if err := s.get(artifactKey(jobID, quarter), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListArtifacts returns a job's stored quarter artifacts in quarter
// order, skipping quarters that have none.
func (s *Store) ListArtifacts(ctx context.Context, jobID string) ([]models.QuarterArtifact, error) {
	var out []models.QuarterArtifact
	for _, q := range models.Quarters {
		a, err := s.GetArtifact(ctx, jobID, q)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

// ListDatasets returns a job's stored quarter datasets in quarter
// order, skipping quarters that have none.
func (s *Store) ListDatasets(ctx context.Context, jobID string) ([]models.QuarterDataset, error) {
	var out []models.QuarterDataset
	for _, q := range models.Quarters {
		ds, err := s.GetDataset(ctx, jobID, q)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *ds)
	}
	return out, nil
}

// PutSummary stores the finale season summary of a job.
func (s *Store) PutSummary(ctx context.Context, sum *models.SeasonSummary) error {
	return s.put(summaryKey(sum.JobID), sum)
}

// GetSummary retrieves the finale season summary of a job.
func (s *Store) GetSummary(ctx context.Context, jobID string) (*models.SeasonSummary, error) {
	var sum models.SeasonSummary
	if err := s.get(summaryKey(jobID), &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

func (s *Store) put(key []byte, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set document: %w", err)
		}
		return nil
	})
}

func (s *Store) get(key []byte, doc any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get document: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, doc)
		})
	})
}
