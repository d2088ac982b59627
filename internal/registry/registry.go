// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

// Package registry is the durable job registry. It owns job records and
// their quarter status maps in BadgerDB and is the single writer of
// status transitions: every stage handler advances a quarter through a
// compare-and-set inside one Badger transaction, which is what makes
// at-least-once message delivery safe.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/rewindlab/riftrewind/internal/models"
)

// Key prefixes for BadgerDB storage
const (
	jobKeyPrefix = "job:"
	fpKeyPrefix  = "fp:"
)

// ErrJobNotFound is returned when a job ID has no record.
var ErrJobNotFound = errors.New("job not found")

// maxConflictRetries bounds commit reruns when concurrent deliveries
// hit the same job record. Every rerun follows another writer's commit,
// so the bound only trips under sustained contention far beyond the
// four stage handlers.
const maxConflictRetries = 32

// Registry is the BadgerDB-backed job registry.
type Registry struct {
	db *badger.DB
}

// New wraps an open BadgerDB handle. The handle is shared with the
// document store; the caller owns its lifecycle.
func New(db *badger.DB) *Registry {
	return &Registry{db: db}
}

func jobKey(id string) []byte {
	return []byte(jobKeyPrefix + id)
}

// fpKey indexes a job under its fingerprint for duplicate-request
// lookup. The nanosecond timestamp keeps keys unique and orders entries
// oldest-first within a fingerprint.
func fpKey(j *models.Job) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:%s", fpKeyPrefix, j.Fingerprint(), j.CreatedAt.UTC().UnixNano(), j.ID))
}

// CreateJob stores a new job record and its fingerprint index entry.
func (r *Registry) CreateJob(ctx context.Context, job *models.Job) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validate job: %w", err)
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(jobKey(job.ID), data); err != nil {
			return fmt.Errorf("set job: %w", err)
		}
		if err := txn.Set(fpKey(job), []byte(job.ID)); err != nil {
			return fmt.Errorf("set fingerprint index: %w", err)
		}
		return nil
	})
}

// GetJob retrieves a job by ID.
func (r *Registry) GetJob(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(jobKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrJobNotFound
		}
		if err != nil {
			return fmt.Errorf("get job: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &job)
		})
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// update runs a read-modify-write transaction, rerunning it when the
// commit loses a conflict race. Badger aborts all but one of the
// transactions that read and wrote the same key concurrently; the rerun
// re-reads the record and sees the winner's state, so the CAS checks
// inside fn stay correct.
func (r *Registry) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = r.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// SetPUUID caches the resolved player identifier on the job record.
func (r *Registry) SetPUUID(ctx context.Context, id, puuid string) error {
	return r.update(func(txn *badger.Txn) error {
		job, err := getJobTxn(txn, id)
		if err != nil {
			return err
		}
		job.PUUID = puuid
		return putJobTxn(txn, job)
	})
}

// TransitionQuarter advances one quarter of a job from the expected
// status to the next, recomputing the job-level status in the same
// transaction. It returns (false, nil) when the quarter is no longer in
// the expected status: under at-least-once delivery that means another
// delivery already performed this step, and the caller should treat the
// work as done and move on. Illegal transitions are an error.
func (r *Registry) TransitionQuarter(ctx context.Context, id, quarter string, from, to models.QuarterStatus) (bool, error) {
	if models.QuarterIndex(quarter) == 0 {
		return false, fmt.Errorf("unknown quarter %q", quarter)
	}
	if !from.CanTransitionTo(to) {
		return false, fmt.Errorf("illegal transition %s -> %s", from, to)
	}

	applied := false
	err := r.update(func(txn *badger.Txn) error {
		applied = false
		job, err := getJobTxn(txn, id)
		if err != nil {
			return err
		}
		if job.Quarters[quarter] != from {
			return nil
		}
		job.Quarters[quarter] = to
		job.Status = job.OverallStatus()
		if err := putJobTxn(txn, job); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

// FindReusable returns the newest completed job with the given
// fingerprint, or ErrJobNotFound when no completed run exists.
func (r *Registry) FindReusable(ctx context.Context, fingerprint string) (*models.Job, error) {
	var found *models.Job

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(fpKeyPrefix + fingerprint + ":")
		// Reverse iteration needs a seek key past the whole prefix range.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			var id string
			if err := it.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			}); err != nil {
				continue
			}

			job, err := getJobTxn(txn, id)
			if err != nil {
				continue
			}
			if job.Status == models.JobCompleted {
				found = job
				return nil
			}
		}
		return ErrJobNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ListJobs returns up to limit jobs, newest first. limit <= 0 means no
// limit.
func (r *Registry) ListJobs(ctx context.Context, limit int) ([]*models.Job, error) {
	var jobs []*models.Job

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(jobKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var job models.Job
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &job)
			}); err != nil {
				continue
			}
			jobs = append(jobs, &job)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func getJobTxn(txn *badger.Txn, id string) (*models.Job, error) {
	item, err := txn.Get(jobKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	var job models.Job
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &job)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &job, nil
}

func putJobTxn(txn *badger.Txn, job *models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := txn.Set(jobKey(job.ID), data); err != nil {
		return fmt.Errorf("set job: %w", err)
	}
	return nil
}
