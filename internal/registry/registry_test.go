// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/rewindlab/riftrewind/internal/models"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()

	opts := badger.DefaultOptions(t.TempDir())
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close badger: %v", err)
		}
	})
	return New(db)
}

func newJob(id string, createdAt time.Time) *models.Job {
	quarters := make(map[string]models.QuarterStatus, len(models.Quarters))
	for _, q := range models.Quarters {
		quarters[q] = models.StatusPending
	}
	return &models.Job{
		ID:        id,
		Platform:  "euw1",
		RiotID:    "Faker#KR1",
		Archetype: "sage",
		CreatedAt: createdAt,
		Status:    models.JobQueued,
		Quarters:  quarters,
	}
}

func TestRegistry_CreateAndGet(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	job := newJob("job-1", time.Now())
	if err := r.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	got, err := r.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.RiotID != "Faker#KR1" || got.Status != models.JobQueued {
		t.Errorf("got job %+v", got)
	}
	if len(got.Quarters) != 4 {
		t.Errorf("quarters = %v", got.Quarters)
	}
}

func TestRegistry_GetJobNotFound(t *testing.T) {
	r := testRegistry(t)

	_, err := r.GetJob(context.Background(), "missing")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
}

func TestRegistry_CreateJobInvalid(t *testing.T) {
	r := testRegistry(t)

	job := newJob("job-1", time.Now())
	job.RiotID = "no-tag"
	if err := r.CreateJob(context.Background(), job); err == nil {
		t.Error("expected validation error for riot id without tag")
	}
}

func TestRegistry_TransitionQuarter(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	if err := r.CreateJob(ctx, newJob("job-1", time.Now())); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	applied, err := r.TransitionQuarter(ctx, "job-1", "Q1", models.StatusPending, models.StatusFetching)
	if err != nil {
		t.Fatalf("TransitionQuarter: %v", err)
	}
	if !applied {
		t.Fatal("expected transition to apply")
	}

	got, err := r.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Quarters["Q1"] != models.StatusFetching {
		t.Errorf("Q1 = %s, want fetching", got.Quarters["Q1"])
	}
	if got.Status != models.JobRunning {
		t.Errorf("status = %s, want running", got.Status)
	}
}

func TestRegistry_TransitionQuarterStaleCAS(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	if err := r.CreateJob(ctx, newJob("job-1", time.Now())); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if _, err := r.TransitionQuarter(ctx, "job-1", "Q1", models.StatusPending, models.StatusFetching); err != nil {
		t.Fatalf("first transition: %v", err)
	}

	// A redelivered message observes a stale expected status: not an
	// error, just already done.
	applied, err := r.TransitionQuarter(ctx, "job-1", "Q1", models.StatusPending, models.StatusFetching)
	if err != nil {
		t.Fatalf("TransitionQuarter: %v", err)
	}
	if applied {
		t.Error("stale CAS must not apply")
	}

	got, _ := r.GetJob(ctx, "job-1")
	if got.Quarters["Q1"] != models.StatusFetching {
		t.Errorf("Q1 = %s, want fetching untouched", got.Quarters["Q1"])
	}
}

func TestRegistry_ConcurrentTransitionsSameJob(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	if err := r.CreateJob(ctx, newJob("job-1", time.Now())); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	// All writers hit the same job record, so Badger's SSI aborts the
	// losers of each commit race. The registry must absorb those aborts:
	// per quarter exactly one CAS applies and none surface an error.
	const writersPerQuarter = 4
	applied := make(map[string]*atomic.Int32, len(models.Quarters))
	for _, q := range models.Quarters {
		applied[q] = &atomic.Int32{}
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(models.Quarters)*writersPerQuarter+1)
	for _, q := range models.Quarters {
		for i := 0; i < writersPerQuarter; i++ {
			wg.Add(1)
			go func(q string) {
				defer wg.Done()
				ok, err := r.TransitionQuarter(ctx, "job-1", q, models.StatusPending, models.StatusFetching)
				if err != nil {
					errs <- err
					return
				}
				if ok {
					applied[q].Add(1)
				}
			}(q)
		}
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := r.SetPUUID(ctx, "job-1", "puuid-race"); err != nil {
			errs <- err
		}
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent write: %v", err)
	}
	for _, q := range models.Quarters {
		if n := applied[q].Load(); n != 1 {
			t.Errorf("quarter %s applied %d times, want 1", q, n)
		}
	}

	got, err := r.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.PUUID != "puuid-race" {
		t.Errorf("puuid = %q, want puuid-race", got.PUUID)
	}
	for _, q := range models.Quarters {
		if got.Quarters[q] != models.StatusFetching {
			t.Errorf("quarter %s = %s, want fetching", q, got.Quarters[q])
		}
	}
}

func TestRegistry_TransitionQuarterIllegal(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	if err := r.CreateJob(ctx, newJob("job-1", time.Now())); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	if _, err := r.TransitionQuarter(ctx, "job-1", "Q1", models.StatusPending, models.StatusReady); err == nil {
		t.Error("expected error for skipping statuses")
	}
	if _, err := r.TransitionQuarter(ctx, "job-1", "Q9", models.StatusPending, models.StatusFetching); err == nil {
		t.Error("expected error for unknown quarter")
	}
}

func TestRegistry_TransitionToErrorAndOverallStatus(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	if err := r.CreateJob(ctx, newJob("job-1", time.Now())); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	steps := []models.QuarterStatus{models.StatusFetching, models.StatusFetched, models.StatusProcessing, models.StatusReady}
	for _, q := range []string{"Q1", "Q2", "Q3"} {
		from := models.StatusPending
		for _, to := range steps {
			if _, err := r.TransitionQuarter(ctx, "job-1", q, from, to); err != nil {
				t.Fatalf("advance %s to %s: %v", q, to, err)
			}
			from = to
		}
	}
	if _, err := r.TransitionQuarter(ctx, "job-1", "Q4", models.StatusPending, models.StatusQuarterError); err != nil {
		t.Fatalf("fail Q4: %v", err)
	}

	got, err := r.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != models.JobError {
		t.Errorf("status = %s, want error", got.Status)
	}
}

func TestRegistry_SetPUUID(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	if err := r.CreateJob(ctx, newJob("job-1", time.Now())); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := r.SetPUUID(ctx, "job-1", "puuid-abc"); err != nil {
		t.Fatalf("SetPUUID: %v", err)
	}

	got, _ := r.GetJob(ctx, "job-1")
	if got.PUUID != "puuid-abc" {
		t.Errorf("puuid = %q", got.PUUID)
	}

	if err := r.SetPUUID(ctx, "missing", "x"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
}

func TestRegistry_FindReusable(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	older := newJob("job-old", base)
	older.Status = models.JobCompleted
	newer := newJob("job-new", base.Add(time.Hour))
	newer.Status = models.JobCompleted
	running := newJob("job-running", base.Add(2*time.Hour))
	running.Status = models.JobRunning

	for _, j := range []*models.Job{older, newer, running} {
		if err := r.CreateJob(ctx, j); err != nil {
			t.Fatalf("CreateJob %s: %v", j.ID, err)
		}
	}

	got, err := r.FindReusable(ctx, older.Fingerprint())
	if err != nil {
		t.Fatalf("FindReusable: %v", err)
	}
	if got.ID != "job-new" {
		t.Errorf("reusable job = %s, want job-new (newest completed)", got.ID)
	}
}

func TestRegistry_FindReusableCaseInsensitive(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	job := newJob("job-1", time.Now())
	job.Status = models.JobCompleted
	if err := r.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	got, err := r.FindReusable(ctx, models.Fingerprint("EUW1", "FAKER#kr1", "Sage"))
	if err != nil {
		t.Fatalf("FindReusable: %v", err)
	}
	if got.ID != "job-1" {
		t.Errorf("reusable job = %s", got.ID)
	}
}

func TestRegistry_FindReusableNone(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	job := newJob("job-1", time.Now())
	if err := r.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	// Queued only, nothing completed yet.
	if _, err := r.FindReusable(ctx, job.Fingerprint()); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
}

func TestRegistry_ListJobs(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"job-a", "job-b", "job-c"} {
		if err := r.CreateJob(ctx, newJob(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("CreateJob %s: %v", id, err)
		}
	}

	jobs, err := r.ListJobs(ctx, 2)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("len = %d, want 2", len(jobs))
	}
	if jobs[0].ID != "job-c" || jobs[1].ID != "job-b" {
		t.Errorf("order = %s, %s; want newest first", jobs[0].ID, jobs[1].ID)
	}
}
