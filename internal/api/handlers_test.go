// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/rewindlab/riftrewind/internal/models"
	"github.com/rewindlab/riftrewind/internal/pipeline"
	"github.com/rewindlab/riftrewind/internal/registry"
	"github.com/rewindlab/riftrewind/internal/store"
)

type nopPublisher struct{}

func (nopPublisher) Publish(topic string, msgs ...*message.Message) error { return nil }
func (nopPublisher) Close() error                                         { return nil }

type testAPI struct {
	server   *httptest.Server
	registry *registry.Registry
	store    *store.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	opts := badger.DefaultOptions(t.TempDir())
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	reg := registry.New(db)
	st := store.New(db)
	orch := pipeline.NewOrchestrator(reg, nopPublisher{})
	handler := NewHandler(orch, reg, st, "test")

	srv := httptest.NewServer(NewRouter(handler))
	t.Cleanup(srv.Close)
	return &testAPI{server: srv, registry: reg, store: st}
}

type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

func decodeResponse(t *testing.T, resp *http.Response, wantStatus int) envelope {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("status = %d, want %d", resp.StatusCode, wantStatus)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func submitBody(t *testing.T, req *models.SubmitJourneyRequest) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return bytes.NewReader(data)
}

func TestHandler_SubmitJourney(t *testing.T) {
	a := newTestAPI(t)

	resp, err := http.Post(a.server.URL+"/api/v1/journey", "application/json",
		submitBody(t, &models.SubmitJourneyRequest{Platform: "euw1", RiotID: "Faker#KR1"}))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	env := decodeResponse(t, resp, http.StatusAccepted)

	var out models.SubmitJourneyResponse
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if out.JobID == "" || !out.Queued || out.Cached {
		t.Errorf("response = %+v", out)
	}

	job, err := a.registry.GetJob(context.Background(), out.JobID)
	if err != nil {
		t.Fatalf("job not created: %v", err)
	}
	if job.Status != models.JobQueued {
		t.Errorf("job status = %s, want queued", job.Status)
	}
}

func TestHandler_SubmitJourneyValidation(t *testing.T) {
	a := newTestAPI(t)

	resp, err := http.Post(a.server.URL+"/api/v1/journey", "application/json",
		submitBody(t, &models.SubmitJourneyRequest{Platform: "euw1", RiotID: "NoTag"}))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	env := decodeResponse(t, resp, http.StatusBadRequest)
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v", env.Error)
	}

	resp, err = http.Post(a.server.URL+"/api/v1/journey", "application/json",
		bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	decodeResponse(t, resp, http.StatusBadRequest)
}

func TestHandler_JobStatus(t *testing.T) {
	a := newTestAPI(t)

	resp, err := http.Post(a.server.URL+"/api/v1/journey", "application/json",
		submitBody(t, &models.SubmitJourneyRequest{Platform: "kr", RiotID: "Hide on bush#KR1"}))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	env := decodeResponse(t, resp, http.StatusAccepted)
	var submitted models.SubmitJourneyResponse
	if err := json.Unmarshal(env.Data, &submitted); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	resp, err = http.Get(a.server.URL + "/api/v1/journey/" + submitted.JobID + "/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	env = decodeResponse(t, resp, http.StatusOK)

	var status models.JobStatusResponse
	if err := json.Unmarshal(env.Data, &status); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if status.Status != models.JobQueued || len(status.Quarters) != 4 {
		t.Errorf("status = %+v", status)
	}
}

func TestHandler_JobStatusNotFound(t *testing.T) {
	a := newTestAPI(t)

	resp, err := http.Get(a.server.URL + "/api/v1/journey/no-such-job/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	env := decodeResponse(t, resp, http.StatusNotFound)
	if env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestHandler_QuarterArtifact(t *testing.T) {
	a := newTestAPI(t)

	artifact := &models.QuarterArtifact{
		JobID:   "job-1",
		Quarter: "Q2",
		Region:  "Freljord",
		Lore:    "Ice and discipline.",
		Stats:   models.QuarterStats{Games: 12},
	}
	if err := a.store.PutArtifact(context.Background(), artifact); err != nil {
		t.Fatalf("seed artifact: %v", err)
	}

	resp, err := http.Get(a.server.URL + "/api/v1/journey/job-1/quarters/Q2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	env := decodeResponse(t, resp, http.StatusOK)

	var got models.QuarterArtifact
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if got.Region != "Freljord" || got.Stats.Games != 12 {
		t.Errorf("artifact = %+v", got)
	}

	// Pending quarter and bad label.
	resp, _ = http.Get(a.server.URL + "/api/v1/journey/job-1/quarters/Q3")
	decodeResponse(t, resp, http.StatusNotFound)
	resp, _ = http.Get(a.server.URL + "/api/v1/journey/job-1/quarters/Q9")
	decodeResponse(t, resp, http.StatusBadRequest)
}

func TestHandler_Finale(t *testing.T) {
	a := newTestAPI(t)

	sum := &models.SeasonSummary{
		JobID:              "job-2",
		Lore:               "The journey ends.",
		Reflections:        []string{"Keep warding"},
		IncompleteQuarters: []string{},
		Totals:             models.YearTotals{TotalGames: 40},
	}
	if err := a.store.PutSummary(context.Background(), sum); err != nil {
		t.Fatalf("seed summary: %v", err)
	}

	resp, err := http.Get(a.server.URL + "/api/v1/journey/job-2/finale")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	env := decodeResponse(t, resp, http.StatusOK)

	var got models.SeasonSummary
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if got.Totals.TotalGames != 40 || got.Lore == "" {
		t.Errorf("summary = %+v", got)
	}

	resp, _ = http.Get(a.server.URL + "/api/v1/journey/other-job/finale")
	decodeResponse(t, resp, http.StatusNotFound)
}

func TestHandler_ListJobs(t *testing.T) {
	a := newTestAPI(t)

	for i, name := range []string{"A#1", "B#2", "C#3"} {
		quarters := make(map[string]models.QuarterStatus)
		for _, q := range models.Quarters {
			quarters[q] = models.StatusPending
		}
		job := &models.Job{
			ID:        "job-" + name[:1],
			Platform:  "euw1",
			RiotID:    name,
			Archetype: "sage",
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
			Status:    models.JobQueued,
			Quarters:  quarters,
		}
		if err := a.registry.CreateJob(context.Background(), job); err != nil {
			t.Fatalf("seed job: %v", err)
		}
	}

	resp, err := http.Get(a.server.URL + "/api/v1/jobs?limit=2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	env := decodeResponse(t, resp, http.StatusOK)

	var jobs []*models.Job
	if err := json.Unmarshal(env.Data, &jobs); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("jobs = %d, want 2", len(jobs))
	}
}

func TestHandler_Health(t *testing.T) {
	a := newTestAPI(t)

	resp, err := http.Get(a.server.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	env := decodeResponse(t, resp, http.StatusOK)
	if env.Status != "success" {
		t.Errorf("status = %q", env.Status)
	}

	for _, path := range []string{"/api/v1/health/live", "/api/v1/health/ready"} {
		resp, err := http.Get(a.server.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		decodeResponse(t, resp, http.StatusOK)
	}
}
