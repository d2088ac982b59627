// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	badger "github.com/dgraph-io/badger/v4"

	"github.com/rewindlab/riftrewind/internal/config"
	"github.com/rewindlab/riftrewind/internal/models"
	"github.com/rewindlab/riftrewind/internal/narrative"
	"github.com/rewindlab/riftrewind/internal/registry"
	"github.com/rewindlab/riftrewind/internal/store"
)

// testClock keeps every quarter window of the year open.
var testClock = time.Date(2026, time.November, 15, 12, 0, 0, 0, time.UTC)

func testDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions(t.TempDir())
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type published struct {
	topic string
	cmd   *StageCommand
}

// capturePublisher records published stage commands instead of
// delivering them.
type capturePublisher struct {
	mu   sync.Mutex
	msgs []published
}

func (p *capturePublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ser := NewSerializer()
	for _, msg := range msgs {
		cmd, err := ser.Unmarshal(msg)
		if err != nil {
			return err
		}
		p.msgs = append(p.msgs, published{topic: topic, cmd: cmd})
	}
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) last(t *testing.T) published {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.msgs) == 0 {
		t.Fatal("nothing published")
	}
	return p.msgs[len(p.msgs)-1]
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

type fakeRiot struct {
	puuid   string
	ids     []string
	records map[string]*models.MatchRecord

	mu       sync.Mutex
	resolves int
	lists    int
	fetches  int
}

func (f *fakeRiot) ResolvePUUID(ctx context.Context, platform, gameName, tagLine string) (string, error) {
	f.mu.Lock()
	f.resolves++
	f.mu.Unlock()
	return f.puuid, nil
}

func (f *fakeRiot) ListMatchIDs(ctx context.Context, platform, puuid string, window models.QuarterWindow, max int) ([]string, error) {
	f.mu.Lock()
	f.lists++
	f.mu.Unlock()
	if len(f.ids) > max {
		return f.ids[:max], nil
	}
	return f.ids, nil
}

func (f *fakeRiot) FetchMatch(ctx context.Context, matchID, puuid string) (*models.MatchRecord, error) {
	f.mu.Lock()
	f.fetches++
	f.mu.Unlock()
	return f.records[matchID], nil
}

// countingText is a deterministic narrative backend that counts model
// calls.
type countingText struct {
	mu    sync.Mutex
	calls int
}

func (c *countingText) Generate(ctx context.Context, prompt string, maxTokens int64, temperature float64) (string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return "generated narrative", nil
}

func (c *countingText) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type testEnv struct {
	handlers *Handlers
	registry *registry.Registry
	store    *store.Store
	pub      *capturePublisher
	riot     *fakeRiot
	text     *countingText
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testDB(t)
	reg := registry.New(db)
	st := store.New(db)
	pub := &capturePublisher{}
	fr := &fakeRiot{puuid: "puuid-1"}
	text := &countingText{}
	gen := narrative.NewWithClient(text, time.Second)

	h := NewHandlers(reg, st, fr, gen, pub, config.PipelineConfig{
		FetchConcurrency:     2,
		MaxMatchesPerQuarter: 200,
	})
	h.now = func() time.Time { return testClock }

	return &testEnv{handlers: h, registry: reg, store: st, pub: pub, riot: fr, text: text}
}

func (e *testEnv) createJob(t *testing.T, id string) *models.Job {
	t.Helper()
	quarters := make(map[string]models.QuarterStatus)
	for _, q := range models.Quarters {
		quarters[q] = models.StatusPending
	}
	job := &models.Job{
		ID:        id,
		Platform:  "euw1",
		RiotID:    "Faker#KR1",
		Archetype: "sage",
		CreatedAt: testClock,
		Status:    models.JobQueued,
		Quarters:  quarters,
	}
	if err := e.registry.CreateJob(context.Background(), job); err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job
}

func (e *testEnv) setStatus(t *testing.T, jobID, quarter string, statuses ...models.QuarterStatus) {
	t.Helper()
	from := models.StatusPending
	for _, to := range statuses {
		applied, err := e.registry.TransitionQuarter(context.Background(), jobID, quarter, from, to)
		if err != nil || !applied {
			t.Fatalf("transition %s %s->%s: applied=%v err=%v", quarter, from, to, applied, err)
		}
		from = to
	}
}

func (e *testEnv) quarterStatus(t *testing.T, jobID, quarter string) models.QuarterStatus {
	t.Helper()
	job, err := e.registry.GetJob(context.Background(), jobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	return job.Quarters[quarter]
}

func stageMsg(t *testing.T, cmd *StageCommand) *message.Message {
	t.Helper()
	msg, err := NewSerializer().Marshal(cmd)
	if err != nil {
		t.Fatalf("marshal command: %v", err)
	}
	return msg
}

func matchRecord(id string, start time.Time) *models.MatchRecord {
	return &models.MatchRecord{
		MatchID:     id,
		GameStart:   start,
		DurationSec: 1800,
		Champion:    "Jinx",
		ChampionID:  222,
		Lane:        "BOTTOM",
		Role:        "BOTTOM",
		Win:         true,
		Kills:       8,
		Deaths:      2,
		Assists:     6,
		KDA:         7.0,
		TotalCS:     210,
		GoldEarned:  13000,
	}
}

func TestHandlers_Fetch(t *testing.T) {
	e := newTestEnv(t)
	job := e.createJob(t, "job-fetch")

	base := time.Date(2026, time.February, 1, 18, 0, 0, 0, time.UTC)
	e.riot.ids = []string{"EUW1_3", "EUW1_1", "EUW1_2"}
	e.riot.records = map[string]*models.MatchRecord{
		"EUW1_1": matchRecord("EUW1_1", base),
		"EUW1_3": matchRecord("EUW1_3", base.Add(48*time.Hour)),
		// EUW1_2 missing: the client filters it as an off-queue match.
	}

	err := e.handlers.Fetch(stageMsg(t, &StageCommand{JobID: job.ID, Quarter: "Q1"}))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	ds, err := e.store.GetDataset(context.Background(), job.ID, "Q1")
	if err != nil {
		t.Fatalf("dataset not written: %v", err)
	}
	if len(ds.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(ds.Records))
	}
	if ds.Records[0].MatchID != "EUW1_1" || ds.Records[1].MatchID != "EUW1_3" {
		t.Errorf("records not sorted by game start: %s, %s", ds.Records[0].MatchID, ds.Records[1].MatchID)
	}
	if got := e.quarterStatus(t, job.ID, "Q1"); got != models.StatusFetched {
		t.Errorf("status = %s, want fetched", got)
	}

	updated, _ := e.registry.GetJob(context.Background(), job.ID)
	if updated.PUUID != "puuid-1" {
		t.Error("resolved puuid not cached on job")
	}

	last := e.pub.last(t)
	if last.topic != TopicProcess || last.cmd.Quarter != "Q1" {
		t.Errorf("forwarded %s %s, want %s Q1", last.topic, last.cmd.Quarter, TopicProcess)
	}
}

func TestHandlers_FetchEmptyQuarter(t *testing.T) {
	e := newTestEnv(t)
	job := e.createJob(t, "job-empty")
	e.riot.ids = nil

	if err := e.handlers.Fetch(stageMsg(t, &StageCommand{JobID: job.ID, Quarter: "Q2"})); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	// An empty quarter is data, not a failure: the chain moves on.
	ds, err := e.store.GetDataset(context.Background(), job.ID, "Q2")
	if err != nil {
		t.Fatalf("empty dataset not written: %v", err)
	}
	if len(ds.Records) != 0 {
		t.Errorf("records = %d, want 0", len(ds.Records))
	}
	if got := e.pub.last(t).topic; got != TopicProcess {
		t.Errorf("forwarded to %s, want %s", got, TopicProcess)
	}
}

func TestHandlers_FetchStaleDeliveryForwards(t *testing.T) {
	e := newTestEnv(t)
	job := e.createJob(t, "job-stale")
	e.setStatus(t, job.ID, "Q1", models.StatusFetching, models.StatusFetched)

	if err := e.handlers.Fetch(stageMsg(t, &StageCommand{JobID: job.ID, Quarter: "Q1"})); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if e.riot.lists != 0 {
		t.Error("stale delivery must not refetch")
	}
	last := e.pub.last(t)
	if last.topic != TopicProcess {
		t.Errorf("stale delivery forwarded to %s, want %s", last.topic, TopicProcess)
	}
}

func TestHandlers_FetchUnknownJobDropped(t *testing.T) {
	e := newTestEnv(t)

	if err := e.handlers.Fetch(stageMsg(t, &StageCommand{JobID: "no-such-job", Quarter: "Q1"})); err != nil {
		t.Fatalf("Fetch() error = %v, want message dropped", err)
	}
	if e.pub.count() != 0 {
		t.Error("unknown job must not forward")
	}
}

func TestHandlers_Process(t *testing.T) {
	e := newTestEnv(t)
	job := e.createJob(t, "job-process")
	e.setStatus(t, job.ID, "Q1", models.StatusFetching, models.StatusFetched)

	base := time.Date(2026, time.February, 3, 20, 0, 0, 0, time.UTC)
	window, _ := models.WindowFor(testClock, "Q1")
	ds := &models.QuarterDataset{
		JobID:   job.ID,
		Quarter: "Q1",
		Window:  window,
		Records: []models.MatchRecord{
			*matchRecord("EUW1_1", base),
			*matchRecord("EUW1_2", base.Add(time.Hour)),
		},
	}
	if err := e.store.PutDataset(context.Background(), ds); err != nil {
		t.Fatalf("seed dataset: %v", err)
	}

	if err := e.handlers.Process(stageMsg(t, &StageCommand{JobID: job.ID, Quarter: "Q1"})); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	a, err := e.store.GetArtifact(context.Background(), job.ID, "Q1")
	if err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	if a.Region == "" {
		t.Error("artifact region empty")
	}
	if a.Lore == "" || a.Reflection == "" {
		t.Error("narrative fields empty")
	}
	if a.Stats.Games != 2 || a.Stats.Wins != 2 {
		t.Errorf("stats = %+v", a.Stats)
	}
	if a.ChampionGames["Jinx"] != 2 {
		t.Errorf("champion games = %v", a.ChampionGames)
	}
	if !strings.Contains(a.DateRange, "2026-01-01") {
		t.Errorf("date range = %q", a.DateRange)
	}

	if got := e.quarterStatus(t, job.ID, "Q1"); got != models.StatusReady {
		t.Errorf("status = %s, want ready", got)
	}
	last := e.pub.last(t)
	if last.topic != TopicFetch || last.cmd.Quarter != "Q2" {
		t.Errorf("next stage = %s %s, want fetch Q2", last.topic, last.cmd.Quarter)
	}
}

func TestHandlers_ProcessEmptyDatasetUsesDefaultRegion(t *testing.T) {
	e := newTestEnv(t)
	job := e.createJob(t, "job-no-games")
	e.setStatus(t, job.ID, "Q3", models.StatusFetching, models.StatusFetched)

	window, _ := models.WindowFor(testClock, "Q3")
	ds := &models.QuarterDataset{JobID: job.ID, Quarter: "Q3", Window: window}
	if err := e.store.PutDataset(context.Background(), ds); err != nil {
		t.Fatalf("seed dataset: %v", err)
	}

	if err := e.handlers.Process(stageMsg(t, &StageCommand{JobID: job.ID, Quarter: "Q3"})); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	a, err := e.store.GetArtifact(context.Background(), job.ID, "Q3")
	if err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	if a.Region != "Runeterra" {
		t.Errorf("region = %q, want default", a.Region)
	}
	if !a.Profile.InsufficientData {
		t.Error("profile should flag insufficient data")
	}
}

func TestHandlers_ProcessEarlyDuplicateDropped(t *testing.T) {
	e := newTestEnv(t)
	job := e.createJob(t, "job-early")
	e.setStatus(t, job.ID, "Q1", models.StatusFetching)

	// A duplicate process command delivered while the quarter is still
	// mid-fetch must not skip ahead: no forward, no error, status
	// untouched.
	if err := e.handlers.Process(stageMsg(t, &StageCommand{JobID: job.ID, Quarter: "Q1"})); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if e.pub.count() != 0 {
		t.Error("early duplicate must not publish")
	}
	if got := e.quarterStatus(t, job.ID, "Q1"); got != models.StatusFetching {
		t.Errorf("status = %s, want fetching untouched", got)
	}
}

func TestHandlers_FetchErroredQuarterDropped(t *testing.T) {
	e := newTestEnv(t)
	job := e.createJob(t, "job-errored")
	e.setStatus(t, job.ID, "Q1", models.StatusQuarterError)

	// The poison handler already advanced the chain for an errored
	// quarter; a late redelivery of its fetch must not advance it again.
	if err := e.handlers.Fetch(stageMsg(t, &StageCommand{JobID: job.ID, Quarter: "Q1"})); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if e.pub.count() != 0 {
		t.Error("errored quarter redelivery must not publish")
	}
	if e.riot.lists != 0 {
		t.Error("errored quarter redelivery must not refetch")
	}
}

func TestHandlers_ProcessLastQuarterEnqueuesFinale(t *testing.T) {
	e := newTestEnv(t)
	job := e.createJob(t, "job-q4")
	e.setStatus(t, job.ID, "Q4", models.StatusFetching, models.StatusFetched)

	window, _ := models.WindowFor(testClock, "Q4")
	ds := &models.QuarterDataset{
		JobID:   job.ID,
		Quarter: "Q4",
		Window:  window,
		Records: []models.MatchRecord{*matchRecord("EUW1_9", window.Start.Add(time.Hour))},
	}
	if err := e.store.PutDataset(context.Background(), ds); err != nil {
		t.Fatalf("seed dataset: %v", err)
	}

	if err := e.handlers.Process(stageMsg(t, &StageCommand{JobID: job.ID, Quarter: "Q4"})); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	last := e.pub.last(t)
	if last.topic != TopicFinale {
		t.Errorf("next stage = %s, want finale", last.topic)
	}
	if last.cmd.Quarter != "" {
		t.Errorf("finale command carries quarter %q", last.cmd.Quarter)
	}
}

func TestHandlers_Finale(t *testing.T) {
	e := newTestEnv(t)
	job := e.createJob(t, "job-finale")
	for _, q := range []string{"Q1", "Q2", "Q3"} {
		e.setStatus(t, job.ID, q, models.StatusFetching, models.StatusFetched, models.StatusProcessing, models.StatusReady)
	}
	e.setStatus(t, job.ID, "Q4", models.StatusFetching, models.StatusQuarterError)

	base := time.Date(2026, time.March, 1, 19, 0, 0, 0, time.UTC)
	for i, q := range []string{"Q1", "Q2", "Q3"} {
		window, _ := models.WindowFor(testClock, q)
		ds := &models.QuarterDataset{
			JobID:   job.ID,
			Quarter: q,
			Window:  window,
			Records: []models.MatchRecord{*matchRecord("EUW1_"+q, base.AddDate(0, i*3, 0))},
		}
		if err := e.store.PutDataset(context.Background(), ds); err != nil {
			t.Fatalf("seed dataset: %v", err)
		}
		a := &models.QuarterArtifact{
			JobID:   job.ID,
			Quarter: q,
			Region:  "Noxus",
			Lore:    "Chapter " + q,
			Stats:   models.QuarterStats{Games: 1, KDAProxy: 7, Wins: 1},
			Profile: models.ValueProfile{Top: []models.RankedValue{{Name: models.ValuePower, Score: 1}}},
		}
		if err := e.store.PutArtifact(context.Background(), a); err != nil {
			t.Fatalf("seed artifact: %v", err)
		}
	}

	if err := e.handlers.Finale(stageMsg(t, &StageCommand{JobID: job.ID})); err != nil {
		t.Fatalf("Finale() error = %v", err)
	}

	sum, err := e.store.GetSummary(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("summary not written: %v", err)
	}
	if sum.Totals.TotalGames != 3 {
		t.Errorf("total games = %d, want 3", sum.Totals.TotalGames)
	}
	if len(sum.IncompleteQuarters) != 1 || sum.IncompleteQuarters[0] != "Q4" {
		t.Errorf("incomplete quarters = %v, want [Q4]", sum.IncompleteQuarters)
	}
	if sum.Lore == "" || len(sum.Reflections) == 0 {
		t.Error("narrative fields empty")
	}

	// Redelivery must not regenerate the nondeterministic narrative.
	calls := e.text.count()
	if err := e.handlers.Finale(stageMsg(t, &StageCommand{JobID: job.ID})); err != nil {
		t.Fatalf("Finale() redelivery error = %v", err)
	}
	if e.text.count() != calls {
		t.Error("redelivery regenerated the narrative")
	}
}

func TestHandlers_PoisonMarksQuarterAndContinues(t *testing.T) {
	e := newTestEnv(t)
	job := e.createJob(t, "job-poison")
	e.setStatus(t, job.ID, "Q2", models.StatusFetching)

	msg := stageMsg(t, &StageCommand{JobID: job.ID, Quarter: "Q2"})
	msg.Metadata.Set(middleware.PoisonedTopicKey, TopicFetch)
	msg.Metadata.Set(middleware.ReasonForPoisonedKey, "retries exhausted")

	if err := e.handlers.Poison(msg); err != nil {
		t.Fatalf("Poison() error = %v", err)
	}

	if got := e.quarterStatus(t, job.ID, "Q2"); got != models.StatusQuarterError {
		t.Errorf("status = %s, want error", got)
	}
	last := e.pub.last(t)
	if last.topic != TopicFetch || last.cmd.Quarter != "Q3" {
		t.Errorf("chain continued with %s %s, want fetch Q3", last.topic, last.cmd.Quarter)
	}
}

func TestHandlers_PoisonFinaleStops(t *testing.T) {
	e := newTestEnv(t)
	job := e.createJob(t, "job-poison-finale")

	msg := stageMsg(t, &StageCommand{JobID: job.ID})
	msg.Metadata.Set(middleware.PoisonedTopicKey, TopicFinale)

	if err := e.handlers.Poison(msg); err != nil {
		t.Fatalf("Poison() error = %v", err)
	}
	if e.pub.count() != 0 {
		t.Error("poisoned finale must not publish")
	}
}

func TestOrchestrator_Submit(t *testing.T) {
	e := newTestEnv(t)
	orch := NewOrchestrator(e.registry, e.pub)

	res, err := orch.Submit(context.Background(), &SubmitRequest{
		Platform: "euw1",
		RiotID:   "Faker#KR1",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.Cached {
		t.Error("fresh submission marked cached")
	}
	if res.Job.Archetype != DefaultArchetype {
		t.Errorf("archetype = %q, want default", res.Job.Archetype)
	}
	for _, q := range models.Quarters {
		if res.Job.Quarters[q] != models.StatusPending {
			t.Errorf("quarter %s = %s, want pending", q, res.Job.Quarters[q])
		}
	}

	last := e.pub.last(t)
	if last.topic != TopicFetch || last.cmd.Quarter != "Q1" {
		t.Errorf("first stage = %s %s, want fetch Q1", last.topic, last.cmd.Quarter)
	}
	if last.cmd.JobID != res.Job.ID {
		t.Error("first stage command for wrong job")
	}
}

func TestOrchestrator_SubmitValidation(t *testing.T) {
	e := newTestEnv(t)
	orch := NewOrchestrator(e.registry, e.pub)

	if _, err := orch.Submit(context.Background(), &SubmitRequest{Platform: "mars1", RiotID: "A#B"}); err == nil {
		t.Error("unknown platform accepted")
	}
	if _, err := orch.Submit(context.Background(), &SubmitRequest{Platform: "euw1", RiotID: "NoTag"}); err == nil {
		t.Error("riot id without tag accepted")
	}
}

func TestOrchestrator_SubmitReusesCompletedJob(t *testing.T) {
	e := newTestEnv(t)
	orch := NewOrchestrator(e.registry, e.pub)

	first, err := orch.Submit(context.Background(), &SubmitRequest{Platform: "euw1", RiotID: "Faker#KR1", Archetype: "sage"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	for _, q := range models.Quarters {
		e.setStatus(t, first.Job.ID, q, models.StatusFetching, models.StatusFetched, models.StatusProcessing, models.StatusReady)
	}

	// Same player, different casing: fingerprints are case-insensitive.
	second, err := orch.Submit(context.Background(), &SubmitRequest{Platform: "EUW1", RiotID: "faker#kr1", Archetype: "Sage"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !second.Cached {
		t.Fatal("completed job not reused")
	}
	if second.Job.ID != first.Job.ID {
		t.Errorf("reused job = %s, want %s", second.Job.ID, first.Job.ID)
	}

	bypassed, err := orch.Submit(context.Background(), &SubmitRequest{Platform: "euw1", RiotID: "Faker#KR1", Archetype: "sage", BypassCache: true})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if bypassed.Cached || bypassed.Job.ID == first.Job.ID {
		t.Error("bypass still reused the cached job")
	}
}

func TestOrchestrator_SubmitIncompleteJobNotReused(t *testing.T) {
	e := newTestEnv(t)
	orch := NewOrchestrator(e.registry, e.pub)

	first, err := orch.Submit(context.Background(), &SubmitRequest{Platform: "euw1", RiotID: "Faker#KR1"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	second, err := orch.Submit(context.Background(), &SubmitRequest{Platform: "euw1", RiotID: "Faker#KR1"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if second.Cached || second.Job.ID == first.Job.ID {
		t.Error("in-flight job must not satisfy the cache")
	}
}
