package bulk

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/config"
	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/events"
	"github.com/spec-kit/roster-service/internal/membership"
	"github.com/spec-kit/roster-service/internal/observability"
	"github.com/spec-kit/roster-service/internal/roster"
	apperrors "github.com/spec-kit/roster-service/pkg/util/errorutil"
)

type engineFixture struct {
	engine    *Engine
	jobs      *JobStore
	store     *memStore
	client    *stubClient
	scheduler *fakeScheduler
}

func newEngineFixture(t *testing.T, batchSize int, mutate func(*config.RosterConfig)) *engineFixture {
	t.Helper()

	rosterCfg := config.RosterConfig{
		Mode:                     domain.RosterModeCascade,
		DefaultRelationshipType:  "member",
		AllowedRelationshipTypes: []string{"member", "alumni"},
		BaseRole:                 "Member",
		OwnerRole:                "Owner",
		RosterRoles:              []string{"Player", "Coach"},
		GroupMemberRole:          "Player",
		GroupRemovalMode:         "end_date",
	}
	if mutate != nil {
		mutate(&rosterCfg)
	}

	client := newStubClient()
	orchestrator, err := roster.NewOrchestrator(roster.Dependencies{
		Client: client,
		Config: rosterCfg,
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)

	store := newMemStore()
	jobs := NewJobStore(store, 20, zap.NewNop())
	scheduler := &fakeScheduler{}

	engine := NewEngine(EngineDependencies{
		Jobs:         jobs,
		Orchestrator: orchestrator,
		Client:       client,
		Scheduler:    scheduler,
		Dispatcher:   events.NewInMemoryDispatcher(),
		Metrics:      observability.NewMetrics(),
		BulkConfig: config.BulkConfig{
			BatchSize:            batchSize,
			ScheduleDelaySeconds: 0,
			RetentionCap:         20,
			MaxErrorSnippets:     5,
			SnippetMaxLen:        160,
		},
		RosterConfig: rosterCfg,
		Logger:       zap.NewNop(),
	})

	return &engineFixture{engine: engine, jobs: jobs, store: store, client: client, scheduler: scheduler}
}

func (f *engineFixture) enqueue(t *testing.T, csv string) *EnqueueResult {
	t.Helper()
	res, err := f.engine.Enqueue(context.Background(), EnqueueInput{
		File:     strings.NewReader(csv),
		FileName: "roster.csv",
		OrgUUID:  "org-1",
	})
	require.NoError(t, err)
	return res
}

func (f *engineFixture) job(t *testing.T, id string) *domain.BulkUploadJob {
	t.Helper()
	job, err := f.jobs.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, job)
	return job
}

const twoRowCSV = "first_name,last_name,email\nAda,Lovelace,ada@example.com\nGrace,Hopper,grace@example.com\n"

func TestEnqueueCreatesQueuedJobAndSchedules(t *testing.T) {
	f := newEngineFixture(t, 50, nil)

	res := f.enqueue(t, twoRowCSV)
	assert.Equal(t, domain.JobStatusQueued, res.Status)
	assert.Equal(t, 2, res.TotalRecords)
	assert.Equal(t, []string{res.JobID}, f.scheduler.scheduled)

	job := f.job(t, res.JobID)
	assert.Len(t, job.Rows, 2)
	assert.Equal(t, 0, job.NextOffset)
}

func TestJobRunsToCompletionAcrossBatches(t *testing.T) {
	f := newEngineFixture(t, 1, nil)
	ctx := context.Background()

	res := f.enqueue(t, twoRowCSV)

	require.NoError(t, f.engine.ProcessBatch(ctx, res.JobID))
	job := f.job(t, res.JobID)
	assert.Equal(t, domain.JobStatusQueued, job.Status, "mid-job state returns to queued")
	assert.Equal(t, 1, job.Processed)
	assert.Equal(t, 1, job.Added)
	assert.Equal(t, 1, job.NextOffset)
	assert.Equal(t, []string{res.JobID, res.JobID}, f.scheduler.scheduled)

	require.NoError(t, f.engine.ProcessBatch(ctx, res.JobID))
	job = f.job(t, res.JobID)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, 2, job.Processed)
	assert.Equal(t, 2, job.Added)
	assert.Equal(t, 2, job.NextOffset)
	require.NotNil(t, job.CompletedAt)
	assert.Nil(t, job.Rows, "row payload is dropped on completion")
	assert.Nil(t, job.SeenEmails)

	// A late duplicate trigger is a no-op.
	require.NoError(t, f.engine.ProcessBatch(ctx, res.JobID))
	assert.Equal(t, 2, f.job(t, res.JobID).Processed)
}

func TestCountersAlwaysReconcile(t *testing.T) {
	f := newEngineFixture(t, 50, nil)
	ctx := context.Background()

	csv := strings.Join([]string{
		"first_name,last_name,email",
		"Ada,Lovelace,ada@example.com",
		"Ada,Lovelace,ADA@example.com", // duplicate, case-insensitive
		"Grace,Hopper,not-an-email",    // invalid email
		",Hopper,grace@example.com",    // blank first name
		"Alan,Turing,alan@example.com",
	}, "\n")

	res := f.enqueue(t, csv)
	require.NoError(t, f.engine.ProcessBatch(ctx, res.JobID))

	job := f.job(t, res.JobID)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, 5, job.Processed)
	assert.Equal(t, 2, job.Added)
	assert.Equal(t, 1, job.Skipped)
	assert.Equal(t, 2, job.Failed)
	assert.Equal(t, job.Processed, job.Added+job.Skipped+job.Failed)

	require.Len(t, job.ErrorSnippets, 2)
	assert.Contains(t, job.ErrorSnippets[0], "line 4")
	assert.Contains(t, job.ErrorSnippets[1], "line 5")
}

func TestRowFailuresNeverFailTheJob(t *testing.T) {
	f := newEngineFixture(t, 50, func(cfg *config.RosterConfig) {
		cfg.RelationshipRequired = true
	})
	ctx := context.Background()

	csv := "first_name,last_name,email,relationship_type\nAda,Lovelace,ada@example.com,\n"
	res := f.enqueue(t, csv)
	require.NoError(t, f.engine.ProcessBatch(ctx, res.JobID))

	job := f.job(t, res.JobID)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, 1, job.Failed)
	assert.Equal(t, 0, job.Added)
}

func TestDisallowedRelationshipTypeFailsRow(t *testing.T) {
	f := newEngineFixture(t, 50, nil)
	ctx := context.Background()

	csv := "first_name,last_name,email,relationship_type\nAda,Lovelace,ada@example.com,sponsor\n"
	res := f.enqueue(t, csv)
	require.NoError(t, f.engine.ProcessBatch(ctx, res.JobID))

	job := f.job(t, res.JobID)
	assert.Equal(t, 1, job.Failed)
	require.Len(t, job.ErrorSnippets, 1)
	assert.Contains(t, job.ErrorSnippets[0], "sponsor")
}

func TestExistingMemberRowsAreSkipped(t *testing.T) {
	f := newEngineFixture(t, 50, nil)
	ctx := context.Background()

	f.client.personsByEmail["ada@example.com"] = &membership.Person{UUID: "p-1", Email: "ada@example.com"}
	f.client.activeByPerson["p-1"] = []membership.PersonMembership{
		{ID: "pm-1", PersonUUID: "p-1", OrgUUID: "org-1", Active: true},
	}

	res := f.enqueue(t, twoRowCSV)
	require.NoError(t, f.engine.ProcessBatch(ctx, res.JobID))

	job := f.job(t, res.JobID)
	assert.Equal(t, 1, job.Skipped)
	assert.Equal(t, 1, job.Added)
	assert.Equal(t, 0, job.Failed)
}

func TestErrorSnippetsAreCapped(t *testing.T) {
	f := newEngineFixture(t, 50, nil)
	ctx := context.Background()

	lines := []string{"first_name,last_name,email"}
	for i := 0; i < 8; i++ {
		lines = append(lines, fmt.Sprintf("Bad,Row%d,not-an-email-%d", i, i))
	}
	res := f.enqueue(t, strings.Join(lines, "\n"))
	require.NoError(t, f.engine.ProcessBatch(ctx, res.JobID))

	job := f.job(t, res.JobID)
	assert.Equal(t, 8, job.Failed)
	assert.Len(t, job.ErrorSnippets, 5)
}

func TestErrorSnippetsTruncateOnRuneBoundary(t *testing.T) {
	f := newEngineFixture(t, 50, nil)
	// Byte 11 of the snippet falls inside the two-byte "é".
	f.engine.cfg.SnippetMaxLen = 11

	job := &domain.BulkUploadJob{}
	f.engine.appendSnippet(job, "línea 2: é inválido")

	require.Len(t, job.ErrorSnippets, 1)
	got := job.ErrorSnippets[0]
	assert.LessOrEqual(t, len(got), 11)
	assert.True(t, utf8.ValidString(got))
}

func TestDuplicateFileRejectedWhileActive(t *testing.T) {
	f := newEngineFixture(t, 1, nil)
	ctx := context.Background()

	res := f.enqueue(t, twoRowCSV)

	_, err := f.engine.Enqueue(ctx, EnqueueInput{
		File: strings.NewReader(twoRowCSV), FileName: "again.csv", OrgUUID: "org-1",
	})
	require.Error(t, err)
	assert.Equal(t, CodeDuplicateJob, apperrors.CodeOf(err))

	// Finish the first job; the same content is accepted again.
	require.NoError(t, f.engine.ProcessBatch(ctx, res.JobID))
	require.NoError(t, f.engine.ProcessBatch(ctx, res.JobID))

	again, err := f.engine.Enqueue(ctx, EnqueueInput{
		File: strings.NewReader(twoRowCSV), FileName: "again.csv", OrgUUID: "org-1",
	})
	require.NoError(t, err)
	assert.NotEqual(t, res.JobID, again.JobID)
}

func TestEnqueueFailsJobWhenSchedulingRefused(t *testing.T) {
	f := newEngineFixture(t, 50, nil)
	f.scheduler.refuse = true

	_, err := f.engine.Enqueue(context.Background(), EnqueueInput{
		File: strings.NewReader(twoRowCSV), FileName: "roster.csv", OrgUUID: "org-1",
	})
	require.Error(t, err)

	jobs, listErr := f.jobs.List(context.Background())
	require.NoError(t, listErr)
	require.Len(t, jobs, 1)
	assert.Equal(t, domain.JobStatusFailed, jobs[0].Status)
}

func TestReschedulingFailureFailsTheJob(t *testing.T) {
	f := newEngineFixture(t, 1, nil)
	ctx := context.Background()

	res := f.enqueue(t, twoRowCSV)
	f.scheduler.refuse = true

	require.Error(t, f.engine.ProcessBatch(ctx, res.JobID))
	job := f.job(t, res.JobID)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.Processed, "work done before the failure is kept")
}

func TestProcessBatchIgnoresUnknownJobs(t *testing.T) {
	f := newEngineFixture(t, 50, nil)
	require.NoError(t, f.engine.ProcessBatch(context.Background(), "no-such-job"))
}

func TestCompletionInvalidatesMemberCache(t *testing.T) {
	f := newEngineFixture(t, 50, nil)
	ctx := context.Background()
	f.store.data["org:members:org-1"] = []byte(`[]`)

	res := f.enqueue(t, twoRowCSV)
	require.NoError(t, f.engine.ProcessBatch(ctx, res.JobID))

	_, cached := f.store.data["org:members:org-1"]
	assert.False(t, cached)
}

func TestGetJobStatusProjectsPublicFieldsOnly(t *testing.T) {
	f := newEngineFixture(t, 1, nil)
	ctx := context.Background()

	res := f.enqueue(t, twoRowCSV)
	require.NoError(t, f.engine.ProcessBatch(ctx, res.JobID))

	view, err := f.engine.GetJobStatus(ctx, res.JobID)
	require.NoError(t, err)
	assert.Equal(t, res.JobID, view.ID)
	assert.Equal(t, 2, view.TotalRecords)
	assert.Equal(t, 1, view.Processed)
	assert.Equal(t, 1, view.NextOffset)

	_, err = f.engine.GetJobStatus(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.CodeOf(err))
}
