package bulk

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/config"
	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/events"
	"github.com/spec-kit/roster-service/internal/membership"
	"github.com/spec-kit/roster-service/internal/observability"
	"github.com/spec-kit/roster-service/internal/roster"
	apperrors "github.com/spec-kit/roster-service/pkg/util/errorutil"
)

// Scheduler requests a future ProcessBatch invocation. Fire-and-forget;
// at-least-once delivery is assumed.
type Scheduler interface {
	ScheduleAfter(delaySeconds int, jobID string) bool
}

// Engine drives bulk-upload jobs: it creates them, and advances one batch per
// scheduler tick. It holds no state between calls; everything lives in the
// persisted job record.
type Engine struct {
	jobs         *JobStore
	parser       *Parser
	orchestrator *roster.Orchestrator
	client       membership.Client
	scheduler    Scheduler
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	cfg          config.BulkConfig
	rosterCfg    config.RosterConfig
	logger       *zap.Logger
}

// EngineDependencies bundles collaborators.
type EngineDependencies struct {
	Jobs         *JobStore
	Parser       *Parser
	Orchestrator *roster.Orchestrator
	Client       membership.Client
	Scheduler    Scheduler
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	BulkConfig   config.BulkConfig
	RosterConfig config.RosterConfig
	Logger       *zap.Logger
}

// NewEngine creates the engine.
func NewEngine(deps EngineDependencies) *Engine {
	parser := deps.Parser
	if parser == nil {
		parser = NewParser(nil)
	}
	return &Engine{
		jobs:         deps.Jobs,
		parser:       parser,
		orchestrator: deps.Orchestrator,
		client:       deps.Client,
		scheduler:    deps.Scheduler,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		cfg:          deps.BulkConfig,
		rosterCfg:    deps.RosterConfig,
		logger:       deps.Logger,
	}
}

// EnqueueInput describes one uploaded roster file.
type EnqueueInput struct {
	File           io.Reader
	FileName       string
	OrgUUID        string
	MembershipUUID string
	RosterMode     domain.RosterMode
	GroupUUID      string
}

// EnqueueResult is returned to upload callers.
type EnqueueResult struct {
	JobID        string           `json:"job_id"`
	Status       domain.JobStatus `json:"status"`
	TotalRecords int              `json:"total_records"`
	BatchSize    int              `json:"batch_size"`
}

// Enqueue parses and validates the file, persists a Queued job, and requests
// scheduling of the first batch. No job is created for invalid or empty
// files, or while another job for the same file content is still in flight.
func (e *Engine) Enqueue(ctx context.Context, input EnqueueInput) (*EnqueueResult, error) {
	if input.OrgUUID == "" {
		return nil, apperrors.NewValidationError("org uuid is required", nil)
	}
	mode := input.RosterMode
	if mode == "" {
		mode = e.orchestrator.Mode()
	}
	if !mode.Valid() {
		return nil, apperrors.NewValidationError("invalid roster mode", map[string]any{"roster_mode": mode})
	}

	data, err := io.ReadAll(input.File)
	if err != nil {
		return nil, apperrors.NewValidationError("unreadable upload", map[string]any{"cause": err.Error()})
	}

	rows, err := e.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	digest := sha256.Sum256(data)
	fileHash := hex.EncodeToString(digest[:])

	existing, err := e.jobs.FindActiveByHash(ctx, fileHash)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if existing != nil {
		return nil, apperrors.NewConflictWithCode(CodeDuplicateJob,
			"an identical file is already being processed",
			map[string]any{"job_id": existing.ID, "status": existing.Status})
	}

	now := time.Now()
	job := &domain.BulkUploadJob{
		ID:             uuid.NewString(),
		Status:         domain.JobStatusQueued,
		CreatedAt:      now,
		UpdatedAt:      now,
		FileName:       input.FileName,
		FileHash:       fileHash,
		OrgUUID:        input.OrgUUID,
		MembershipUUID: input.MembershipUUID,
		RosterMode:     mode,
		GroupUUID:      input.GroupUUID,
		TotalRecords:   len(rows),
		BatchSize:      e.cfg.BatchSize,
		SeenEmails:     make(map[string]bool, len(rows)),
		Rows:           rows,
	}

	if err := e.jobs.Save(ctx, job); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	e.metrics.RecordJobTransition(string(job.Status))
	e.publishJobEvent(ctx, events.EventUploadJobQueued, job)

	if !e.scheduler.ScheduleAfter(e.cfg.ScheduleDelaySeconds, job.ID) {
		e.failJob(ctx, job, "failed to schedule first batch")
		return nil, apperrors.NewInternalError(fmt.Errorf("unable to schedule job %s", job.ID))
	}

	e.logger.Info("upload job queued",
		zap.String("job_id", job.ID),
		zap.String("file_name", job.FileName),
		zap.Int("total_records", job.TotalRecords))

	return &EnqueueResult{
		JobID:        job.ID,
		Status:       job.Status,
		TotalRecords: job.TotalRecords,
		BatchSize:    job.BatchSize,
	}, nil
}

// ProcessBatch advances one batch of the job. It is a no-op for missing or
// terminal jobs. Row-level problems are counted, never fatal; only
// persistence and scheduling failures fail the job.
func (e *Engine) ProcessBatch(ctx context.Context, jobID string) error {
	job, err := e.jobs.Get(ctx, jobID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if job == nil {
		e.logger.Warn("batch trigger for unknown job", zap.String("job_id", jobID))
		return nil
	}
	if job.Terminal() {
		return nil
	}
	// The dedup set is omitted from the persisted record when empty, so a
	// freshly loaded job can carry a nil map.
	if job.SeenEmails == nil {
		job.SeenEmails = make(map[string]bool)
	}

	job.Status = domain.JobStatusProcessing
	if err := e.jobs.Save(ctx, job); err != nil {
		return apperrors.NewInternalError(err)
	}

	if len(job.Rows) == 0 || job.NextOffset >= job.TotalRecords {
		return e.finalize(ctx, job)
	}

	end := job.NextOffset + job.BatchSize
	if end > job.TotalRecords {
		end = job.TotalRecords
	}
	for _, row := range job.Rows[job.NextOffset:end] {
		e.processRow(ctx, job, row)
	}
	job.NextOffset = end

	if job.NextOffset >= job.TotalRecords {
		return e.finalize(ctx, job)
	}

	job.Status = domain.JobStatusQueued
	if err := e.jobs.Save(ctx, job); err != nil {
		return apperrors.NewInternalError(err)
	}
	if !e.scheduler.ScheduleAfter(e.cfg.ScheduleDelaySeconds, job.ID) {
		e.failJob(ctx, job, "failed to schedule next batch")
		return apperrors.NewInternalError(fmt.Errorf("unable to reschedule job %s", job.ID))
	}
	return nil
}

// JobStatusView is the read-only projection for status consumers.
type JobStatusView struct {
	ID             string            `json:"id"`
	Status         domain.JobStatus  `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	FileName       string            `json:"file_name"`
	OrgUUID        string            `json:"org_uuid"`
	MembershipUUID string            `json:"membership_uuid,omitempty"`
	RosterMode     domain.RosterMode `json:"roster_mode"`
	GroupUUID      string            `json:"group_uuid,omitempty"`
	TotalRecords   int               `json:"total_records"`
	Processed      int               `json:"processed"`
	Added          int               `json:"added"`
	Skipped        int               `json:"skipped"`
	Failed         int               `json:"failed"`
	NextOffset     int               `json:"next_offset"`
	BatchSize      int               `json:"batch_size"`
	ErrorSnippets  []string          `json:"error_snippets,omitempty"`
}

// GetJobStatus returns the job's public fields, never rows or the dedup set.
func (e *Engine) GetJobStatus(ctx context.Context, jobID string) (*JobStatusView, error) {
	job, err := e.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if job == nil {
		return nil, apperrors.NewNotFound("upload job", map[string]any{"job_id": jobID})
	}
	return &JobStatusView{
		ID:             job.ID,
		Status:         job.Status,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
		CompletedAt:    job.CompletedAt,
		FileName:       job.FileName,
		OrgUUID:        job.OrgUUID,
		MembershipUUID: job.MembershipUUID,
		RosterMode:     job.RosterMode,
		GroupUUID:      job.GroupUUID,
		TotalRecords:   job.TotalRecords,
		Processed:      job.Processed,
		Added:          job.Added,
		Skipped:        job.Skipped,
		Failed:         job.Failed,
		NextOffset:     job.NextOffset,
		BatchSize:      job.BatchSize,
		ErrorSnippets:  job.ErrorSnippets,
	}, nil
}

// processRow applies validation, dedup, and the orchestrator call for one
// row, mutating the job's counters.
func (e *Engine) processRow(ctx context.Context, job *domain.BulkUploadJob, row domain.UploadRow) {
	job.Processed++

	if !roster.EmailValid(row.Email) {
		e.failRow(job, row.Line, "invalid email")
		return
	}
	if strings.TrimSpace(row.FirstName) == "" || strings.TrimSpace(row.LastName) == "" {
		e.failRow(job, row.Line, "first and last name are required")
		return
	}

	emailKey := roster.NormalizeEmail(row.Email)
	if job.SeenEmails[emailKey] {
		e.skipRow(job)
		return
	}
	job.SeenEmails[emailKey] = true

	relType := strings.TrimSpace(row.RelationshipType)
	if relType == "" && e.rosterCfg.RelationshipRequired {
		e.failRow(job, row.Line, "relationship type is required")
		return
	}
	if relType != "" && !e.orchestrator.RelationshipTypeAllowed(relType) {
		e.failRow(job, row.Line, fmt.Sprintf("relationship type %q not allowed", relType))
		return
	}

	alreadyMember, err := e.memberExists(ctx, job, emailKey)
	if err != nil {
		e.failRow(job, row.Line, err.Error())
		return
	}
	if alreadyMember {
		e.skipRow(job)
		return
	}

	req := domain.MemberAdditionRequest{
		FirstName:        row.FirstName,
		LastName:         row.LastName,
		Email:            emailKey,
		Roles:            e.filterRoles(row.Roles),
		RelationshipType: relType,
	}
	rctx := domain.RosterContext{
		MembershipUUID: job.MembershipUUID,
		GroupUUID:      job.GroupUUID,
	}

	if _, err := e.orchestrator.AddMember(ctx, job.OrgUUID, req, rctx); err != nil {
		if apperrors.CodeOf(err) == roster.CodeMemberExists {
			e.skipRow(job)
			return
		}
		e.failRow(job, row.Line, err.Error())
		return
	}

	job.Added++
	e.metrics.RecordRowOutcome("added")
}

// memberExists runs the mode-specific existing-membership check so that
// re-uploading a partially processed file does not duplicate members.
func (e *Engine) memberExists(ctx context.Context, job *domain.BulkUploadJob, email string) (bool, error) {
	if job.RosterMode == domain.RosterModeGroups {
		person, err := e.client.FindPersonByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, membership.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		gm, err := e.client.FindGroupMembership(ctx, job.GroupUUID, person.UUID)
		if err != nil {
			if errors.Is(err, membership.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		return gm != nil && gm.Active, nil
	}

	if job.MembershipUUID != "" {
		pm, err := e.client.FindSeatAssignment(ctx, job.MembershipUUID, email)
		if err != nil && !errors.Is(err, membership.ErrNotFound) {
			return false, err
		}
		if pm != nil && pm.Active {
			return true, nil
		}
	}

	person, err := e.client.FindPersonByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, membership.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	records, err := e.client.ListPersonMemberships(ctx, person.UUID, job.OrgUUID)
	if err != nil {
		if errors.Is(err, membership.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	for _, record := range records {
		if record.Active {
			return true, nil
		}
	}
	return false, nil
}

// filterRoles drops the owner role (unless allowed) and excluded roles.
func (e *Engine) filterRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		role = strings.TrimSpace(role)
		if role == "" {
			continue
		}
		if !e.rosterCfg.AllowOwnerAssignment && strings.EqualFold(role, e.rosterCfg.OwnerRole) {
			continue
		}
		if containsFold(e.rosterCfg.ExcludedRoles, role) {
			continue
		}
		out = append(out, role)
	}
	return out
}

// finalize completes the job, clears the row set and dedup set, and
// invalidates the member-list cache when anything was added.
func (e *Engine) finalize(ctx context.Context, job *domain.BulkUploadJob) error {
	now := time.Now()
	job.Status = domain.JobStatusCompleted
	job.CompletedAt = &now
	job.NextOffset = job.TotalRecords
	job.Rows = nil
	job.SeenEmails = nil
	if err := e.jobs.Save(ctx, job); err != nil {
		return apperrors.NewInternalError(err)
	}
	if job.Added > 0 {
		e.jobs.InvalidateMemberCache(ctx, job.OrgUUID)
	}
	e.metrics.RecordJobTransition(string(job.Status))
	e.publishJobEvent(ctx, events.EventUploadJobDone, job)
	e.logger.Info("upload job completed",
		zap.String("job_id", job.ID),
		zap.Int("added", job.Added),
		zap.Int("skipped", job.Skipped),
		zap.Int("failed", job.Failed))
	return nil
}

// failJob marks the job Failed after an infrastructure error.
func (e *Engine) failJob(ctx context.Context, job *domain.BulkUploadJob, reason string) {
	job.Status = domain.JobStatusFailed
	e.appendSnippet(job, reason)
	if err := e.jobs.Save(ctx, job); err != nil {
		e.logger.Error("failed to persist failed job", zap.String("job_id", job.ID), zap.Error(err))
	}
	e.metrics.RecordJobTransition(string(job.Status))
	e.publishJobEvent(ctx, events.EventUploadJobFailed, job)
}

func (e *Engine) failRow(job *domain.BulkUploadJob, line int, reason string) {
	job.Failed++
	e.appendSnippet(job, fmt.Sprintf("line %d: %s", line, reason))
	e.metrics.RecordRowOutcome("failed")
}

func (e *Engine) skipRow(job *domain.BulkUploadJob) {
	job.Skipped++
	e.metrics.RecordRowOutcome("skipped")
}

func (e *Engine) appendSnippet(job *domain.BulkUploadJob, snippet string) {
	maxSnippets := e.cfg.MaxErrorSnippets
	if maxSnippets <= 0 {
		maxSnippets = 5
	}
	if len(job.ErrorSnippets) >= maxSnippets {
		return
	}
	maxLen := e.cfg.SnippetMaxLen
	if maxLen <= 0 {
		maxLen = 160
	}
	if len(snippet) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(snippet[cut]) {
			cut--
		}
		snippet = snippet[:cut]
	}
	job.ErrorSnippets = append(job.ErrorSnippets, snippet)
}

func (e *Engine) publishJobEvent(ctx context.Context, eventType events.EventType, job *domain.BulkUploadJob) {
	if e.dispatcher == nil {
		return
	}
	_ = e.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		OrgUUID:   job.OrgUUID,
		Timestamp: time.Now(),
		Payload: events.UploadJobPayload{
			JobID:        job.ID,
			FileName:     job.FileName,
			TotalRecords: job.TotalRecords,
			Added:        job.Added,
			Skipped:      job.Skipped,
			Failed:       job.Failed,
		},
	})
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}
