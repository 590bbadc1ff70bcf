package bulk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/persistence"
)

const (
	jobKeyPrefix      = "bulk:job:"
	jobIndexKey       = "bulk:jobs:index"
	memberCachePrefix = "org:members:"
)

// JobStore persists job records and a bounded most-recent-first index of job
// ids. The index is the only discovery path into records, so pruning an id
// deletes its record too.
type JobStore struct {
	store     persistence.Store
	retention int
	logger    *zap.Logger
}

// NewJobStore creates the store with the given retention cap.
func NewJobStore(store persistence.Store, retention int, logger *zap.Logger) *JobStore {
	if retention <= 0 {
		retention = 20
	}
	return &JobStore{store: store, retention: retention, logger: logger}
}

// Get loads a job record; a missing record returns (nil, nil).
func (s *JobStore) Get(ctx context.Context, jobID string) (*domain.BulkUploadJob, error) {
	raw, err := s.store.Get(ctx, jobKeyPrefix+jobID)
	if err != nil {
		if errors.Is(err, persistence.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var job domain.BulkUploadJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", jobID, err)
	}
	return &job, nil
}

// Save writes the job record, stamps UpdatedAt, moves its id to the front of
// the index, and prunes everything past the retention cap. The index stays
// ordered by update recency, so the pruned tail is oldest-by-update-time.
func (s *JobStore) Save(ctx context.Context, job *domain.BulkUploadJob) error {
	job.UpdatedAt = time.Now()

	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	if err := s.store.Set(ctx, jobKeyPrefix+job.ID, raw); err != nil {
		return err
	}

	index, err := s.Index(ctx)
	if err != nil {
		return err
	}
	index = frontMove(index, job.ID)

	for _, stale := range index[min(len(index), s.retention):] {
		if err := s.store.Delete(ctx, jobKeyPrefix+stale); err != nil {
			s.logger.Warn("failed to prune job record", zap.String("job_id", stale), zap.Error(err))
		}
	}
	if len(index) > s.retention {
		index = index[:s.retention]
	}

	return s.writeIndex(ctx, index)
}

// Delete removes a job record and its index entry.
func (s *JobStore) Delete(ctx context.Context, jobID string) error {
	if err := s.store.Delete(ctx, jobKeyPrefix+jobID); err != nil {
		return err
	}
	index, err := s.Index(ctx)
	if err != nil {
		return err
	}
	out := index[:0]
	for _, id := range index {
		if id != jobID {
			out = append(out, id)
		}
	}
	return s.writeIndex(ctx, out)
}

// Index returns job ids, most recently updated first.
func (s *JobStore) Index(ctx context.Context) ([]string, error) {
	raw, err := s.store.Get(ctx, jobIndexKey)
	if err != nil {
		if errors.Is(err, persistence.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var index []string
	if err := json.Unmarshal(raw, &index); err != nil {
		return nil, fmt.Errorf("decode job index: %w", err)
	}
	return index, nil
}

// List loads every indexed job record.
func (s *JobStore) List(ctx context.Context) ([]*domain.BulkUploadJob, error) {
	index, err := s.Index(ctx)
	if err != nil {
		return nil, err
	}
	jobs := make([]*domain.BulkUploadJob, 0, len(index))
	for _, id := range index {
		job, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if job != nil {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

// FindActiveByHash returns the Queued/Processing job holding the file hash,
// or nil when no active job matches.
func (s *JobStore) FindActiveByHash(ctx context.Context, fileHash string) (*domain.BulkUploadJob, error) {
	jobs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, job := range jobs {
		if job.FileHash == fileHash && job.Active() {
			return job, nil
		}
	}
	return nil, nil
}

// InvalidateMemberCache drops the organization's cached member list.
func (s *JobStore) InvalidateMemberCache(ctx context.Context, orgUUID string) {
	if err := s.store.Delete(ctx, memberCachePrefix+orgUUID); err != nil {
		s.logger.Warn("failed to invalidate member cache", zap.String("org_uuid", orgUUID), zap.Error(err))
	}
}

func (s *JobStore) writeIndex(ctx context.Context, index []string) error {
	raw, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("encode job index: %w", err)
	}
	return s.store.Set(ctx, jobIndexKey, raw)
}

func frontMove(index []string, id string) []string {
	out := make([]string, 0, len(index)+1)
	out = append(out, id)
	for _, existing := range index {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
