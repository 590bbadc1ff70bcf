package domain

import "time"

// JobStatus enumerates lifecycle states for bulk-upload jobs.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "QUEUED"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// UploadRow is one parsed CSV data row, captured verbatim at enqueue time.
type UploadRow struct {
	Line             int      `json:"line"`
	FirstName        string   `json:"first_name"`
	LastName         string   `json:"last_name"`
	Email            string   `json:"email"`
	RelationshipType string   `json:"relationship_type,omitempty"`
	Roles            []string `json:"roles,omitempty"`
}

// BulkUploadJob is the persisted record for one uploaded roster file.
// Rows and SeenEmails are non-empty only while the job is active; both are
// cleared on completion to bound storage growth.
type BulkUploadJob struct {
	ID             string     `json:"id"`
	Status         JobStatus  `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	FileName       string     `json:"file_name"`
	FileHash       string     `json:"file_hash"`
	OrgUUID        string     `json:"org_uuid"`
	MembershipUUID string     `json:"membership_uuid,omitempty"`
	RosterMode     RosterMode `json:"roster_mode"`
	GroupUUID      string     `json:"group_uuid,omitempty"`
	TotalRecords   int        `json:"total_records"`
	Processed      int        `json:"processed"`
	Added          int        `json:"added"`
	Skipped        int        `json:"skipped"`
	Failed         int        `json:"failed"`
	NextOffset     int        `json:"next_offset"`
	BatchSize      int        `json:"batch_size"`
	ErrorSnippets  []string   `json:"error_snippets,omitempty"`
	SeenEmails     map[string]bool `json:"seen_emails,omitempty"`
	Rows           []UploadRow     `json:"rows,omitempty"`
}

// Active reports whether the job can still receive batches.
func (j *BulkUploadJob) Active() bool {
	return j.Status == JobStatusQueued || j.Status == JobStatusProcessing
}

// Terminal reports whether the job has finished, successfully or not.
func (j *BulkUploadJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
