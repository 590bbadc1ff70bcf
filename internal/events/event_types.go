package events

import (
	"time"

	"github.com/spec-kit/roster-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMemberAdded      EventType = "member_added"
	EventMemberRemoved    EventType = "member_removed"
	EventTouchpoint       EventType = "touchpoint"
	EventUploadJobQueued  EventType = "upload_job_queued"
	EventUploadJobDone    EventType = "upload_job_done"
	EventUploadJobFailed  EventType = "upload_job_failed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	OrgUUID   string      `json:"org_uuid,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// MemberAddedPayload payload.
type MemberAddedPayload struct {
	PersonUUID string            `json:"person_uuid"`
	Mode       domain.RosterMode `json:"mode"`
	Roles      []string          `json:"roles,omitempty"`
}

// MemberRemovedPayload payload.
type MemberRemovedPayload struct {
	PersonUUID string            `json:"person_uuid"`
	Mode       domain.RosterMode `json:"mode"`
}

// TouchpointPayload payload.
type TouchpointPayload struct {
	PersonUUID string `json:"person_uuid"`
	Note       string `json:"note"`
}

// UploadJobPayload payload for job lifecycle events.
type UploadJobPayload struct {
	JobID        string `json:"job_id"`
	FileName     string `json:"file_name"`
	TotalRecords int    `json:"total_records"`
	Added        int    `json:"added,omitempty"`
	Skipped      int    `json:"skipped,omitempty"`
	Failed       int    `json:"failed,omitempty"`
}
