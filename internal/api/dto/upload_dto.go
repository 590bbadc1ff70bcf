package dto

// EnqueueUploadResponse confirms an accepted bulk upload.
type EnqueueUploadResponse struct {
	JobID        string `json:"job_id"`
	Status       string `json:"status"`
	TotalRecords int    `json:"total_records"`
	BatchSize    int    `json:"batch_size"`
}
