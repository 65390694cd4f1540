package models

// ProcessRequest is the body of POST /api/process. Operations is kept raw
// so the sanitizer can apply its drop-invalid-fields policy instead of
// failing the whole request on one bad field.
type ProcessRequest struct {
	FileID     string                 `json:"file_id" validate:"required"`
	Operations map[string]interface{} `json:"operations"`
}

// ProcessResponse acknowledges an accepted processing job.
type ProcessResponse struct {
	JobID string `json:"job_id"`
}

// Dimensions is the width/height pair reported after upload.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// UploadResponse reports the registered file and its probed metadata.
type UploadResponse struct {
	FileID     string     `json:"file_id"`
	Duration   float64    `json:"duration"`
	Dimensions Dimensions `json:"dimensions"`
	Format     string     `json:"format"`
}

// StatusResponse is the snapshot returned by GET /api/status/:jobId.
type StatusResponse struct {
	Status    JobStatus `json:"status"`
	Progress  int       `json:"progress"`
	OutputURL string    `json:"output_url,omitempty"`
	Error     string    `json:"error,omitempty"`
}
