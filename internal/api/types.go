package api

import "errors"

// UploadFailedMessage is shown when a rejected upload carries no message
const UploadFailedMessage = "Upload failed"

// QueryRequest is the body of POST /api/query
type QueryRequest struct {
	Question string `json:"question"`
}

// Citation references a source fragment supporting the answer
type Citation struct {
	File    string `json:"file"`
	ChunkID string `json:"chunk_id,omitempty"`
	Page    *int   `json:"page,omitempty"`
}

// Answer is the generated answer with its citations, in server order
type Answer struct {
	Text      string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// HealthStatus is the response of GET /health
type HealthStatus struct {
	Status    string `json:"status"`
	StoreName string `json:"store_name,omitempty"`
	FileCount *int   `json:"file_count,omitempty"`
}

// Healthy reports whether the backend declared itself healthy
func (h *HealthStatus) Healthy() bool {
	return h != nil && h.Status == "healthy"
}

// UploadResult is the response of POST /api/upload
type UploadResult struct {
	Success    bool     `json:"success"`
	Filename   string   `json:"filename"`
	Message    string   `json:"message"`
	FileSizeMB *float64 `json:"file_size_mb,omitempty"`
}

// Err returns nil for a successful upload, otherwise an error carrying the
// server's message
func (r *UploadResult) Err() error {
	if r == nil {
		return errors.New(UploadFailedMessage)
	}
	if r.Success {
		return nil
	}
	if r.Message == "" {
		return errors.New(UploadFailedMessage)
	}
	return errors.New(r.Message)
}

type errorBody struct {
	Detail any `json:"detail"`
}
