package models

import "time"

// SourceFile represents a registered uploaded asset. The probed duration,
// dimensions and container format are captured once at registration and are
// the ground truth used to bound trim and crop operations later on.
type SourceFile struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	Filename     string    `json:"filename"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	Duration     float64   `json:"duration"` // seconds
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Format       string    `json:"format"`
	UploadedAt   time.Time `json:"uploaded_at"`
}
