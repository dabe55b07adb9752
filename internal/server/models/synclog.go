package models

import "time"

// Sync operations recorded in the audit log.
const (
	SyncOpUpload   = "upload"
	SyncOpDownload = "download"
	SyncOpDelete   = "delete"
)

// Sync outcome statuses.
const (
	SyncStatusSuccess = "success"
	SyncStatusFailure = "failure"
)

// SyncLogEntry is one append-only audit record of a sync attempt.
type SyncLogEntry struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	UserID     string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}
