// Package models defines server-side data models persisted in the database.
package models

import "time"

// Document is the registry record for a logical file. It points at the
// latest remote-storage object; historical content lives in DocumentVersion.
type Document struct {
	ID          string     `json:"id"`
	UserID      string     `json:"-"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	MimeType    string     `json:"mimeType"`
	Size        int64      `json:"size"`
	RemotePath  string     `json:"remotePath"`
	IsSynced    bool       `json:"isSynced"`
	LastSynced  *time.Time `json:"lastSynced,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	// ProjectIDs is populated on reads that join the project links.
	ProjectIDs []string `json:"projectIds,omitempty"`
}
