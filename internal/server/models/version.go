package models

import "time"

// DocumentVersion is an immutable snapshot of a document's remote content.
// Version numbers are assigned by the database, strictly increasing per
// document and starting at 1.
type DocumentVersion struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"documentId"`
	VersionNumber int64     `json:"versionNumber"`
	RemotePath    string    `json:"remotePath"`
	Size          int64     `json:"size"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`

	// UploaderName is the display name of the uploading user, resolved from
	// the profiles table on list reads. "Unknown User" when no profile exists.
	UploaderName string `json:"uploaderName,omitempty"`
}
