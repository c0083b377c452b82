package models

import "time"

// File is the metadata row of an uploaded blob.
type File struct {
	ID        string    `json:"id"`
	StorageID string    `json:"storageId"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Size      int64     `json:"size"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Blob is stored file content.
type Blob struct {
	StorageID   string
	ContentType string
	Content     []byte
}
