package models

import "time"

type DocumentKind string

const (
	KindText  DocumentKind = "text"
	KindCode  DocumentKind = "code"
	KindImage DocumentKind = "image"
	KindSheet DocumentKind = "sheet"
)

// DocumentKinds lists every kind a document may be saved with.
var DocumentKinds = []interface{}{KindText, KindCode, KindImage, KindSheet}

// Document is one revision of an artifact. Revisions share ExternalID;
// the current version is the newest by CreatedAt.
type Document struct {
	ID         string       `json:"-"`
	ExternalID string       `json:"id"`
	Title      string       `json:"title"`
	Content    *string      `json:"content"`
	Kind       DocumentKind `json:"kind"`
	UserID     string       `json:"userId"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// Suggestion is a proposed edit to a document revision.
type Suggestion struct {
	ID                string    `json:"id"`
	DocumentID        string    `json:"documentId"` // external document id
	DocumentCreatedAt time.Time `json:"documentCreatedAt"`
	OriginalText      string    `json:"originalText"`
	SuggestedText     string    `json:"suggestedText"`
	Description       *string   `json:"description"`
	IsResolved        bool      `json:"isResolved"`
	UserID            string    `json:"userId"`
	CreatedAt         time.Time `json:"createdAt"`
}
