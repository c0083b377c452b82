package models

import (
	"encoding/json"
	"time"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Chat is a conversation. ID is the storage-assigned internal id; ExternalID is
// the client-chosen id and the one every API response exposes.
type Chat struct {
	ID          string          `json:"-"`
	ExternalID  string          `json:"id"`
	Title       string          `json:"title"`
	UserID      string          `json:"userId"`
	Visibility  Visibility      `json:"visibility"`
	LastContext json.RawMessage `json:"lastContext,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// OwnedBy reports whether userID owns the chat.
func (c *Chat) OwnedBy(userID string) bool {
	return c.UserID == userID
}

// ChatPage is one page of the history listing.
type ChatPage struct {
	Chats   []Chat `json:"chats"`
	HasMore bool   `json:"hasMore"`
}

// HistoryQuery selects a page of chats. At most one cursor may be set.
type HistoryQuery struct {
	UserID        string
	Limit         int
	StartingAfter string
	EndingBefore  string
}
