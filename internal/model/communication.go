package model

import (
	"time"

	"commtracker-backend/internal/commlog"
)

// CommunicationRecord is one entry of the dashboard's communication feed.
type CommunicationRecord struct {
	ID          string       `json:"id"`
	UserID      string       `json:"-"`
	ContactID   string       `json:"contact_id"`
	ContactName string       `json:"name"`
	Kind        commlog.Kind `json:"communication_type"`
	Timestamp   time.Time    `json:"timestamp"`
	Pinned      bool         `json:"pinned"`
}
