package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"commtracker-backend/internal/commlog"
)

// CommunicationLog is a contact's newest-first event history, stored as one
// JSON column.
type CommunicationLog []commlog.Event

// Make CommunicationLog implement sql.Scanner and driver.Valuer
func (l CommunicationLog) Value() (driver.Value, error) {
	if l == nil {
		l = CommunicationLog{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *CommunicationLog) Scan(value interface{}) error {
	var b []byte
	switch v := value.(type) {
	case nil:
		*l = CommunicationLog{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into CommunicationLog", value)
	}
	var events []commlog.Event
	if err := json.Unmarshal(b, &events); err != nil {
		return err
	}
	if events == nil {
		events = []commlog.Event{}
	}
	*l = events
	return nil
}

type Contact struct {
	ID               string           `json:"id"`
	UserID           string           `json:"-"`
	Name             string           `json:"name"`
	ImageURL         *string          `json:"image_url"`
	CommunicationLog CommunicationLog `json:"communication_log"`
	Pinned           bool             `json:"pinned"`
	Version          int64            `json:"version"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ContactPatch carries the fields of an update; nil fields are left unchanged.
type ContactPatch struct {
	Name     *string
	ImageURL *string
	Pinned   *bool
}

// ContactView is a contact as listed to the client, with its recency line.
type ContactView struct {
	*Contact
	LastContact     string       `json:"last_contact,omitempty"`
	LastContactKind commlog.Kind `json:"last_contact_type,omitempty"`
}
