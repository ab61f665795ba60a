package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"commtracker-backend/internal/commlog"
	"commtracker-backend/internal/model"
	"commtracker-backend/internal/repository"
	"commtracker-backend/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxWriteAttempts = 3
	maxIDAttempts    = 5
	maxNameLength    = 100

	EventContactsChanged = "contacts.changed"
)

// Notifier pushes change events to a user's open views.
type Notifier interface {
	Notify(userID, msgType string, data interface{})
}

type ContactService struct {
	ContactRepo *repository.ContactRepository
	CommRepo    *repository.CommunicationRepository
	Notifier    Notifier
	Logger      *zap.Logger
	Now         func() time.Time
	deletes     *deleteGuard

	// beforeWrite runs between the read and the conditional write of mutate.
	beforeWrite func()
}

func NewContactService(contactRepo *repository.ContactRepository, commRepo *repository.CommunicationRepository, notifier Notifier, logger *zap.Logger) *ContactService {
	return &ContactService{
		ContactRepo: contactRepo,
		CommRepo:    commRepo,
		Notifier:    notifier,
		Logger:      logger,
		Now:         time.Now,
		deletes:     newDeleteGuard(deleteArmWindow),
	}
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", "please enter a contact name")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", invalid("name", "must be at most 100 characters")
	}
	return name, nil
}

func (s *ContactService) notify(userID, contactID, action string) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Notify(userID, EventContactsChanged, map[string]string{
		"contact_id": contactID,
		"action":     action,
	})
}

// ListContacts returns the user's contacts with the recency of their last
// logged communication.
func (s *ContactService) ListContacts(ctx context.Context, userID string) ([]*model.ContactView, error) {
	contacts, err := s.ContactRepo.ListContacts(ctx, userID)
	if err != nil {
		return nil, storeErr("list contacts", err)
	}

	now := s.Now()
	views := make([]*model.ContactView, 0, len(contacts))
	for _, c := range contacts {
		v := &model.ContactView{Contact: c}
		if last, ok := commlog.Latest(c.CommunicationLog); ok {
			v.LastContact = commlog.FormatRecency(last.Timestamp, now)
			v.LastContactKind = last.Kind
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *ContactService) GetContact(ctx context.Context, userID, id string) (*model.Contact, error) {
	c, err := s.ContactRepo.GetContact(ctx, userID, id)
	if err != nil {
		return nil, storeErr("get contact", err)
	}
	if c == nil {
		return nil, fmt.Errorf("contact %q: %w", id, ErrNotFound)
	}
	return c, nil
}

// CreateContact adds a contact whose ID is derived from its name. An ID
// already in use gets a random suffix; existing contacts are never replaced.
func (s *ContactService) CreateContact(ctx context.Context, userID, name string, imageURL *string) (*model.Contact, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	if imageURL != nil && strings.TrimSpace(*imageURL) == "" {
		imageURL = nil
	}

	now := s.Now().UTC()
	base := utils.Slugify(name)
	id := base
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		if attempt > 0 {
			suffix, err := utils.RandomSuffix(4)
			if err != nil {
				return nil, err
			}
			id = base + "-" + suffix
		}

		c := &model.Contact{
			ID:               id,
			UserID:           userID,
			Name:             name,
			ImageURL:         imageURL,
			CommunicationLog: model.CommunicationLog{},
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		err := s.ContactRepo.CreateContact(ctx, c)
		if err == nil {
			s.Logger.Info("Contact created", zap.String("user_id", userID), zap.String("contact_id", id))
			s.notify(userID, id, "created")
			return c, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, storeErr("create contact", err)
		}
	}
	return nil, fmt.Errorf("no free id for contact %q: %w", name, ErrConflict)
}

// mutate applies fn to the current stored contact and writes it back only
// if no other write landed in between, re-reading and retrying otherwise.
// With expectedVersion set, the caller's view must be current and a stale
// view fails with ErrConflict instead of retrying.
func (s *ContactService) mutate(ctx context.Context, userID, id string, expectedVersion *int64, action string, fn func(c *model.Contact) error) (*model.Contact, error) {
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		c, err := s.GetContact(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		if expectedVersion != nil && c.Version != *expectedVersion {
			return nil, fmt.Errorf("contact %q is at version %d, not %d: %w", id, c.Version, *expectedVersion, ErrConflict)
		}

		if err := fn(c); err != nil {
			return nil, err
		}
		c.UpdatedAt = s.Now().UTC()

		if s.beforeWrite != nil {
			s.beforeWrite()
		}
		err = s.ContactRepo.UpdateContact(ctx, c)
		if err == nil {
			s.notify(userID, id, action)
			return c, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, storeErr("update contact", err)
		}
		if expectedVersion != nil {
			return nil, fmt.Errorf("contact %q changed during update: %w", id, ErrConflict)
		}
		s.Logger.Debug("Contact write raced, retrying",
			zap.String("contact_id", id),
			zap.Int("attempt", attempt))
	}
	return nil, fmt.Errorf("contact %q kept changing during update: %w", id, ErrConflict)
}

// UpdateContact renames, re-images or (un)pins a contact. An empty image URL
// removes the image.
func (s *ContactService) UpdateContact(ctx context.Context, userID, id string, patch model.ContactPatch, expectedVersion *int64) (*model.Contact, error) {
	var name string
	if patch.Name != nil {
		var err error
		if name, err = validateName(*patch.Name); err != nil {
			return nil, err
		}
	}

	return s.mutate(ctx, userID, id, expectedVersion, "updated", func(c *model.Contact) error {
		if patch.Name != nil {
			c.Name = name
		}
		if patch.ImageURL != nil {
			if url := strings.TrimSpace(*patch.ImageURL); url != "" {
				c.ImageURL = &url
			} else {
				c.ImageURL = nil
			}
		}
		if patch.Pinned != nil {
			c.Pinned = *patch.Pinned
		}
		return nil
	})
}

// LogCommunication records a call or message on the contact's log and in the
// dashboard feed. A zero timestamp means now. An event older than a full log
// is not kept and leaves the feed untouched.
func (s *ContactService) LogCommunication(ctx context.Context, userID, id string, kind commlog.Kind, timestamp time.Time) (*model.Contact, error) {
	kind, err := commlog.ParseKind(string(kind))
	if err != nil {
		return nil, &ValidationError{Field: "type", Reason: err.Error(), Err: err}
	}
	if timestamp.IsZero() {
		timestamp = s.Now()
	}
	event := commlog.Event{Timestamp: timestamp.UTC(), Kind: kind}

	var (
		kept    bool
		evicted *commlog.Event
	)
	c, err := s.mutate(ctx, userID, id, nil, "logged", func(c *model.Contact) error {
		kept, evicted = true, nil
		// AppendEvent places a tie after the existing entries, so a full log
		// drops the new event unless it is strictly newer than the oldest.
		if n := len(c.CommunicationLog); n >= commlog.MaxEvents {
			oldest := c.CommunicationLog[n-1]
			if !event.Timestamp.After(oldest.Timestamp) {
				kept = false
				return nil
			}
			evicted = &oldest
		}
		c.CommunicationLog = commlog.AppendEvent(c.CommunicationLog, event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !kept {
		s.Logger.Debug("Communication older than a full log, not kept",
			zap.String("user_id", userID),
			zap.String("contact_id", c.ID))
		return c, nil
	}

	if evicted != nil {
		s.removeFromFeed(ctx, userID, c.ID, *evicted)
	}
	rec := &model.CommunicationRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		ContactID:   c.ID,
		ContactName: c.Name,
		Kind:        kind,
		Timestamp:   event.Timestamp,
		Pinned:      c.Pinned,
	}
	if err := s.CommRepo.LogCommunication(ctx, rec); err != nil {
		// the contact log is authoritative; the feed entry is derived from it
		s.Logger.Error("Failed to record communication in feed",
			zap.String("user_id", userID),
			zap.String("contact_id", c.ID),
			zap.Error(err))
	}

	return c, nil
}

// DeleteLogEntry removes the entry at index from the contact's log and its
// record from the dashboard feed.
func (s *ContactService) DeleteLogEntry(ctx context.Context, userID, id string, index int, expectedVersion *int64) (*model.Contact, error) {
	var removed commlog.Event
	c, err := s.mutate(ctx, userID, id, expectedVersion, "log_deleted", func(c *model.Contact) error {
		log, err := commlog.DeleteEventAt(c.CommunicationLog, index)
		if err != nil {
			return &ValidationError{Field: "index", Reason: err.Error(), Err: err}
		}
		removed = c.CommunicationLog[index]
		c.CommunicationLog = log
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.removeFromFeed(ctx, userID, c.ID, removed)
	return c, nil
}

func (s *ContactService) removeFromFeed(ctx context.Context, userID, contactID string, e commlog.Event) {
	if err := s.CommRepo.DeleteEntry(ctx, userID, contactID, e.Kind, e.Timestamp); err != nil {
		s.Logger.Error("Failed to remove communication from feed",
			zap.String("user_id", userID),
			zap.String("contact_id", contactID),
			zap.Error(err))
	}
}

func (s *ContactService) DeleteContact(ctx context.Context, userID, id string) error {
	deleted, err := s.ContactRepo.DeleteContact(ctx, userID, id)
	if err != nil {
		return storeErr("delete contact", err)
	}
	if !deleted {
		return fmt.Errorf("contact %q: %w", id, ErrNotFound)
	}
	s.deletes.disarm(userID, id)

	if err := s.CommRepo.DeleteByContact(ctx, userID, id); err != nil {
		s.Logger.Error("Failed to remove feed entries of deleted contact",
			zap.String("user_id", userID),
			zap.String("contact_id", id),
			zap.Error(err))
	}

	s.Logger.Info("Contact deleted", zap.String("user_id", userID), zap.String("contact_id", id))
	s.notify(userID, id, "deleted")
	return nil
}

// RequestDelete is the two-step delete: the first request arms deletion of
// the contact, a second request for the same contact within the arm window
// deletes it.
func (s *ContactService) RequestDelete(ctx context.Context, userID, id string) (DeleteState, error) {
	if _, err := s.GetContact(ctx, userID, id); err != nil {
		return "", err
	}
	if !s.deletes.confirm(userID, id, s.Now()) {
		return DeleteArmed, nil
	}
	if err := s.DeleteContact(ctx, userID, id); err != nil {
		return "", err
	}
	return DeleteDone, nil
}
