package service

import (
	"sync"
	"time"
)

const deleteArmWindow = 30 * time.Second

type DeleteState string

const (
	DeleteArmed DeleteState = "armed"
	DeleteDone  DeleteState = "deleted"
)

type armedDelete struct {
	contactID string
	at        time.Time
}

// deleteGuard tracks, per user, the one contact currently armed for deletion.
type deleteGuard struct {
	window time.Duration
	mu     sync.Mutex
	armed  map[string]armedDelete
}

func newDeleteGuard(window time.Duration) *deleteGuard {
	return &deleteGuard{window: window, armed: make(map[string]armedDelete)}
}

// confirm reports true when contactID was armed by the user within the
// window, consuming the arm. Otherwise it arms contactID, replacing any
// other armed contact, and reports false.
func (g *deleteGuard) confirm(userID, contactID string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if a, ok := g.armed[userID]; ok && a.contactID == contactID && now.Sub(a.at) <= g.window {
		delete(g.armed, userID)
		return true
	}
	g.armed[userID] = armedDelete{contactID: contactID, at: now}
	return false
}

func (g *deleteGuard) disarm(userID, contactID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if a, ok := g.armed[userID]; ok && a.contactID == contactID {
		delete(g.armed, userID)
	}
}
