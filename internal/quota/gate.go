package quota

import (
	"log"
	"time"
)

// Gate is a conservative client-side throttle over the X API quota. It is not
// a distributed limiter: concurrent callers for one user may both pass the
// check, and the remote API's own limit is the backstop for that race.
type Gate struct {
	store  Store
	window time.Duration
	now    func() time.Time
}

func NewGate(store Store, windowMinutes int) *Gate {
	if windowMinutes <= 0 {
		windowMinutes = 15
	}
	return &Gate{
		store:  store,
		window: time.Duration(windowMinutes) * time.Minute,
		now:    time.Now,
	}
}

// CanCall reports whether a new billed API call is currently permitted for the
// user. Store errors fail open: the remote limit still protects us, and a
// broken throttle table should not take refresh down with it.
func (g *Gate) CanCall(userID string) bool {
	last, err := g.store.LastCall(userID)
	if err != nil {
		log.Printf("[WARN] quota: reading last call for user %s: %v", userID, err)
		return true
	}
	if last == nil {
		return true
	}
	return g.now().Sub(*last) >= g.window
}

// RecordCall stores now as the user's last call time. Callers invoke this once
// per billed attempt, success or not, so a throttled remote is not hammered.
func (g *Gate) RecordCall(userID string) {
	if err := g.store.SetLastCall(userID, g.now()); err != nil {
		log.Printf("[WARN] quota: recording call for user %s: %v", userID, err)
	}
}

// MinutesUntilNextCall returns the whole minutes remaining before CanCall
// turns true again, rounded up, never negative.
func (g *Gate) MinutesUntilNextCall(userID string) int {
	last, err := g.store.LastCall(userID)
	if err != nil || last == nil {
		return 0
	}
	remaining := g.window - g.now().Sub(*last)
	if remaining <= 0 {
		return 0
	}
	mins := int(remaining / time.Minute)
	if remaining%time.Minute > 0 {
		mins++
	}
	return mins
}
