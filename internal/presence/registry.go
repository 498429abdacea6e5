package presence

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event is a single presence change delivered by the gateway.
type Event struct {
	UserID string
	Online bool
	At     time.Time
}

type record struct {
	online       bool
	lastReminder *time.Time
	since        time.Time // time of the last online/offline transition
}

// Registry is the single source of truth for "is user U online right now".
// It owns the online flag and the last-reminder timestamp of every tracked user.
// Records are created on first sight and never removed.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*record
	log     *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		records: make(map[string]*record),
		log:     log,
	}
}

// Apply records the user's online state. An online→offline transition clears
// the last-reminder timestamp so the next bedtime cycle starts fresh.
// Applying the same state twice has no further effect.
func (r *Registry) Apply(userID string, online bool, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[userID]
	if !ok {
		r.records[userID] = &record{online: online, since: at}
		return
	}
	if rec.online == online {
		return
	}
	if !online {
		rec.lastReminder = nil
	}
	rec.online = online
	rec.since = at
}

// Since returns when the user entered the current online or offline state.
func (r *Registry) Since(userID string) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[userID]
	if !ok {
		return time.Time{}, false
	}
	return rec.since, true
}

// IsOnline returns false for unknown users.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[userID]
	return ok && rec.online
}

// SnapshotOnline returns the ids of every user currently online, sorted.
func (r *Registry) SnapshotOnline() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.records))
	for id, rec := range r.records {
		if rec.online {
			ids = append(ids, id)
		}
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// LastReminder returns the time of the last reminder in the current cycle.
func (r *Registry) LastReminder(userID string) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[userID]
	if !ok || rec.lastReminder == nil {
		return time.Time{}, false
	}
	return *rec.lastReminder, true
}

// Claim atomically checks that the user is online and not cooling down, and if
// so stamps the last-reminder time with now. Only the caller that gets true may
// send a reminder for this interval.
func (r *Registry) Claim(userID string, now time.Time, interval time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[userID]
	if !ok || !rec.online {
		return false
	}
	if rec.lastReminder != nil && now.Sub(*rec.lastReminder) < interval {
		return false
	}
	t := now
	rec.lastReminder = &t
	return true
}

// Len returns the number of tracked users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Consume applies events from ch in arrival order until ctx is done or ch is closed.
func (r *Registry) Consume(ctx context.Context, ch <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			r.log.Info("presence consumer stopping")
			return
		case ev, ok := <-ch:
			if !ok {
				r.log.Info("presence feed closed")
				return
			}
			r.Apply(ev.UserID, ev.Online, ev.At)
			r.log.Debug("presence applied",
				zap.String("user", ev.UserID),
				zap.Bool("online", ev.Online),
			)
		}
	}
}
