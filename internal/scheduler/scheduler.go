package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/bedtime-bot/internal/domain"
)

// DefaultInterval is both the tick period and the minimum spacing between
// two reminders to the same user.
const DefaultInterval = 5 * time.Second

// DefaultText is the reminder sent when none is configured.
const DefaultText = "Go to bed. 😴 🛏  💤"

// Presence is the part of the presence registry the scheduler reads and stamps.
type Presence interface {
	SnapshotOnline() []string
	LastReminder(userID string) (time.Time, bool)
	Claim(userID string, now time.Time, interval time.Duration) bool
}

// SettingsSource supplies per-user bedtime settings in one batch per tick.
// Users missing from the result never configured anything.
type SettingsSource interface {
	GetUsers(ctx context.Context, userIDs []string) (map[string]*domain.User, error)
}

// Outbox accepts reminders for delivery without blocking.
type Outbox interface {
	Enqueue(r Reminder) bool
}

// Reminder is a single "send reminder to user now" action.
type Reminder struct {
	UserID string
	Text   string
	At     time.Time
}

// Options tune the scheduler.
type Options struct {
	Interval  time.Duration
	Text      string
	DefaultTZ string
	Policy    domain.UnconfiguredPolicy
}

// Scheduler decides on every tick which online users are due a reminder.
type Scheduler struct {
	presence Presence
	settings SettingsSource
	out      Outbox
	log      *zap.Logger
	opts     Options
	now      func() time.Time
}

// New creates a new Scheduler. Zero Options fields fall back to defaults.
func New(presence Presence, settings SettingsSource, out Outbox, log *zap.Logger, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Text == "" {
		opts.Text = DefaultText
	}
	if opts.Policy == "" {
		opts.Policy = domain.PolicyNever
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		presence: presence,
		settings: settings,
		out:      out,
		log:      log,
		opts:     opts,
		now:      time.Now,
	}
}

// Run ticks every interval until ctx is canceled. A tick always runs to
// completion; ticks that would overlap are dropped by the ticker.
//
// Tick instants are snapped to a grid of whole intervals since start, so the
// gap between two consecutive ticks is exactly one interval regardless of
// ticker delivery jitter and the cooldown never swallows a tick.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	start := s.now()
	s.log.Info("scheduler started", zap.Duration("interval", s.opts.Interval))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.Tick(ctx, s.gridNow(start))
		}
	}
}

// gridNow rounds the time elapsed since start to a whole number of intervals.
func (s *Scheduler) gridNow(start time.Time) time.Time {
	elapsed := s.now().Sub(start)
	return start.Add(elapsed.Round(s.opts.Interval))
}

// Tick performs one scheduling pass at now and hands due reminders to the outbox.
// Settings for all online users are read in a single call. It returns the
// reminders it emitted.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) []Reminder {
	online := s.presence.SnapshotOnline()
	if len(online) == 0 {
		return nil
	}

	settings, err := s.settings.GetUsers(ctx, online)
	if err != nil {
		s.log.Error("settings lookup failed", zap.Int("online", len(online)), zap.Error(err))
		return nil
	}

	var emitted []Reminder
	for _, id := range online {
		if !s.pastBedtime(id, settings[id], now) {
			continue
		}
		if !s.presence.Claim(id, now, s.opts.Interval) {
			continue // cooling, or went offline since the snapshot
		}

		r := Reminder{UserID: id, Text: s.opts.Text, At: now}
		emitted = append(emitted, r)
		if s.out != nil && !s.out.Enqueue(r) {
			s.log.Warn("outbox full, reminder dropped", zap.String("user", id))
			continue
		}
		s.log.Debug("reminder emitted", zap.String("user", id))
	}
	return emitted
}

// pastBedtime reports whether the user is in the due-or-cooling part of the
// state machine. u is nil for users without stored settings. Once a reminder
// cycle has started it continues past midnight until the user goes offline.
func (s *Scheduler) pastBedtime(id string, u *domain.User, now time.Time) bool {
	if u == nil {
		return s.opts.Policy == domain.PolicyAlways
	}
	if !u.Enabled {
		return false
	}
	if !u.HasBedtime() {
		return s.opts.Policy == domain.PolicyAlways
	}
	if _, inCycle := s.presence.LastReminder(id); inCycle {
		return true
	}
	loc := domain.LoadLocation(u.TZ, s.opts.DefaultTZ)
	return domain.PastBedtime(now, loc, *u.Bedtime)
}
