package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/bedtime-bot/internal/domain"
	"github.com/ykvlv/bedtime-bot/internal/store"
)

// PresenceView is the read side of the presence registry shown by `info`.
type PresenceView interface {
	IsOnline(userID string) bool
	LastReminder(userID string) (time.Time, bool)
	Since(userID string) (time.Time, bool)
}

// Router parses prefixed chat commands and applies them to the settings store.
type Router struct {
	repo      store.Repo
	presence  PresenceView
	log       *zap.Logger
	prefix    string
	defaultTZ string
}

// NewRouter creates a new command router.
func NewRouter(repo store.Repo, presence PresenceView, log *zap.Logger, prefix, defaultTZ string) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		repo:      repo,
		presence:  presence,
		log:       log,
		prefix:    prefix,
		defaultTZ: defaultTZ,
	}
}

// Handle routes one message. It returns the reply and whether the message was a command.
func (r *Router) Handle(ctx context.Context, userID, content string) (string, bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, r.prefix) {
		return "", false
	}
	rest := content[len(r.prefix):]
	if rest != "" && rest[0] != ' ' {
		return "", false // e.g. "!bedroom"
	}

	cmd, arg, _ := strings.Cut(strings.TrimSpace(rest), " ")
	arg = strings.TrimSpace(arg)

	r.log.Debug("command", zap.String("user", userID), zap.String("cmd", cmd))

	switch strings.ToLower(cmd) {
	case "", "help":
		return fmt.Sprintf(helpFmt, r.prefix), true
	case "bedtime":
		return r.handleBedtime(ctx, userID, arg), true
	case "timezone", "time_zone", "tz":
		return r.handleTimeZone(ctx, userID, arg), true
	case "on":
		return r.handleEnabled(ctx, userID, true), true
	case "off":
		return r.handleEnabled(ctx, userID, false), true
	case "info":
		return r.handleInfo(ctx, userID), true
	default:
		return fmt.Sprintf(unknownCommandFmt, cmd, r.prefix), true
	}
}

func (r *Router) handleBedtime(ctx context.Context, userID, arg string) string {
	b, err := domain.ParseBedtime(arg)
	if err != nil {
		return badBedtimeText
	}
	if err := r.repo.SetBedtime(ctx, userID, b); err != nil {
		r.log.Error("SetBedtime failed", zap.String("user", userID), zap.Error(err))
		return storageErrorText
	}
	return fmt.Sprintf(bedtimeSetFmt, b.Kitchen(), b.String())
}

func (r *Router) handleTimeZone(ctx context.Context, userID, arg string) string {
	tz, err := domain.ValidateTZ(arg)
	if err != nil {
		return badTimeZoneText
	}
	if err := r.repo.SetTimeZone(ctx, userID, tz); err != nil {
		r.log.Error("SetTimeZone failed", zap.String("user", userID), zap.Error(err))
		return storageErrorText
	}
	return fmt.Sprintf(timeZoneSetFmt, tz)
}

func (r *Router) handleEnabled(ctx context.Context, userID string, enabled bool) string {
	if err := r.repo.SetEnabled(ctx, userID, enabled); err != nil {
		r.log.Error("SetEnabled failed", zap.String("user", userID), zap.Error(err))
		return storageErrorText
	}
	if enabled {
		return remindersOnText
	}
	return remindersOffText
}

func (r *Router) handleInfo(ctx context.Context, userID string) string {
	u, err := r.repo.GetUser(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		u = &domain.User{ID: userID, Enabled: true, TZ: r.defaultTZ}
	case err != nil:
		r.log.Error("GetUser failed", zap.String("user", userID), zap.Error(err))
		return readErrorText
	}

	tz := u.TZ
	if tz == "" {
		tz = r.defaultTZ
	}
	bedtime := none
	if u.HasBedtime() {
		bedtime = u.Bedtime.Kitchen()
	}
	loc := domain.LoadLocation(tz, r.defaultTZ)
	since := none
	if t, ok := r.presence.Since(userID); ok && !t.IsZero() {
		since = t.In(loc).Format("15:04:05")
	}
	last := none
	if t, ok := r.presence.LastReminder(userID); ok {
		last = t.In(loc).Format("15:04:05") + cycleNote
	}

	return fmt.Sprintf(infoFmt, u.Enabled, tz, bedtime, r.presence.IsOnline(userID), since, last)
}
