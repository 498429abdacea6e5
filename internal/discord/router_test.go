package discord

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ykvlv/bedtime-bot/internal/domain"
	"github.com/ykvlv/bedtime-bot/internal/store"
)

type memRepo struct {
	users map[string]*domain.User
	err   error
}

func newMemRepo() *memRepo { return &memRepo{users: map[string]*domain.User{}} }

func (m *memRepo) get(id string) *domain.User {
	u, ok := m.users[id]
	if !ok {
		u = &domain.User{ID: id, Enabled: true, TZ: "UTC"}
		m.users[id] = u
	}
	return u
}

func (m *memRepo) UpsertUser(_ context.Context, u *domain.User) error {
	if m.err != nil {
		return m.err
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) GetUser(_ context.Context, id string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) GetUsers(_ context.Context, ids []string) (map[string]*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	res := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			cp := *u
			res[id] = &cp
		}
	}
	return res, nil
}

func (m *memRepo) SetBedtime(_ context.Context, id string, b domain.Bedtime) error {
	if m.err != nil {
		return m.err
	}
	m.get(id).Bedtime = &b
	return nil
}

func (m *memRepo) SetTimeZone(_ context.Context, id, tz string) error {
	if m.err != nil {
		return m.err
	}
	m.get(id).TZ = tz
	return nil
}

func (m *memRepo) SetEnabled(_ context.Context, id string, enabled bool) error {
	if m.err != nil {
		return m.err
	}
	m.get(id).Enabled = enabled
	return nil
}

func (m *memRepo) Close() error { return nil }

type staticPresence struct {
	online bool
	since  time.Time
	last   time.Time
}

func (s staticPresence) IsOnline(string) bool { return s.online }

func (s staticPresence) LastReminder(string) (time.Time, bool) {
	return s.last, !s.last.IsZero()
}

func (s staticPresence) Since(string) (time.Time, bool) {
	return s.since, !s.since.IsZero()
}

func newTestRouter(t *testing.T, repo store.Repo, p PresenceView) *Router {
	return NewRouter(repo, p, zaptest.NewLogger(t), "!bed", "UTC")
}

func TestRouter_IgnoresNonCommands(t *testing.T) {
	r := newTestRouter(t, newMemRepo(), staticPresence{})

	for _, msg := range []string{"hello", "", "!bedroom is tidy", "bed info"} {
		_, ok := r.Handle(context.Background(), "1", msg)
		assert.False(t, ok, msg)
	}
}

func TestRouter_Help(t *testing.T) {
	r := newTestRouter(t, newMemRepo(), staticPresence{})

	for _, msg := range []string{"!bed", "  !bed help  "} {
		reply, ok := r.Handle(context.Background(), "1", msg)
		require.True(t, ok)
		assert.Contains(t, reply, "`!bed bedtime <time>`")
		assert.Contains(t, reply, "keep coming until you go offline")
	}
}

func TestRouter_Unknown(t *testing.T) {
	r := newTestRouter(t, newMemRepo(), staticPresence{})

	reply, ok := r.Handle(context.Background(), "1", "!bed dance")
	require.True(t, ok)
	assert.Equal(t, "Command 'dance' unrecognized. Try `!bed help`.", reply)
}

func TestRouter_Bedtime(t *testing.T) {
	repo := newMemRepo()
	r := newTestRouter(t, repo, staticPresence{})

	reply, _ := r.Handle(context.Background(), "1", "!bed bedtime 10:30 PM")
	assert.Equal(t, "Your bedtime has been set to 10:30 PM (22:30)", reply)
	require.NotNil(t, repo.users["1"].Bedtime)
	assert.Equal(t, 22*60+30, repo.users["1"].Bedtime.Minutes())

	reply, _ = r.Handle(context.Background(), "1", "!bed bedtime whenever")
	assert.Equal(t, badBedtimeText, reply)
	assert.Equal(t, 22*60+30, repo.users["1"].Bedtime.Minutes())
}

func TestRouter_TimeZone(t *testing.T) {
	repo := newMemRepo()
	r := newTestRouter(t, repo, staticPresence{})

	for _, cmd := range []string{"timezone", "time_zone", "tz"} {
		reply, _ := r.Handle(context.Background(), "1", "!bed "+cmd+" Europe/Tallinn")
		assert.Equal(t, "Your time zone has been set to Europe/Tallinn", reply)
	}
	assert.Equal(t, "Europe/Tallinn", repo.users["1"].TZ)

	reply, _ := r.Handle(context.Background(), "1", "!bed tz Nowhere/Land")
	assert.Equal(t, badTimeZoneText, reply)
}

func TestRouter_OnOff(t *testing.T) {
	repo := newMemRepo()
	r := newTestRouter(t, repo, staticPresence{})

	reply, _ := r.Handle(context.Background(), "1", "!bed off")
	assert.Equal(t, remindersOffText, reply)
	assert.False(t, repo.users["1"].Enabled)

	reply, _ = r.Handle(context.Background(), "1", "!bed ON")
	assert.Equal(t, remindersOnText, reply)
	assert.True(t, repo.users["1"].Enabled)
}

func TestRouter_InfoDefaults(t *testing.T) {
	r := newTestRouter(t, newMemRepo(), staticPresence{})

	reply, ok := r.Handle(context.Background(), "1", "!bed info")
	require.True(t, ok)
	assert.Equal(t, "**on**: true\n**time zone**: UTC\n**bedtime**: none\n**online**: false\n**status since**: none\n**last reminder**: none", reply)
}

func TestRouter_InfoConfigured(t *testing.T) {
	repo := newMemRepo()
	b, _ := domain.NewBedtime(23, 0)
	repo.users["1"] = &domain.User{ID: "1", Enabled: true, TZ: "Europe/Moscow", Bedtime: &b}
	since := time.Date(2025, time.May, 5, 19, 45, 0, 0, time.UTC)
	last := time.Date(2025, time.May, 5, 20, 0, 5, 0, time.UTC)
	r := newTestRouter(t, repo, staticPresence{online: true, since: since, last: last})

	reply, _ := r.Handle(context.Background(), "1", "!bed info")
	assert.Equal(t, "**on**: true\n**time zone**: Europe/Moscow\n**bedtime**: 11:00 PM\n**online**: true\n"+
		"**status since**: 22:45:00\n**last reminder**: 23:00:05 (reminding until you go offline)", reply)
}

func TestRouter_StorageErrors(t *testing.T) {
	repo := newMemRepo()
	repo.err = errors.New("database is locked")
	r := newTestRouter(t, repo, staticPresence{})

	for msg, want := range map[string]string{
		"!bed bedtime 22:00":    storageErrorText,
		"!bed tz Europe/Moscow": storageErrorText,
		"!bed off":              storageErrorText,
		"!bed info":             readErrorText,
	} {
		reply, ok := r.Handle(context.Background(), "1", msg)
		require.True(t, ok, msg)
		assert.Equal(t, want, reply, msg)
	}
}
