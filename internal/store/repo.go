package store

import (
	"context"
	"errors"

	"github.com/ykvlv/bedtime-bot/internal/domain"
)

// ErrNotFound is returned when a user has no stored settings.
var ErrNotFound = errors.New("user not found")

// Repo defines storage operations for per-user reminder settings.
type Repo interface {
	UpsertUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetUsers(ctx context.Context, userIDs []string) (map[string]*domain.User, error)
	SetBedtime(ctx context.Context, userID string, b domain.Bedtime) error
	SetTimeZone(ctx context.Context, userID, tz string) error
	SetEnabled(ctx context.Context, userID string, enabled bool) error
	Close() error
}
