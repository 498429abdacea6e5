package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/ykvlv/bedtime-bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct {
	db        *sql.DB
	defaultTZ string
}

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies PRAGMAs, runs migrations and returns a repository.
// defaultTZ is assigned to users created implicitly by the Set* methods.
func OpenSQLite(ctx context.Context, path, defaultTZ string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite is a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db, defaultTZ: defaultTZ}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// UpsertUser inserts or replaces a user's settings.
func (r *SQLiteRepo) UpsertUser(ctx context.Context, u *domain.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	if u.ID == "" {
		return errors.New("empty user id")
	}

	now := time.Now().UTC().Unix()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, created_at, updated_at, enabled, tz, bedtime_m)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			updated_at = excluded.updated_at,
			enabled    = excluded.enabled,
			tz         = excluded.tz,
			bedtime_m  = excluded.bedtime_m`,
		u.ID, now, now, boolToInt(u.Enabled), u.TZ, toNullBedtime(u.Bedtime),
	)
	return err
}

// GetUser returns a user's settings or ErrNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, enabled, tz, bedtime_m
		FROM users
		WHERE user_id = ?`,
		userID,
	)

	var (
		id         string
		enabledInt int
		tz         string
		bedNS      sql.NullInt64
	)
	if err := row.Scan(&id, &enabledInt, &tz, &bedNS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &domain.User{
		ID:      id,
		Enabled: enabledInt != 0,
		TZ:      tz,
		Bedtime: fromNullBedtime(bedNS),
	}, nil
}

// maxBatch keeps IN lists well below SQLite's bound-parameter limit.
const maxBatch = 500

// GetUsers returns the stored settings of every listed user that has any,
// keyed by user id. Users without settings are absent from the map.
func (r *SQLiteRepo) GetUsers(ctx context.Context, userIDs []string) (map[string]*domain.User, error) {
	res := make(map[string]*domain.User, len(userIDs))
	for start := 0; start < len(userIDs); start += maxBatch {
		end := min(start+maxBatch, len(userIDs))
		if err := r.getUsersBatch(ctx, userIDs[start:end], res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r *SQLiteRepo) getUsersBatch(ctx context.Context, ids []string, res map[string]*domain.User) error {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, enabled, tz, bedtime_m
		FROM users
		WHERE user_id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id         string
			enabledInt int
			tz         string
			bedNS      sql.NullInt64
		)
		if err := rows.Scan(&id, &enabledInt, &tz, &bedNS); err != nil {
			return err
		}
		res[id] = &domain.User{
			ID:      id,
			Enabled: enabledInt != 0,
			TZ:      tz,
			Bedtime: fromNullBedtime(bedNS),
		}
	}
	return rows.Err()
}

// SetBedtime stores the user's bedtime, creating the user if needed.
func (r *SQLiteRepo) SetBedtime(ctx context.Context, userID string, b domain.Bedtime) error {
	return r.setColumn(ctx, userID, "bedtime_m", int(b))
}

// SetTimeZone stores the user's time zone, creating the user if needed.
func (r *SQLiteRepo) SetTimeZone(ctx context.Context, userID, tz string) error {
	return r.setColumn(ctx, userID, "tz", tz)
}

// SetEnabled toggles reminders for the user, creating the user if needed.
func (r *SQLiteRepo) SetEnabled(ctx context.Context, userID string, enabled bool) error {
	return r.setColumn(ctx, userID, "enabled", boolToInt(enabled))
}

// setColumn upserts a single settings column. column is never user input.
func (r *SQLiteRepo) setColumn(ctx context.Context, userID, column string, value any) error {
	if userID == "" {
		return errors.New("empty user id")
	}
	now := time.Now().UTC().Unix()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (user_id, created_at, updated_at, enabled, tz)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(user_id) DO NOTHING`,
		userID, now, now, r.defaultTZ,
	); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET `+column+` = ?, updated_at = ? WHERE user_id = ?`,
		value, now, userID,
	); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
