package store

import (
	"database/sql"

	"github.com/ykvlv/bedtime-bot/internal/domain"
)

func toNullBedtime(b *domain.Bedtime) sql.NullInt64 {
	if b == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*b), Valid: true}
}

func fromNullBedtime(ns sql.NullInt64) *domain.Bedtime {
	if !ns.Valid {
		return nil
	}
	b := domain.Bedtime(ns.Int64)
	return &b
}

// boolToInt converts a boolean to 1/0 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
