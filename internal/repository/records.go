package repository

import (
	"time"

	"github.com/gameportal/portal/internal/store"
)

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nowIfZero(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func decodeOne[T any](rec store.Record) (T, error) {
	var out T
	err := store.Decode(rec, &out)
	return out, err
}
