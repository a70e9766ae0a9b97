// Package store is the record store adapter: generic list/create/update over
// named collections, backed by Postgres in production and by memory in tests
// and local runs.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Record is one row of a collection, keyed by column name.
type Record map[string]any

// ID returns the record's id column as a string.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Collection names a table in the record store.
type Collection string

const (
	Games              Collection = "games"
	Users              Collection = "users"
	GameCredentials    Collection = "game_credentials"
	AgentGames         Collection = "agent_games"
	Notifications      Collection = "notifications"
	NotificationReads  Collection = "notification_reads"
	NotificationTypes  Collection = "notification_types"
	AgentPerformance   Collection = "agent_performance"
	GameAnalytics      Collection = "game_analytics"
	CommissionSettings Collection = "commission_settings"
	GameSettings       Collection = "game_settings"
	EventOutbox        Collection = "event_outbox"
)

var knownCollections = map[Collection]bool{
	Games: true, Users: true, GameCredentials: true, AgentGames: true,
	Notifications: true, NotificationReads: true, NotificationTypes: true,
	AgentPerformance: true, GameAnalytics: true, CommissionSettings: true,
	GameSettings: true, EventOutbox: true,
}

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("duplicate record id")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrInvalidField      = errors.New("invalid field name")
)

// Store is the contract every backend satisfies.
type Store interface {
	// List returns the records matching q. No match is an empty slice, not an error.
	List(ctx context.Context, c Collection, q Query) ([]Record, error)

	// Create inserts rec. The caller supplies a unique "id".
	Create(ctx context.Context, c Collection, rec Record) (Record, error)

	// Update merges fields into the record with the given id and returns it.
	Update(ctx context.Context, c Collection, id string, fields Record) (Record, error)
}

var identRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func checkCollection(c Collection) error {
	if !knownCollections[c] {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}
	return nil
}

func checkField(name string) error {
	if !identRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidField, name)
	}
	return nil
}
