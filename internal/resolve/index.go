// Package resolve joins records to their sibling collections by id and fills
// in display fields. Lookups go through an Index built once per load, so a
// join over n records against m references costs O(n+m).
package resolve

import (
	"log/slog"

	"github.com/gameportal/portal/internal/domain"
)

// Index maps game ids to titles and agent ids to names.
type Index struct {
	games  map[string]string
	agents map[string]string
	logger *slog.Logger
}

// NewIndex builds an index over the given reference lists. Duplicate ids
// keep the first entry, matching a linear find over the list.
func NewIndex(games []domain.Game, agents []domain.User, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	idx := &Index{
		games:  make(map[string]string, len(games)),
		agents: make(map[string]string, len(agents)),
		logger: logger,
	}
	for _, g := range games {
		if _, dup := idx.games[g.ID]; !dup {
			idx.games[g.ID] = g.Title
		}
	}
	for _, a := range agents {
		if _, dup := idx.agents[a.ID]; !dup {
			idx.agents[a.ID] = a.Name
		}
	}
	return idx
}

// GameTitle returns the title of the game with the given id.
func (i *Index) GameTitle(id string) (string, bool) {
	title, ok := i.games[id]
	if !ok {
		i.miss("games", id)
	}
	return title, ok
}

// AgentName returns the name of the agent with the given id.
func (i *Index) AgentName(id string) (string, bool) {
	name, ok := i.agents[id]
	if !ok {
		i.miss("users", id)
	}
	return name, ok
}

// GameTitleOr returns the game title or fallback when the id does not resolve.
func (i *Index) GameTitleOr(id, fallback string) string {
	if title, ok := i.GameTitle(id); ok {
		return title
	}
	return fallback
}

// AgentNameOr returns the agent name or fallback when the id does not resolve.
func (i *Index) AgentNameOr(id, fallback string) string {
	if name, ok := i.AgentName(id); ok {
		return name
	}
	return fallback
}

// Games and Agents report the number of indexed references.
func (i *Index) Games() int  { return len(i.games) }
func (i *Index) Agents() int { return len(i.agents) }

func (i *Index) miss(collection, id string) {
	i.logger.Debug("reference lookup miss", "collection", collection, "id", id)
}
