package repository

import (
	"context"
	"fmt"

	"github.com/gameportal/portal/internal/domain"
	"github.com/gameportal/portal/internal/store"
)

type commissionRepo struct{ s store.Store }

// NewCommissionRepository returns a store-backed CommissionRepository.
func NewCommissionRepository(s store.Store) CommissionRepository {
	return &commissionRepo{s: s}
}

func (r *commissionRepo) List(ctx context.Context) ([]domain.CommissionRule, error) {
	return r.list(ctx, store.Query{OrderBy: []store.Order{store.Asc("id")}})
}

func (r *commissionRepo) ListByAgent(ctx context.Context, agentID string) ([]domain.CommissionRule, error) {
	return r.list(ctx, store.Query{
		Where:   store.Eq("agent_id", agentID),
		OrderBy: []store.Order{store.Asc("id")},
	})
}

func (r *commissionRepo) list(ctx context.Context, q store.Query) ([]domain.CommissionRule, error) {
	recs, err := r.s.List(ctx, store.CommissionSettings, q)
	if err != nil {
		return nil, fmt.Errorf("list commission settings: %w", err)
	}
	return store.DecodeAll[domain.CommissionRule](recs)
}

func (r *commissionRepo) Create(ctx context.Context, rule domain.CommissionRule) (domain.CommissionRule, error) {
	var gameID any
	if rule.GameID != nil {
		gameID = *rule.GameID
	}
	rec, err := r.s.Create(ctx, store.CommissionSettings, store.Record{
		"id":              rule.ID,
		"agent_id":        rule.AgentID,
		"game_id":         gameID,
		"commission_rate": rule.CommissionRate,
		"commission_type": string(rule.CommissionType),
	})
	if err != nil {
		return domain.CommissionRule{}, fmt.Errorf("create commission rule: %w", err)
	}
	return decodeOne[domain.CommissionRule](rec)
}
