package repository

import (
	"context"
	"fmt"

	"github.com/gameportal/portal/internal/domain"
	"github.com/gameportal/portal/internal/store"
)

type gameAnalyticsRow struct {
	ID           string  `json:"id"`
	GameID       string  `json:"game_id"`
	AgentID      string  `json:"agent_id"`
	MetricType   string  `json:"metric_type"`
	MetricValue  float64 `json:"metric_value"`
	DateRecorded string  `json:"date_recorded"`
}

type agentPerformanceRow struct {
	ID           string  `json:"id"`
	AgentID      string  `json:"agent_id"`
	MetricType   string  `json:"metric_type"`
	MetricValue  float64 `json:"metric_value"`
	DateRecorded string  `json:"date_recorded"`
}

type metricRepo struct{ s store.Store }

// NewMetricRepository returns a store-backed MetricRepository.
func NewMetricRepository(s store.Store) MetricRepository {
	return &metricRepo{s: s}
}

func (r *metricRepo) GameAnalytics(ctx context.Context, date, agentID string) ([]domain.MetricRecord, error) {
	where := store.Eq("date_recorded", date)
	if agentID != "" {
		where = store.And(where, store.Eq("agent_id", agentID))
	}
	recs, err := r.s.List(ctx, store.GameAnalytics, store.Query{
		Where:   where,
		OrderBy: []store.Order{store.Asc("id")},
	})
	if err != nil {
		return nil, fmt.Errorf("list game analytics: %w", err)
	}
	rows, err := store.DecodeAll[gameAnalyticsRow](recs)
	if err != nil {
		return nil, err
	}

	out := make([]domain.MetricRecord, len(rows))
	for i, row := range rows {
		out[i] = domain.MetricRecord{
			ID:          row.ID,
			EntityID:    row.GameID,
			EntityKind:  domain.EntityGame,
			AgentID:     row.AgentID,
			MetricType:  row.MetricType,
			MetricValue: row.MetricValue,
			Date:        row.DateRecorded,
		}
	}
	return out, nil
}

func (r *metricRepo) AgentPerformance(ctx context.Context, agentID string) ([]domain.MetricRecord, error) {
	q := store.Query{OrderBy: []store.Order{store.Asc("date_recorded"), store.Asc("id")}}
	if agentID != "" {
		q.Where = store.Eq("agent_id", agentID)
	}
	recs, err := r.s.List(ctx, store.AgentPerformance, q)
	if err != nil {
		return nil, fmt.Errorf("list agent performance: %w", err)
	}
	rows, err := store.DecodeAll[agentPerformanceRow](recs)
	if err != nil {
		return nil, err
	}

	out := make([]domain.MetricRecord, len(rows))
	for i, row := range rows {
		out[i] = domain.MetricRecord{
			ID:          row.ID,
			EntityID:    row.AgentID,
			EntityKind:  domain.EntityAgent,
			MetricType:  row.MetricType,
			MetricValue: row.MetricValue,
			Date:        row.DateRecorded,
		}
	}
	return out, nil
}
