package store

import (
	"testing"
	"time"

	"github.com/gameportal/portal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Notification(t *testing.T) {
	created := time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC)

	var n domain.Notification
	err := Decode(Record{
		"id":           "n1",
		"recipient_id": "all_agents",
		"title":        "Maintenance",
		"priority":     "urgent",
		"read_status":  true,
		"created_at":   created,
		"expires_at":   "2024-01-21T00:00:00Z",
		"extra_column": "ignored",
	}, &n)
	require.NoError(t, err)

	assert.Equal(t, "n1", n.ID)
	assert.Equal(t, domain.PriorityUrgent, n.Priority)
	assert.Equal(t, domain.Read, n.ReadStatus)
	assert.Equal(t, created, n.CreatedAt)
	require.NotNil(t, n.ExpiresAt)
	assert.Equal(t, 2024, n.ExpiresAt.Year())
}

func TestDecode_ReadStatusVariants(t *testing.T) {
	for _, raw := range []any{0, int32(0), float64(0), "0", false} {
		var n domain.Notification
		require.NoError(t, Decode(Record{"id": "n", "read_status": raw}, &n))
		assert.Equal(t, domain.Unread, n.ReadStatus, "%T", raw)
	}
}

func TestDecode_NullableGameID(t *testing.T) {
	rules, err := DecodeAll[domain.CommissionRule]([]Record{
		{"id": "c1", "agent_id": "a1", "game_id": nil, "commission_rate": 5, "commission_type": "percentage"},
		{"id": "c2", "agent_id": "a1", "game_id": "g1", "commission_rate": 10.5, "commission_type": "percentage"},
	})
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Nil(t, rules[0].GameID)
	assert.Equal(t, 5.0, rules[0].CommissionRate)
	require.NotNil(t, rules[1].GameID)
	assert.Equal(t, "g1", *rules[1].GameID)
	assert.Equal(t, 10.5, rules[1].CommissionRate)
}
