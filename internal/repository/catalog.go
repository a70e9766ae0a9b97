package repository

import (
	"context"
	"fmt"

	"github.com/gameportal/portal/internal/domain"
	"github.com/gameportal/portal/internal/store"
)

type gameRepo struct{ s store.Store }

// NewGameRepository returns a store-backed GameRepository.
func NewGameRepository(s store.Store) GameRepository {
	return &gameRepo{s: s}
}

func (r *gameRepo) List(ctx context.Context) ([]domain.Game, error) {
	recs, err := r.s.List(ctx, store.Games, store.Query{OrderBy: []store.Order{store.Asc("created_at")}})
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return store.DecodeAll[domain.Game](recs)
}

func (r *gameRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.Game, error) {
	recs, err := r.s.List(ctx, store.Games, store.Query{
		Where:   store.In("id", ids),
		OrderBy: []store.Order{store.Asc("created_at")},
	})
	if err != nil {
		return nil, fmt.Errorf("list games by id: %w", err)
	}
	return store.DecodeAll[domain.Game](recs)
}

func (r *gameRepo) Create(ctx context.Context, g domain.Game) (domain.Game, error) {
	rec, err := r.s.Create(ctx, store.Games, store.Record{
		"id":          g.ID,
		"title":       g.Title,
		"description": g.Description,
		"image_url":   g.ImageURL,
		"player_link": g.PlayerLink,
		"agent_link":  g.AgentLink,
		"created_at":  nowIfZero(g.CreatedAt),
	})
	if err != nil {
		return domain.Game{}, fmt.Errorf("create game: %w", err)
	}
	return decodeOne[domain.Game](rec)
}

type userRepo struct{ s store.Store }

// NewUserRepository returns a store-backed UserRepository.
func NewUserRepository(s store.Store) UserRepository {
	return &userRepo{s: s}
}

func (r *userRepo) ListAgents(ctx context.Context) ([]domain.User, error) {
	recs, err := r.s.List(ctx, store.Users, store.Query{
		Where:   store.Eq("role", string(domain.RoleAgent)),
		OrderBy: []store.Order{store.Asc("created_at")},
	})
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return store.DecodeAll[domain.User](recs)
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email", email)
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "id", id)
}

func (r *userRepo) findOne(ctx context.Context, field, value string) (*domain.User, error) {
	recs, err := r.s.List(ctx, store.Users, store.Query{Where: store.Eq(field, value), Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("find user by %s: %w", field, err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	u, err := decodeUser(recs[0])
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	rec, err := r.s.Create(ctx, store.Users, store.Record{
		"id":            u.ID,
		"name":          u.Name,
		"email":         u.Email,
		"role":          string(u.Role),
		"referral_code": nullIfEmpty(u.ReferralCode),
		"status":        u.Status,
		"password_hash": u.PasswordHash,
		"created_at":    nowIfZero(u.CreatedAt),
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return decodeUser(rec)
}

// decodeUser also copies password_hash, which the json tag hides from decoding.
func decodeUser(rec store.Record) (domain.User, error) {
	u, err := decodeOne[domain.User](rec)
	if err != nil {
		return domain.User{}, err
	}
	u.PasswordHash, _ = rec["password_hash"].(string)
	return u, nil
}

type credentialRepo struct{ s store.Store }

// NewCredentialRepository returns a store-backed CredentialRepository.
func NewCredentialRepository(s store.Store) CredentialRepository {
	return &credentialRepo{s: s}
}

func (r *credentialRepo) List(ctx context.Context) ([]domain.Credential, error) {
	return r.list(ctx, store.Query{OrderBy: []store.Order{store.Asc("created_at")}})
}

func (r *credentialRepo) ListAssignedTo(ctx context.Context, agentID string) ([]domain.Credential, error) {
	return r.list(ctx, store.Query{
		Where:   store.Eq("assigned_to", agentID),
		OrderBy: []store.Order{store.Asc("created_at")},
	})
}

func (r *credentialRepo) list(ctx context.Context, q store.Query) ([]domain.Credential, error) {
	recs, err := r.s.List(ctx, store.GameCredentials, q)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	return store.DecodeAll[domain.Credential](recs)
}

func (r *credentialRepo) Create(ctx context.Context, c domain.Credential) (domain.Credential, error) {
	rec, err := r.s.Create(ctx, store.GameCredentials, store.Record{
		"id":          c.ID,
		"game_id":     c.GameID,
		"username":    c.Username,
		"password":    c.Password,
		"assigned_to": nullIfEmpty(c.AssignedTo),
		"created_at":  nowIfZero(c.CreatedAt),
	})
	if err != nil {
		return domain.Credential{}, fmt.Errorf("create credential: %w", err)
	}
	return decodeOne[domain.Credential](rec)
}

type agentGameRepo struct{ s store.Store }

// NewAgentGameRepository returns a store-backed AgentGameRepository.
func NewAgentGameRepository(s store.Store) AgentGameRepository {
	return &agentGameRepo{s: s}
}

func (r *agentGameRepo) ListByAgent(ctx context.Context, agentID string) ([]domain.AgentGame, error) {
	recs, err := r.s.List(ctx, store.AgentGames, store.Query{
		Where:   store.Eq("agent_id", agentID),
		OrderBy: []store.Order{store.Asc("created_at")},
	})
	if err != nil {
		return nil, fmt.Errorf("list agent games: %w", err)
	}
	return store.DecodeAll[domain.AgentGame](recs)
}

func (r *agentGameRepo) Create(ctx context.Context, ag domain.AgentGame) (domain.AgentGame, error) {
	rec, err := r.s.Create(ctx, store.AgentGames, store.Record{
		"id":         ag.ID,
		"agent_id":   ag.AgentID,
		"game_id":    ag.GameID,
		"created_at": nowIfZero(ag.CreatedAt),
	})
	if err != nil {
		return domain.AgentGame{}, fmt.Errorf("create agent game: %w", err)
	}
	return decodeOne[domain.AgentGame](rec)
}

type gameSettingRepo struct{ s store.Store }

// NewGameSettingRepository returns a store-backed GameSettingRepository.
func NewGameSettingRepository(s store.Store) GameSettingRepository {
	return &gameSettingRepo{s: s}
}

func (r *gameSettingRepo) List(ctx context.Context) ([]domain.GameSetting, error) {
	recs, err := r.s.List(ctx, store.GameSettings, store.Query{OrderBy: []store.Order{store.Asc("game_id"), store.Asc("setting_key")}})
	if err != nil {
		return nil, fmt.Errorf("list game settings: %w", err)
	}
	return store.DecodeAll[domain.GameSetting](recs)
}

func (r *gameSettingRepo) Create(ctx context.Context, gs domain.GameSetting) (domain.GameSetting, error) {
	rec, err := r.s.Create(ctx, store.GameSettings, store.Record{
		"id":            gs.ID,
		"game_id":       gs.GameID,
		"setting_key":   gs.SettingKey,
		"setting_value": gs.SettingValue,
		"setting_type":  gs.SettingType,
		"description":   gs.Description,
	})
	if err != nil {
		return domain.GameSetting{}, fmt.Errorf("create game setting: %w", err)
	}
	return decodeOne[domain.GameSetting](rec)
}
