package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"convo-cafe/internal/domain"
)

// ProfileRepository define el contrato de persistencia para perfiles comunitarios.
type ProfileRepository interface {
	Upsert(ctx context.Context, profile domain.Profile) error
	GetByUserAndCommunity(ctx context.Context, userID, communityID string) (domain.Profile, error)
	ListByCommunity(ctx context.Context, communityID string) ([]domain.Profile, error)
	AppendResonance(ctx context.Context, userID, communityID string, entry domain.ResonanceEntry) error
}

// PgProfileRepository implementa ProfileRepository usando pgxpool.
// La columna resonance es un arreglo JSONB que pasa por parseResonance al leer,
// en lugar de confiar a ciegas en el contenido almacenado.
type PgProfileRepository struct {
	pool *pgxpool.Pool
}

func NewPgProfileRepository(pool *pgxpool.Pool) *PgProfileRepository {
	return &PgProfileRepository{pool: pool}
}

func (r *PgProfileRepository) Upsert(ctx context.Context, profile domain.Profile) error {
	const query = `
		INSERT INTO profiles (id, user_id, community_id, bio, resonance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, '[]'::jsonb), $6, $7)
		ON CONFLICT (user_id, community_id)
		DO UPDATE SET bio = EXCLUDED.bio, updated_at = EXCLUDED.updated_at
	`
	var resonance []byte
	if len(profile.Resonance) > 0 {
		data, err := json.Marshal(profile.Resonance)
		if err != nil {
			return fmt.Errorf("marshal resonance: %w", err)
		}
		resonance = data
	}
	_, err := r.pool.Exec(ctx, query,
		profile.ID,
		profile.UserID,
		profile.CommunityID,
		profile.Bio,
		resonance,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	return err
}

func (r *PgProfileRepository) GetByUserAndCommunity(ctx context.Context, userID, communityID string) (domain.Profile, error) {
	const query = profileSelect + `
		WHERE p.user_id = $1 AND p.community_id = $2
	`
	row := r.pool.QueryRow(ctx, query, userID, communityID)
	profile, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, err
	}
	return profile, err
}

func (r *PgProfileRepository) ListByCommunity(ctx context.Context, communityID string) ([]domain.Profile, error) {
	const query = profileSelect + `
		WHERE p.community_id = $1
		ORDER BY p.created_at
	`
	rows, err := r.pool.Query(ctx, query, communityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *PgProfileRepository) AppendResonance(ctx context.Context, userID, communityID string, entry domain.ResonanceEntry) error {
	payload, err := json.Marshal([]domain.ResonanceEntry{entry})
	if err != nil {
		return fmt.Errorf("marshal resonance entry: %w", err)
	}
	const query = `
		UPDATE profiles
		SET resonance = COALESCE(resonance, '[]'::jsonb) || $3::jsonb,
		    updated_at = now()
		WHERE user_id = $1 AND community_id = $2
	`
	tag, err := r.pool.Exec(ctx, query, userID, communityID, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const profileSelect = `
		SELECT p.id, p.user_id, p.community_id, p.bio, p.resonance, p.created_at, p.updated_at,
		       u.id, u.email, u.nickname, u.created_at
		FROM profiles p
		JOIN users u ON u.id = p.user_id
`

func scanProfile(row pgx.Row) (domain.Profile, error) {
	var p domain.Profile
	var raw []byte
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.CommunityID,
		&p.Bio,
		&raw,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.User.ID,
		&p.User.Email,
		&p.User.Nickname,
		&p.User.CreatedAt,
	); err != nil {
		return domain.Profile{}, err
	}
	resonance, err := parseResonance(raw)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("profile %s: %w", p.ID, err)
	}
	p.Resonance = resonance
	return p, nil
}
