package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/a-s-adam/streamlink/pkg/apperrors"
	"github.com/a-s-adam/streamlink/pkg/database"
	"github.com/a-s-adam/streamlink/pkg/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// GetOrCreate resolves a user by email, creating the row on first
	// sign-in. Profile fields are refreshed on subsequent calls.
	GetOrCreate(ctx context.Context, email, name, image string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// SetYouTubeRefreshToken stores the refresh token captured during the
	// OAuth callback.
	SetYouTubeRefreshToken(ctx context.Context, id uuid.UUID, token string) error
}

// userRepository implements UserRepository using PostgreSQL.
type userRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *database.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetOrCreate(ctx context.Context, email, name, image string) (*models.User, error) {
	query := `
		INSERT INTO users (email, name, image)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE
		SET name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
		    image = COALESCE(NULLIF(EXCLUDED.image, ''), users.image),
		    updated_at = now()
		RETURNING id, email, COALESCE(name, ''), COALESCE(image, ''), created_at, updated_at`

	var user models.User
	err := r.db.QueryRow(ctx, query, email, name, image).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Image,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create user: %w", err)
	}

	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, email, COALESCE(name, ''), COALESCE(image, ''),
		       COALESCE(youtube_refresh_token, ''), created_at, updated_at
		FROM users
		WHERE id = $1`

	var user models.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Image,
		&user.YouTubeRefreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *userRepository) SetYouTubeRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	query := `UPDATE users SET youtube_refresh_token = $1, updated_at = now() WHERE id = $2`

	result, err := r.db.Exec(ctx, query, token, id)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Ensure userRepository implements UserRepository at compile time.
var _ UserRepository = (*userRepository)(nil)
