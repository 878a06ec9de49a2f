package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"social-service/internal/models"
)

type TokenRepository interface {
	Replace(ctx context.Context, token *models.Token) error
	GetUserByKey(ctx context.Context, key string) (*models.User, error)
}

type tokenRepository struct {
	db *sqlx.DB
}

func NewTokenRepository(db *sqlx.DB) TokenRepository {
	return &tokenRepository{db: db}
}

// Replace drops whatever token the user holds and stores the new one.
func (r *tokenRepository) Replace(ctx context.Context, token *models.Token) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tokens WHERE user_id=$1`, token.UserID); err != nil {
			return wrapDBError(err)
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO tokens (key, user_id, created_at, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET key=EXCLUDED.key, created_at=EXCLUDED.created_at, updated_at=EXCLUDED.updated_at
`, token.Key, token.UserID, token.CreatedAt, token.UpdatedAt)
		return wrapDBError(err)
	})
}

func (r *tokenRepository) GetUserByKey(ctx context.Context, key string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `
SELECT u.id, u.email, u.name, u.password, u.is_staff, u.is_superuser, u.last_login, u.created_at, u.updated_at
FROM tokens t
JOIN users u ON u.id = t.user_id
WHERE t.key=$1
`, key)
	if err != nil {
		return nil, wrapDBError(err)
	}
	return &user, nil
}
