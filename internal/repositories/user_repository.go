package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"social-service/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Search(ctx context.Context, query string, excludeID int64, page models.Page) ([]models.PublicUser, int64, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, name, password, is_staff, is_superuser, last_login, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	var created models.User
	err := r.db.QueryRowxContext(ctx, `
INSERT INTO users (email, name, password, is_staff, is_superuser, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+userColumns,
		user.Email, user.Name, user.Password, user.IsStaff, user.IsSuperuser, user.CreatedAt, user.UpdatedAt,
	).StructScan(&created)
	if err != nil {
		return nil, wrapDBError(err)
	}
	return &created, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, id); err != nil {
		return nil, wrapDBError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE LOWER(email)=LOWER($1)`, email); err != nil {
		return nil, wrapDBError(err)
	}
	return &user, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email)=LOWER($1))`, email)
	return exists, wrapDBError(err)
}

// Search matches the exact email (case-insensitive) or a case-insensitive
// substring of the name, never returning excludeID.
func (r *userRepository) Search(ctx context.Context, query string, excludeID int64, page models.Page) ([]models.PublicUser, int64, error) {
	pattern := escapeLike(query)

	var total int64
	err := r.db.GetContext(ctx, &total, `
SELECT COUNT(*)
FROM users
WHERE id <> $1 AND (LOWER(email) = LOWER($2) OR name ILIKE '%' || $3 || '%' ESCAPE '\')
`, excludeID, query, pattern)
	if err != nil {
		return nil, 0, wrapDBError(err)
	}

	users := make([]models.PublicUser, 0, page.Limit())
	err = r.db.SelectContext(ctx, &users, `
SELECT id, name, email
FROM users
WHERE id <> $1 AND (LOWER(email) = LOWER($2) OR name ILIKE '%' || $3 || '%' ESCAPE '\')
ORDER BY id DESC
LIMIT $4 OFFSET $5
`, excludeID, query, pattern, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, wrapDBError(err)
	}
	return users, total, nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET last_login=$2, updated_at=$2 WHERE id=$1`, id, at)
	if err != nil {
		return wrapDBError(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
