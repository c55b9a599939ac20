package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/go-session-auth/internal/domain/entity"
	"github.com/oksasatya/go-session-auth/internal/domain/repository"
)

const userColumns = `id, email, hashed_password, session_id, reset_token, created_at, updated_at`

// poolIface is the subset of *pgxpool.Pool used by the repository.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type UserRepository struct {
	pool poolIface
}

func NewUserRepository(pool poolIface) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.SessionID, &u.ResetToken,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, email, hashedPassword string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, hashed_password)
		VALUES ($1, $2)
		RETURNING `+userColumns, email, hashedPassword)

	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, repository.ErrDuplicateEmail
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepository) GetBySessionID(ctx context.Context, sessionID string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE session_id = $1`, sessionID))
}

func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE reset_token = $1`, token))
}

func (r *UserRepository) exec(ctx context.Context, sql string, args ...any) error {
	res, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateSessionID(ctx context.Context, id int64, sessionID *string) error {
	return r.exec(ctx, `
		UPDATE users
		SET session_id = $1, updated_at = now()
		WHERE id = $2
	`, sessionID, id)
}

func (r *UserRepository) UpdateResetToken(ctx context.Context, id int64, token *string) error {
	return r.exec(ctx, `
		UPDATE users
		SET reset_token = $1, updated_at = now()
		WHERE id = $2
	`, token, id)
}

// ConsumeResetToken is a compare-and-clear: of two concurrent callers with the same
// token, the row lock lets exactly one match.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, token, hashedPassword string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET hashed_password = $1, reset_token = NULL, updated_at = now()
		WHERE reset_token = $2
		RETURNING `+userColumns, hashedPassword, token))
}

// ListAll returns every user ordered by id.
func (r *UserRepository) ListAll(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

var _ repository.UserLister = (*UserRepository)(nil)
var _ repository.UserRepository = (*UserRepository)(nil)
