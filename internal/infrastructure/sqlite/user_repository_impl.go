package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"

	"github.com/oksasatya/go-session-auth/internal/domain/entity"
	"github.com/oksasatya/go-session-auth/internal/domain/repository"
)

const userColumns = `id, email, hashed_password, session_id, reset_token, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.SessionID, &u.ResetToken,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, email, hashedPassword string) (*entity.User, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (email, hashed_password)
		VALUES (?, ?)
	`, email, hashedPassword)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, repository.ErrDuplicateEmail
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) getBy(ctx context.Context, column string, value any) (*entity.User, error) {
	// column is always one of the fixed names below, never user input
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value))
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) GetBySessionID(ctx context.Context, sessionID string) (*entity.User, error) {
	return r.getBy(ctx, "session_id", sessionID)
}

func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*entity.User, error) {
	return r.getBy(ctx, "reset_token", token)
}

func (r *UserRepository) updateColumn(ctx context.Context, column string, id int64, value *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET `+column+` = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, value, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateSessionID(ctx context.Context, id int64, sessionID *string) error {
	return r.updateColumn(ctx, "session_id", id, sessionID)
}

func (r *UserRepository) UpdateResetToken(ctx context.Context, id int64, token *string) error {
	return r.updateColumn(ctx, "reset_token", id, token)
}

func (r *UserRepository) ConsumeResetToken(ctx context.Context, token, hashedPassword string) (*entity.User, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET hashed_password = ?, reset_token = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE reset_token = ?
		RETURNING id
	`, hashedPassword, token).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// ListAll returns every user ordered by id.
func (r *UserRepository) ListAll(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

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
