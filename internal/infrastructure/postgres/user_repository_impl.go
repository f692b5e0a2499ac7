package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/user-management-api/internal/domain/entity"
	"github.com/oksasatya/user-management-api/internal/domain/repository"
)

const uniqueViolation = "23505"

const userColumns = `id, email, full_name, password_hash, department, job_title, active, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash,
		&u.Department, &u.JobTitle, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, full_name, password_hash, department, job_title, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, u.Email, u.FullName, u.PasswordHash, u.Department, u.JobTitle, u.Active)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email)
	return scanUser(row)
}

// List applies the filter precedence documented on repository.ListFilter:
// a department constraint is queried directly and an active constraint is
// then applied over that result; with no department the active constraint
// becomes the query itself.
func (r *UserRepository) List(ctx context.Context, filter repository.ListFilter) ([]*entity.User, error) {
	var (
		rows pgx.Rows
		err  error
	)
	switch {
	case filter.Department != nil:
		rows, err = r.pool.Query(ctx, `
			SELECT `+userColumns+`
			FROM users
			WHERE department = $1
			ORDER BY id
		`, *filter.Department)
	case filter.Active != nil:
		rows, err = r.pool.Query(ctx, `
			SELECT `+userColumns+`
			FROM users
			WHERE active = $1
			ORDER BY id
		`, *filter.Active)
	default:
		rows, err = r.pool.Query(ctx, `
			SELECT `+userColumns+`
			FROM users
			ORDER BY id
		`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*entity.User, 0)
	for rows.Next() {
		u := &entity.User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash,
			&u.Department, &u.JobTitle, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if filter.Department != nil && filter.Active != nil {
		refined := users[:0]
		for _, u := range users {
			if u.Active == *filter.Active {
				refined = append(refined, u)
			}
		}
		users = refined
	}
	return users, nil
}

// patchSQL builds a single UPDATE statement touching only the non-nil
// patch fields. updated_at is always stamped and the full row is read
// back in the same statement, so two concurrent patches of different
// fields cannot overwrite each other.
func patchSQL(id int64, patch repository.UserPatch) (string, []any) {
	var (
		set  []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.FullName != nil {
		add("full_name", *patch.FullName)
	}
	if patch.Department != nil {
		add("department", *patch.Department)
	}
	if patch.JobTitle != nil {
		add("job_title", *patch.JobTitle)
	}
	if patch.Active != nil {
		add("active", *patch.Active)
	}
	set = append(set, "updated_at = now()")
	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d RETURNING %s",
		strings.Join(set, ", "), len(args), userColumns)
	return query, args
}

func (r *UserRepository) Update(ctx context.Context, id int64, patch repository.UserPatch) (*entity.User, error) {
	query, args := patchSQL(id, patch)
	return scanUser(r.pool.QueryRow(ctx, query, args...))
}

// SoftDelete is idempotent: deactivating an already inactive user still
// matches the row, re-stamps updated_at and reports true.
func (r *UserRepository) SoftDelete(ctx context.Context, id int64) (bool, error) {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET active = FALSE, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
