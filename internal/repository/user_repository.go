package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/meeting-service/internal/domain"
)

// UserConflict reports which unique fields are already taken.
type UserConflict struct {
	Email      bool
	Username   bool
	EmployeeID bool
}

// Any reports whether any field conflicts.
func (c UserConflict) Any() bool {
	return c.Email || c.Username || c.EmployeeID
}

// UserRepository defines persistence access for managers and staff.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByLogin(ctx context.Context, identifier string) (*domain.User, error)
	FindActiveByName(ctx context.Context, name string) (*domain.User, error)
	FindConflicts(ctx context.Context, email, username, employeeID, excludeID string) (UserConflict, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.User, error)
	ListStaffByManager(ctx context.Context, managerID string) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, username, email, password_hash, full_name, role, department, job_title,
        employee_id, avatar_url, is_active, last_login, manager_id, timezone, refresh_token,
        created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (username, email, password_hash, full_name, role, department, job_title,
            employee_id, avatar_url, is_active, manager_id, timezone)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Role,
		user.Department,
		user.JobTitle,
		user.EmployeeID,
		user.AvatarURL,
		user.IsActive,
		user.ManagerID,
		user.Timezone,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET username=$1, email=$2, password_hash=$3, full_name=$4, department=$5,
            job_title=$6, avatar_url=$7, is_active=$8, last_login=$9, manager_id=$10, timezone=$11,
            refresh_token=$12, updated_at=NOW()
        WHERE id=$13
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Department,
		user.JobTitle,
		user.AvatarURL,
		user.IsActive,
		user.LastLogin,
		user.ManagerID,
		user.Timezone,
		user.RefreshToken,
		user.ID,
	).Scan(&user.UpdatedAt)
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetByLogin matches identifier against email or username.
func (r *userRepository) GetByLogin(ctx context.Context, identifier string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1 OR username=$1 LIMIT 1`
	return scanUser(r.pool.QueryRow(ctx, query, identifier))
}

// FindActiveByName matches name exactly against full names, then usernames.
func (r *userRepository) FindActiveByName(ctx context.Context, name string) (*domain.User, error) {
	query := `SELECT ` + userColumns + `
        FROM users
        WHERE is_active AND (full_name=$1 OR username=$1)
        ORDER BY (full_name=$1) DESC, created_at ASC
        LIMIT 1`
	return scanUser(r.pool.QueryRow(ctx, query, name))
}

func (r *userRepository) FindConflicts(ctx context.Context, email, username, employeeID, excludeID string) (UserConflict, error) {
	const query = `
        SELECT
            COALESCE(BOOL_OR(email=$1), FALSE),
            COALESCE(BOOL_OR(username=$2), FALSE),
            COALESCE(BOOL_OR(employee_id=$3), FALSE)
        FROM users
        WHERE (email=$1 OR username=$2 OR employee_id=$3)
          AND ($4 = '' OR id::text <> $4)`

	var c UserConflict
	err := r.pool.QueryRow(ctx, query, email, username, employeeID, excludeID).
		Scan(&c.Email, &c.Username, &c.EmployeeID)
	return c, err
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id::text = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

// ListStaffByManager returns active staff reporting to managerID, by name.
func (r *userRepository) ListStaffByManager(ctx context.Context, managerID string) ([]domain.User, error) {
	query := `SELECT ` + userColumns + `
        FROM users
        WHERE manager_id=$1 AND role='staff' AND is_active
        ORDER BY full_name ASC`
	rows, err := r.pool.Query(ctx, query, managerID)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]domain.User, error) {
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Role,
		&user.Department,
		&user.JobTitle,
		&user.EmployeeID,
		&user.AvatarURL,
		&user.IsActive,
		&user.LastLogin,
		&user.ManagerID,
		&user.Timezone,
		&user.RefreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
