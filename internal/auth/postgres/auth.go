package auth

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/goal-tracker/internal/auth"
	"github.com/frahmantamala/goal-tracker/internal/core/role"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentials(ctx context.Context, email string) (*auth.Credentials, error) {
	var c auth.Credentials
	query := `SELECT id, email, password_hash, is_active FROM users WHERE email = ?`

	row := r.db.WithContext(ctx).Raw(query, email).Row()
	if err := row.Scan(&c.UserID, &c.Email, &c.PasswordHash, &c.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrPrincipalNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repository) GetPrincipal(ctx context.Context, userID int64) (*auth.User, error) {
	var (
		u          auth.User
		roleName   string
		managerID  sql.NullInt64
		department sql.NullString
	)
	query := `SELECT id, email, name, role, manager_id, department FROM users WHERE id = ? AND is_active = true`

	row := r.db.WithContext(ctx).Raw(query, userID).Row()
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &roleName, &managerID, &department); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrPrincipalNotFound
		}
		return nil, err
	}

	u.Role = role.Role(roleName)
	if managerID.Valid {
		id := managerID.Int64
		u.ManagerID = &id
	}
	u.Department = department.String
	return &u, nil
}
