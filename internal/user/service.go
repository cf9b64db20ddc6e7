package user

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/goal-tracker/internal"
	userDatamodel "github.com/frahmantamala/goal-tracker/internal/core/datamodel/user"
	"github.com/frahmantamala/goal-tracker/internal/core/role"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	List(ctx context.Context) ([]*userDatamodel.User, error)
	ListByRoles(ctx context.Context, roles []string) ([]*userDatamodel.User, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	Update(ctx context.Context, u *userDatamodel.User) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo       RepositoryAPI
	logger     *slog.Logger
	bcryptCost int
}

func NewService(repo RepositoryAPI, logger *slog.Logger, bcryptCost int) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrUserNotFound
		}
		s.logger.Error("failed to get user", "error", err, "user_id", id)
		return nil, internal.NewInternalError("failed to get user", err)
	}
	return FromDataModel(row), nil
}

// ListAll returns every active user.
func (s *Service) ListAll(ctx context.Context) ([]*User, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, internal.NewInternalError("failed to list users", err)
	}
	return FromDataModels(rows), nil
}

// ListViewable returns users whose role is at or below the actor's level.
func (s *Service) ListViewable(ctx context.Context, actor *User) ([]*User, error) {
	var names []string
	for _, r := range role.ViewableRoles(actor.Role) {
		names = append(names, string(r))
	}
	rows, err := s.repo.ListByRoles(ctx, names)
	if err != nil {
		s.logger.Error("failed to list viewable users", "error", err, "actor_id", actor.ID)
		return nil, internal.NewInternalError("failed to list users", err)
	}
	return FromDataModels(rows), nil
}

func (s *Service) Create(ctx context.Context, actor *User, dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	newRole := role.Role(dto.Role)
	if !role.CanModify(actor.Role, newRole) {
		s.logger.Warn("user creation denied", "actor_id", actor.ID, "actor_role", actor.Role, "role", newRole)
		return nil, internal.ErrInsufficientRole
	}

	if existing, err := s.repo.GetByEmail(ctx, dto.Email); err == nil && existing != nil {
		return nil, internal.NewConflictError("email already registered", internal.ErrCodeEmailTaken)
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, internal.NewInternalError("failed to check email", err)
	}

	if err := s.checkManager(ctx, dto.ManagerID); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &User{
		Email:        dto.Email,
		Name:         dto.Name,
		PasswordHash: string(hash),
		Role:         newRole,
		ManagerID:    dto.ManagerID,
		Department:   dto.Department,
		IsActive:     true,
	}
	row := ToDataModel(u)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create user", "error", err, "email", dto.Email)
		return nil, internal.NewInternalError("failed to create user", err)
	}

	s.logger.Info("user created", "user_id", row.ID, "role", newRole, "created_by", actor.ID)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, actor *User, id int64, dto UpdateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	target, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(target) {
		return nil, internal.ErrInsufficientRole
	}

	if dto.Name != nil {
		target.Name = *dto.Name
	}
	if dto.Email != nil {
		target.Email = *dto.Email
	}
	if dto.Role != nil {
		newRole := role.Role(*dto.Role)
		if !role.CanModify(actor.Role, newRole) {
			return nil, internal.ErrInsufficientRole
		}
		target.Role = newRole
	}
	if dto.ManagerID != nil {
		if *dto.ManagerID == target.ID {
			return nil, internal.NewValidationFieldError("manager_id", "a user cannot manage themselves", internal.ErrCodeValidationFailed)
		}
		if err := s.checkManager(ctx, dto.ManagerID); err != nil {
			return nil, err
		}
		target.ManagerID = dto.ManagerID
	}
	if dto.Department != nil {
		target.Department = *dto.Department
	}
	if dto.IsActive != nil {
		target.IsActive = *dto.IsActive
	}

	if err := s.repo.Update(ctx, ToDataModel(target)); err != nil {
		s.logger.Error("failed to update user", "error", err, "user_id", id)
		return nil, internal.NewInternalError("failed to update user", err)
	}
	return target, nil
}

// Delete removes a user; owned goals go with it through the foreign key.
func (s *Service) Delete(ctx context.Context, actor *User, id int64) error {
	target, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanModify(target) {
		return internal.ErrInsufficientRole
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete user", "error", err, "user_id", id)
		return internal.NewInternalError("failed to delete user", err)
	}
	s.logger.Info("user deleted", "user_id", id, "deleted_by", actor.ID)
	return nil
}

func (s *Service) checkManager(ctx context.Context, managerID *int64) error {
	if managerID == nil {
		return nil
	}
	if _, err := s.repo.GetByID(ctx, *managerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return internal.NewValidationFieldError("manager_id", "manager does not exist", internal.ErrCodeUserNotFound)
		}
		return internal.NewInternalError("failed to look up manager", err)
	}
	return nil
}
