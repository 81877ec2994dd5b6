package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/constants"
	"github.com/yukikurage/manufacturing-backoffice/internal/database"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"github.com/yukikurage/manufacturing-backoffice/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken       = errors.New("email already exists")
	ErrCannotDeleteSelf = errors.New("cannot delete your own account")
	ErrInvalidEmail     = errors.New("email is invalid")
)

// UserService provides business logic for user accounts.
type UserService struct {
	repos    *repository.Repositories
	sessions *SessionService
}

// NewUserService creates a new UserService.
func NewUserService(repos *repository.Repositories, sessions *SessionService) *UserService {
	return &UserService{repos: repos, sessions: sessions}
}

// CreateUserInput represents input for creating a user
type CreateUserInput struct {
	Name                     string
	Email                    string
	Password                 string
	RoleID                   *string
	DepartmentID             *string
	OrganizationID           *string
	IsActive                 *bool
	ReceiveStockNotification bool
}

// UpdateUserInput represents input for updating a user. Nil fields are left unchanged.
type UpdateUserInput struct {
	Name                     *string
	Email                    *string
	Password                 *string
	RoleID                   *string
	DepartmentID             *string
	OrganizationID           *string
	IsActive                 *bool
	ReceiveStockNotification *bool
}

// ListUsers returns users with their role.
func (s *UserService) ListUsers(ctx context.Context, input ListInput) ([]models.User, int64, error) {
	users, total, err := s.repos.Users.List(ctx, input.query("Role"))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// GetUser returns a user with role, department and organization.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repos.Users.FindByID(ctx, id, "Role", "Department", "Organization")
	if err != nil {
		return nil, lookupError(err, ErrUserNotFound, "user")
	}
	return user, nil
}

// CreateUser creates a new user.
func (s *UserService) CreateUser(ctx context.Context, actor audit.Actor, input CreateUserInput) (*models.User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if email != nil {
		if err := s.ensureEmailFree(ctx, *email, ""); err != nil {
			return nil, err
		}
	}

	if err := s.checkReferences(ctx, input.RoleID, input.DepartmentID, input.OrganizationID); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Name:                     name,
		Email:                    email,
		PasswordHash:             string(hash),
		RoleID:                   emptyToNil(input.RoleID),
		DepartmentID:             emptyToNil(input.DepartmentID),
		OrganizationID:           emptyToNil(input.OrganizationID),
		IsActive:                 input.IsActive == nil || *input.IsActive,
		ReceiveStockNotification: input.ReceiveStockNotification,
	}
	if err := s.repos.Users.Create(ctx, actor, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// UpdateUser updates a non-deleted user.
func (s *UserService) UpdateUser(ctx context.Context, actor audit.Actor, id string, input UpdateUserInput) (*models.User, error) {
	user, err := s.repos.Users.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrUserNotFound, "user")
	}
	if user.Trashed() {
		return nil, ErrUserNotFound
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		user.Name = name
	}
	if input.Email != nil {
		email, err := normalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		if email != nil {
			if err := s.ensureEmailFree(ctx, *email, user.ID); err != nil {
				return nil, err
			}
		}
		user.Email = email
	}
	if input.Password != nil {
		if len(*input.Password) < constants.MinPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, ErrFailedToHashPassword
		}
		user.PasswordHash = string(hash)
	}

	if err := s.checkReferences(ctx, input.RoleID, input.DepartmentID, input.OrganizationID); err != nil {
		return nil, err
	}
	if input.RoleID != nil {
		user.RoleID = emptyToNil(input.RoleID)
	}
	if input.DepartmentID != nil {
		user.DepartmentID = emptyToNil(input.DepartmentID)
	}
	if input.OrganizationID != nil {
		user.OrganizationID = emptyToNil(input.OrganizationID)
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.ReceiveStockNotification != nil {
		user.ReceiveStockNotification = *input.ReceiveStockNotification
	}

	if err := s.repos.Users.Update(ctx, actor, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	s.sessions.Forget()
	return user, nil
}

// DeleteUser soft deletes a user. Actors cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, actor audit.Actor, id, reason string) error {
	if actor.UserID == id {
		return ErrCannotDeleteSelf
	}
	user, err := s.repos.Users.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, ErrUserNotFound, "user")
	}
	if err := s.repos.Users.Delete(ctx, actor, user, reason); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.sessions.Forget()
	return nil
}

// RestoreUser restores a deleted user.
func (s *UserService) RestoreUser(ctx context.Context, actor audit.Actor, id string) (*models.User, error) {
	user, err := s.repos.Users.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrUserNotFound, "user")
	}
	if err := s.repos.Users.Restore(ctx, actor, user); err != nil {
		return nil, restoreError(err, "user")
	}
	return user, nil
}

// ensureEmailFree checks every user, trashed ones included, because the
// email column is unique.
func (s *UserService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	users, _, err := s.repos.Users.List(ctx, repository.ListQuery{Trashed: database.WithTrashed}, func(db *gorm.DB) *gorm.DB {
		return db.Where("email = ?", email)
	})
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	for _, u := range users {
		if u.ID != selfID {
			return ErrEmailTaken
		}
	}
	return nil
}

func (s *UserService) checkReferences(ctx context.Context, roleID, departmentID, organizationID *string) error {
	if id := emptyToNil(roleID); id != nil {
		roles, err := s.repos.Roles.FindByIDs(ctx, []string{*id})
		if err != nil {
			return fmt.Errorf("failed to load role: %w", err)
		}
		if len(roles) == 0 {
			return fmt.Errorf("%w: role %s", ErrInvalidReference, *id)
		}
	}
	if id := emptyToNil(departmentID); id != nil {
		departments, err := s.repos.Departments.FindByIDs(ctx, []string{*id})
		if err != nil {
			return fmt.Errorf("failed to load department: %w", err)
		}
		if len(departments) == 0 {
			return fmt.Errorf("%w: department %s", ErrInvalidReference, *id)
		}
	}
	if id := emptyToNil(organizationID); id != nil {
		orgs, err := s.repos.Organizations.FindByIDs(ctx, []string{*id})
		if err != nil {
			return fmt.Errorf("failed to load organization: %w", err)
		}
		if len(orgs) == 0 {
			return fmt.Errorf("%w: organization %s", ErrInvalidReference, *id)
		}
	}
	return nil
}

func normalizeEmail(raw string) (*string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return nil, nil
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return nil, ErrInvalidEmail
	}
	return &email, nil
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
