package users

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/hmoralesdev/retailpoint-backend/pkg/config"
	"github.com/hmoralesdev/retailpoint-backend/pkg/db/models"
	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
	pkgerrors "github.com/hmoralesdev/retailpoint-backend/pkg/errors"
	"github.com/hmoralesdev/retailpoint-backend/pkg/pagination"
	"github.com/hmoralesdev/retailpoint-backend/pkg/security"
)

// MinPasswordLength applies to every password the service accepts.
const MinPasswordLength = 8

// ProfileUpdate carries the self-service editable fields.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
}

// Service manages account reads, profile edits, and password changes.
type Service interface {
	Get(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*models.User, error)
	List(ctx context.Context, role *enums.Role, page pagination.Params) ([]models.User, pagination.Page, error)
	Delete(ctx context.Context, id, actorID int64) error
	ChangePassword(ctx context.Context, id int64, current, next string) error
	ResetPassword(ctx context.Context, id int64) (string, error)
	SetRole(ctx context.Context, id int64, role enums.Role) error
}

type service struct {
	repo        Repository
	passwordCfg config.PasswordConfig
}

// NewService builds the users service.
func NewService(repo Repository, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo, passwordCfg: passwordCfg}, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.User, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.FirstName != nil {
		if *update.FirstName == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name required")
		}
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		if *update.LastName == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last name required")
		}
		user.LastName = *update.LastName
	}
	if update.Phone != nil {
		if !validPhone(*update.Phone) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone must be 10 digits")
		}
		user.Phone = update.Phone
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return user, nil
}

func (s *service) List(ctx context.Context, role *enums.Role, page pagination.Params) ([]models.User, pagination.Page, error) {
	normalized := pagination.Normalize(page)
	items, total, err := s.repo.List(ctx, ListFilter{Role: role, Page: normalized})
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return items, pagination.Page{Limit: normalized.Limit, Offset: normalized.Offset, Total: total}, nil
}

func (s *service) Delete(ctx context.Context, id, actorID int64) error {
	if id == actorID {
		return pkgerrors.New(pkgerrors.CodeValidation, "cannot delete own account")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return nil
}

func (s *service) ChangePassword(ctx context.Context, id int64, current, next string) error {
	if len(next) < MinPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "password too short")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	ok, err := security.VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password incorrect")
	}

	hash, err := security.HashPassword(next, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePasswordHash(ctx, id, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store password")
	}
	return nil
}

// ResetPassword issues a temporary password for the account and returns
// it so an admin can hand it to the user out of band.
func (s *service) ResetPassword(ctx context.Context, id int64) (string, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return "", err
	}

	temp, err := security.GenerateTempPassword(12)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
	}
	hash, err := security.HashPassword(temp, s.passwordCfg)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePasswordHash(ctx, id, hash); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store password")
	}
	return temp, nil
}

func (s *service) SetRole(ctx context.Context, id int64, role enums.Role) error {
	if !role.IsValid() || role == enums.RoleGuest {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	user.Role = role
	if err := s.repo.Update(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return nil
}

func validPhone(phone string) bool {
	if len(phone) != 10 {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
