package users

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/multierr"

	pkgauth "github.com/flextech/employees-backend/pkg/auth"
	"github.com/flextech/employees-backend/pkg/config"
	"github.com/flextech/employees-backend/pkg/db"
	"github.com/flextech/employees-backend/pkg/db/models"
	"github.com/flextech/employees-backend/pkg/enums"
	pkgerrors "github.com/flextech/employees-backend/pkg/errors"
	"github.com/flextech/employees-backend/pkg/logger"
	"github.com/flextech/employees-backend/pkg/mailer"
	"github.com/flextech/employees-backend/pkg/pagination"
	"github.com/flextech/employees-backend/pkg/security"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	tempPasswordLength        = 12

	emailConstraint        = "users_email_live_uq"
	employeeCodeConstraint = "users_employee_code_live_uq"
)

// Service defines the behavior needed by the user and auth controllers.
type Service interface {
	Authenticate(ctx context.Context, in LoginInput) (*LoginResult, error)
	ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error
	ResetPassword(ctx context.Context, userID uint) (string, error)

	GetUser(ctx context.Context, id uint) (*UserDTO, error)
	ListUsers(ctx context.Context, q ListQuery) ([]*UserDTO, pagination.Meta, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*UserDTO, error)
	UpdateUser(ctx context.Context, id uint, in AdminUpdateInput) (*UserDTO, error)
	UpdateSelf(ctx context.Context, id uint, in SelfUpdateInput) (*UserDTO, error)
	DeleteUser(ctx context.Context, actorID, id uint) error
	UpdateAvatar(ctx context.Context, id uint, contentType string, content io.Reader) (*UserDTO, error)

	BulkCreate(ctx context.Context, inputs []CreateUserInput) *BulkResult
	BulkUpdate(ctx context.Context, items []BulkUpdateItem) *BulkResult
	BulkDelete(ctx context.Context, actorID uint, ids []uint) *BulkResult
}

type userRepository interface {
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) (bool, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, q ListQuery) ([]models.User, int64, error)
	UpdateAvatar(ctx context.Context, id uint, path string) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
}

type inputValidator interface {
	ValidateCreate(ctx context.Context, in CreateUserInput) error
	ValidateUpdate(ctx context.Context, current *models.User, in AdminUpdateInput) error
}

type avatarStore interface {
	SaveAvatar(ctx context.Context, contentType string, content io.Reader) (string, error)
	Remove(ctx context.Context, publicPath string) error
}

type service struct {
	repo     userRepository
	validate inputValidator
	avatars  avatarStore
	mail     mailer.Sender
	logg     *logger.Logger
	jwtCfg   config.JWTConfig
	passCfg  config.PasswordConfig
}

// ServiceParams bundles the dependencies required to build a user service.
// Mail is optional; when nil, notification sends are skipped.
type ServiceParams struct {
	Repo           userRepository
	Validator      inputValidator
	Avatars        avatarStore
	Mail           mailer.Sender
	Logger         *logger.Logger
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
}

// NewService constructs the user service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Validator == nil {
		return nil, fmt.Errorf("validator is required")
	}
	if params.Avatars == nil {
		return nil, fmt.Errorf("avatar store is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		repo:     params.Repo,
		validate: params.Validator,
		avatars:  params.Avatars,
		mail:     params.Mail,
		logg:     params.Logger,
		jwtCfg:   params.JWTConfig,
		passCfg:  params.PasswordConfig,
	}, nil
}

func (s *service) Authenticate(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	valid, err := security.VerifyPassword(in.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || user.Status != enums.UserStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	role := enums.UserRoleUser
	if user.Role != nil {
		role = *user.Role
	}

	token, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &LoginResult{
		AccessToken: token,
		User:        FromModel(user),
	}, nil
}

func (s *service) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	user, err := s.mustFind(ctx, userID)
	if err != nil {
		return err
	}

	valid, err := security.VerifyPassword(oldPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeFailedPrecond, "current password is incorrect").
			WithField("oldPassword", "current password is incorrect")
	}

	if len(newPassword) < minPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid password").
			WithField("newPassword", "password must be at least 6 characters")
	}

	hash, err := security.HashPassword(newPassword, s.passCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, userID uint) (string, error) {
	user, err := s.mustFind(ctx, userID)
	if err != nil {
		return "", err
	}

	temp, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
	}
	hash, err := security.HashPassword(temp, s.passCfg)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}

	s.sendPasswordResetMail(ctx, user, temp)
	return temp, nil
}

func (s *service) GetUser(ctx context.Context, id uint) (*UserDTO, error) {
	user, err := s.mustFind(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) ListUsers(ctx context.Context, q ListQuery) ([]*UserDTO, pagination.Meta, error) {
	list, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pagination.Meta{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	return FromModels(list), q.Page.MetaFor(total), nil
}

func (s *service) CreateUser(ctx context.Context, in CreateUserInput) (*UserDTO, error) {
	in = in.Normalize()
	if err := s.validate.ValidateCreate(ctx, in); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(in.Password, s.passCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := in.ToModel(hash)
	if err := s.repo.Create(ctx, user); err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return nil, mapped
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	s.sendWelcomeMail(ctx, user, in.Password)
	return FromModel(user), nil
}

func (s *service) UpdateUser(ctx context.Context, id uint, in AdminUpdateInput) (*UserDTO, error) {
	user, err := s.mustFind(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate.ValidateUpdate(ctx, user, in); err != nil {
		return nil, err
	}

	in.Apply(user)
	if in.Password != nil {
		hash, err := security.HashPassword(*in.Password, s.passCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		user.PasswordHash = hash
	}

	if err := s.repo.Save(ctx, user); err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return nil, mapped
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	return FromModel(user), nil
}

func (s *service) UpdateSelf(ctx context.Context, id uint, in SelfUpdateInput) (*UserDTO, error) {
	return s.UpdateUser(ctx, id, in.asAdminInput())
}

func (s *service) DeleteUser(ctx context.Context, actorID, id uint) error {
	if actorID == id {
		return pkgerrors.New(pkgerrors.CodeFailedPrecond, "cannot delete your own account")
	}

	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
	}
	if !affected {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func (s *service) UpdateAvatar(ctx context.Context, id uint, contentType string, content io.Reader) (*UserDTO, error) {
	user, err := s.mustFind(ctx, id)
	if err != nil {
		return nil, err
	}

	// Snapshot the current path first; the loaded row may alias storage the
	// repository mutates during the update.
	var previous string
	if user.Avatar != nil {
		previous = *user.Avatar
	}

	path, err := s.avatars.SaveAvatar(ctx, contentType, content)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAvatar(ctx, user.ID, path); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update avatar")
	}

	if previous != "" && previous != path {
		if err := s.avatars.Remove(ctx, previous); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "avatar", previous), "failed to remove previous avatar")
		}
	}

	user.Avatar = &path
	return FromModel(user), nil
}

// BulkItemResult reports the outcome of one entry in a bulk operation.
type BulkItemResult struct {
	Index   int                 `json:"index"`
	ID      uint                `json:"id,omitempty"`
	Email   string              `json:"email,omitempty"`
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Fields  map[string][]string `json:"messages,omitempty"`
}

// BulkResult summarizes a bulk operation. One bad entry never aborts the
// rest; each item carries its own outcome.
type BulkResult struct {
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Items     []BulkItemResult `json:"items"`
}

// BulkUpdateItem pairs a target user with the fields to change.
type BulkUpdateItem struct {
	ID    uint             `json:"id"`
	Input AdminUpdateInput `json:"input"`
}

func (s *service) BulkCreate(ctx context.Context, inputs []CreateUserInput) *BulkResult {
	result := &BulkResult{Items: make([]BulkItemResult, 0, len(inputs))}
	var combined error

	for i, in := range inputs {
		dto, err := s.CreateUser(ctx, in)
		if err != nil {
			combined = multierr.Append(combined, fmt.Errorf("item %d (%s): %w", i, in.Email, err))
			result.Failed++
			result.Items = append(result.Items, itemFailure(i, in.Email, err))
			continue
		}
		result.Succeeded++
		result.Items = append(result.Items, BulkItemResult{
			Index:   i,
			ID:      dto.ID,
			Email:   dto.Email,
			Success: true,
		})
	}

	s.logBulkErrors(ctx, "bulk create finished with failures", combined)
	return result
}

func (s *service) BulkUpdate(ctx context.Context, items []BulkUpdateItem) *BulkResult {
	result := &BulkResult{Items: make([]BulkItemResult, 0, len(items))}
	var combined error

	for i, item := range items {
		dto, err := s.UpdateUser(ctx, item.ID, item.Input)
		if err != nil {
			combined = multierr.Append(combined, fmt.Errorf("item %d (id %d): %w", i, item.ID, err))
			result.Failed++
			failure := itemFailure(i, "", err)
			failure.ID = item.ID
			result.Items = append(result.Items, failure)
			continue
		}
		result.Succeeded++
		result.Items = append(result.Items, BulkItemResult{
			Index:   i,
			ID:      dto.ID,
			Email:   dto.Email,
			Success: true,
		})
	}

	s.logBulkErrors(ctx, "bulk update finished with failures", combined)
	return result
}

func (s *service) BulkDelete(ctx context.Context, actorID uint, ids []uint) *BulkResult {
	result := &BulkResult{Items: make([]BulkItemResult, 0, len(ids))}
	var combined error

	for i, id := range ids {
		if err := s.DeleteUser(ctx, actorID, id); err != nil {
			combined = multierr.Append(combined, fmt.Errorf("item %d (id %d): %w", i, id, err))
			result.Failed++
			failure := itemFailure(i, "", err)
			failure.ID = id
			result.Items = append(result.Items, failure)
			continue
		}
		result.Succeeded++
		result.Items = append(result.Items, BulkItemResult{Index: i, ID: id, Success: true})
	}

	s.logBulkErrors(ctx, "bulk delete finished with failures", combined)
	return result
}

func (s *service) mustFind(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return user, nil
}

func (s *service) logBulkErrors(ctx context.Context, msg string, combined error) {
	if combined == nil {
		return
	}
	ctx = s.logg.WithField(ctx, "failures", len(multierr.Errors(combined)))
	s.logg.Error(ctx, msg, combined)
}

func (s *service) sendWelcomeMail(ctx context.Context, user *models.User, password string) {
	if s.mail == nil {
		return
	}
	subject, body, err := mailer.RenderWelcome(mailer.WelcomeMailData{
		FullName:     user.FullName,
		Email:        user.Email,
		TempPassword: password,
	})
	if err != nil {
		s.logg.Error(ctx, "render welcome mail", err)
		return
	}
	if err := s.mail.Send(user.Email, subject, body); err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, fmt.Sprint(user.ID)), "send welcome mail", err)
	}
}

func (s *service) sendPasswordResetMail(ctx context.Context, user *models.User, temp string) {
	if s.mail == nil {
		return
	}
	subject, body, err := mailer.RenderPasswordReset(mailer.PasswordResetMailData{
		FullName:     user.FullName,
		TempPassword: temp,
	})
	if err != nil {
		s.logg.Error(ctx, "render password reset mail", err)
		return
	}
	if err := s.mail.Send(user.Email, subject, body); err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, fmt.Sprint(user.ID)), "send password reset mail", err)
	}
}

func itemFailure(index int, email string, err error) BulkItemResult {
	item := BulkItemResult{Index: index, Email: email}
	if appErr := pkgerrors.As(err); appErr != nil {
		item.Message = appErr.Message()
		item.Fields = appErr.FieldMessages()
		return item
	}
	item.Message = "internal error"
	return item
}

func mapUniqueViolation(err error) error {
	switch {
	case db.IsUniqueViolation(err, emailConstraint):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already in use").
			WithField("email", "email is already in use")
	case db.IsUniqueViolation(err, employeeCodeConstraint):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "employee code already in use").
			WithField("employeeCode", "employee code is already in use")
	case db.IsUniqueViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "value already in use")
	default:
		return nil
	}
}
