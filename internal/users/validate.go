package users

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/flextech/employees-backend/pkg/db/models"
	pkgerrors "github.com/flextech/employees-backend/pkg/errors"
)

const minPasswordLength = 6

type uniquenessRepo interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByEmployeeCode(ctx context.Context, code string) (*models.User, error)
}

// Validator checks inputs before they reach the repository. Uniqueness checks
// here are a fast path only; the partial unique indexes are authoritative and
// the service maps their violations to the same field errors.
type Validator struct {
	validate *validator.Validate
	repo     uniquenessRepo
}

// NewValidator builds a validator backed by the repo for uniqueness lookups.
func NewValidator(repo uniquenessRepo) *Validator {
	return &Validator{
		validate: validator.New(),
		repo:     repo,
	}
}

// ValidateCreate checks the create input. All failures are collected into one
// field-keyed validation error rather than returned one at a time.
func (v *Validator) ValidateCreate(ctx context.Context, in CreateUserInput) error {
	fields := map[string][]string{}

	if in.FullName == "" {
		fields["fullName"] = append(fields["fullName"], "full name is required")
	}
	if in.Email == "" {
		fields["email"] = append(fields["email"], "email is required")
	} else if err := v.validate.Var(in.Email, "email"); err != nil {
		fields["email"] = append(fields["email"], "email is not a valid address")
	}
	if in.EmployeeCode == nil || *in.EmployeeCode == "" {
		fields["employeeCode"] = append(fields["employeeCode"], "employee code is required")
	}
	if in.Password == "" {
		fields["password"] = append(fields["password"], "password is required")
	} else if len(in.Password) < minPasswordLength {
		fields["password"] = append(fields["password"], "password must be at least 6 characters")
	}
	if in.Role != nil && !in.Role.IsValid() {
		fields["role"] = append(fields["role"], "role must be admin or user")
	}
	if in.Status != nil && !in.Status.IsValid() {
		fields["status"] = append(fields["status"], "status must be active or inactive")
	}

	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid user payload").
			WithFieldMessages(fields)
	}

	// Uniqueness pre-checks. ID 0 exempts nothing.
	return v.checkUniqueness(ctx, 0, &in.Email, in.EmployeeCode)
}

// ValidateUpdate checks an update against the stored row. Only fields that
// actually change get a uniqueness re-check, and matches on the row itself
// are exempt.
func (v *Validator) ValidateUpdate(ctx context.Context, current *models.User, in AdminUpdateInput) error {
	fields := map[string][]string{}

	if in.FullName != nil && *in.FullName == "" {
		fields["fullName"] = append(fields["fullName"], "full name cannot be empty")
	}
	if in.EmployeeCode != nil && *in.EmployeeCode == "" {
		fields["employeeCode"] = append(fields["employeeCode"], "employee code cannot be empty")
	}
	if in.Password != nil && len(*in.Password) < minPasswordLength {
		fields["password"] = append(fields["password"], "password must be at least 6 characters")
	}
	if in.Gender != nil && !in.Gender.IsValid() {
		fields["gender"] = append(fields["gender"], "gender must be male, female or other")
	}
	if in.Role != nil && !in.Role.IsValid() {
		fields["role"] = append(fields["role"], "role must be admin or user")
	}
	if in.Status != nil && !in.Status.IsValid() {
		fields["status"] = append(fields["status"], "status must be active or inactive")
	}

	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid user payload").
			WithFieldMessages(fields)
	}

	var code *string
	if in.EmployeeCode != nil && (current.EmployeeCode == nil || *in.EmployeeCode != *current.EmployeeCode) {
		code = in.EmployeeCode
	}
	return v.checkUniqueness(ctx, current.ID, nil, code)
}

func (v *Validator) checkUniqueness(ctx context.Context, selfID uint, email, employeeCode *string) error {
	fields := map[string][]string{}

	if email != nil && *email != "" {
		existing, err := v.repo.FindByEmail(ctx, *email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check email uniqueness")
		}
		if existing != nil && existing.ID != selfID {
			fields["email"] = append(fields["email"], "email is already in use")
		}
	}

	if employeeCode != nil && *employeeCode != "" {
		existing, err := v.repo.FindByEmployeeCode(ctx, *employeeCode)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check employee code uniqueness")
		}
		if existing != nil && existing.ID != selfID {
			fields["employeeCode"] = append(fields["employeeCode"], "employee code is already in use")
		}
	}

	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid user payload").
			WithFieldMessages(fields)
	}
	return nil
}
