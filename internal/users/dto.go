package users

import (
	"strings"
	"time"

	"github.com/flextech/employees-backend/pkg/db/models"
	"github.com/flextech/employees-backend/pkg/enums"
)

// UserDTO is the transport shape. It never carries the password hash.
type UserDTO struct {
	ID           uint             `json:"id"`
	EmployeeCode *string          `json:"employeeCode,omitempty"`
	FullName     string           `json:"fullName"`
	Email        string           `json:"email"`
	PhoneNumber  string           `json:"phoneNumber"`
	DepartmentID *int             `json:"departmentId,omitempty"`
	PositionID   *int             `json:"positionId,omitempty"`
	Address      *string          `json:"address,omitempty"`
	Description  *string          `json:"description,omitempty"`
	DateOfBirth  *time.Time       `json:"dateOfBirth,omitempty"`
	DateIn       *time.Time       `json:"dateIn,omitempty"`
	DateOut      *time.Time       `json:"dateOut,omitempty"`
	Gender       *enums.Gender    `json:"gender,omitempty"`
	Status       enums.UserStatus `json:"status"`
	Role         *enums.UserRole  `json:"role,omitempty"`
	Avatar       *string          `json:"avatar,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:           u.ID,
		EmployeeCode: u.EmployeeCode,
		FullName:     u.FullName,
		Email:        u.Email,
		PhoneNumber:  u.PhoneNumber,
		DepartmentID: u.DepartmentID,
		PositionID:   u.PositionID,
		Address:      u.Address,
		Description:  u.Description,
		DateOfBirth:  u.DateOfBirth,
		DateIn:       u.DateIn,
		DateOut:      u.DateOut,
		Gender:       u.Gender,
		Status:       u.Status,
		Role:         u.Role,
		Avatar:       u.Avatar,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromModels(list []models.User) []*UserDTO {
	out := make([]*UserDTO, 0, len(list))
	for i := range list {
		out = append(out, FromModel(&list[i]))
	}
	return out
}

// CreateUserInput is the writable field set for account creation. Request
// bodies are decoded into this struct, so anything outside it never reaches
// the database.
type CreateUserInput struct {
	EmployeeCode *string           `json:"employeeCode"`
	DepartmentID *int              `json:"departmentId"`
	PositionID   *int              `json:"positionId"`
	Password     string            `json:"password"`
	FullName     string            `json:"fullName"`
	PhoneNumber  string            `json:"phoneNumber"`
	Email        string            `json:"email"`
	Role         *enums.UserRole   `json:"role"`
	Status       *enums.UserStatus `json:"status"`
	DateIn       *time.Time        `json:"dateIn"`
	DateOut      *time.Time        `json:"dateOut"`
}

// Normalize trims identity fields and lowercases the email.
func (c CreateUserInput) Normalize() CreateUserInput {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.FullName = strings.TrimSpace(c.FullName)
	if c.EmployeeCode != nil {
		code := strings.TrimSpace(*c.EmployeeCode)
		c.EmployeeCode = &code
	}
	return c
}

// ToModel builds the persistence model. The hash is computed by the service,
// never taken from the request.
func (c CreateUserInput) ToModel(passwordHash string) *models.User {
	status := enums.UserStatusActive
	if c.Status != nil {
		status = *c.Status
	}

	return &models.User{
		EmployeeCode: c.EmployeeCode,
		FullName:     c.FullName,
		Email:        c.Email,
		PasswordHash: passwordHash,
		PhoneNumber:  c.PhoneNumber,
		DepartmentID: c.DepartmentID,
		PositionID:   c.PositionID,
		Role:         c.Role,
		Status:       status,
		DateIn:       c.DateIn,
		DateOut:      c.DateOut,
	}
}

// AdminUpdateInput is the admin-writable field set for profile updates. Email
// is intentionally absent: it is immutable after creation. Nil pointers leave
// the stored value untouched.
type AdminUpdateInput struct {
	FullName     *string           `json:"fullName"`
	EmployeeCode *string           `json:"employeeCode"`
	DateOfBirth  *time.Time        `json:"dateOfBirth"`
	DepartmentID *int              `json:"departmentId"`
	PositionID   *int              `json:"positionId"`
	PhoneNumber  *string           `json:"phoneNumber"`
	Address      *string           `json:"address"`
	DateIn       *time.Time        `json:"dateIn"`
	DateOut      *time.Time        `json:"dateOut"`
	Gender       *enums.Gender     `json:"gender"`
	Status       *enums.UserStatus `json:"status"`
	Role         *enums.UserRole   `json:"role"`
	Description  *string           `json:"description"`
	Password     *string           `json:"password"`
}

// Apply copies the provided fields onto the model. The password is handled
// separately by the service.
func (in AdminUpdateInput) Apply(u *models.User) {
	if in.FullName != nil {
		u.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.EmployeeCode != nil {
		code := strings.TrimSpace(*in.EmployeeCode)
		u.EmployeeCode = &code
	}
	if in.DateOfBirth != nil {
		u.DateOfBirth = in.DateOfBirth
	}
	if in.DepartmentID != nil {
		u.DepartmentID = in.DepartmentID
	}
	if in.PositionID != nil {
		u.PositionID = in.PositionID
	}
	if in.PhoneNumber != nil {
		u.PhoneNumber = *in.PhoneNumber
	}
	if in.Address != nil {
		u.Address = in.Address
	}
	if in.DateIn != nil {
		u.DateIn = in.DateIn
	}
	if in.DateOut != nil {
		u.DateOut = in.DateOut
	}
	if in.Gender != nil {
		u.Gender = in.Gender
	}
	if in.Status != nil {
		u.Status = *in.Status
	}
	if in.Role != nil {
		u.Role = in.Role
	}
	if in.Description != nil {
		u.Description = in.Description
	}
}

// SelfUpdateInput is the subset an employee may change on their own profile.
// Status, role and password are excluded; password changes go through the
// dedicated change-password flow.
type SelfUpdateInput struct {
	FullName     *string       `json:"fullName"`
	EmployeeCode *string       `json:"employeeCode"`
	DateOfBirth  *time.Time    `json:"dateOfBirth"`
	DepartmentID *int          `json:"departmentId"`
	PositionID   *int          `json:"positionId"`
	PhoneNumber  *string       `json:"phoneNumber"`
	Address      *string       `json:"address"`
	DateIn       *time.Time    `json:"dateIn"`
	DateOut      *time.Time    `json:"dateOut"`
	Gender       *enums.Gender `json:"gender"`
	Description  *string       `json:"description"`
}

// asAdminInput widens the self-service subset so both flows share one
// validation and apply path.
func (in SelfUpdateInput) asAdminInput() AdminUpdateInput {
	return AdminUpdateInput{
		FullName:     in.FullName,
		EmployeeCode: in.EmployeeCode,
		DateOfBirth:  in.DateOfBirth,
		DepartmentID: in.DepartmentID,
		PositionID:   in.PositionID,
		PhoneNumber:  in.PhoneNumber,
		Address:      in.Address,
		DateIn:       in.DateIn,
		DateOut:      in.DateOut,
		Gender:       in.Gender,
		Description:  in.Description,
	}
}

// LoginInput carries the credentials presented at login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	AccessToken string   `json:"accessToken"`
	User        *UserDTO `json:"user"`
}
