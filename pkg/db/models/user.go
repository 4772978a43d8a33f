package models

import (
	"time"

	"github.com/flextech/employees-backend/pkg/enums"
	"gorm.io/gorm"
)

// User represents one employee row. Rows are never physically removed: the
// DeletedAt marker excludes them from every default query, and the partial
// unique indexes on email/employee_code only cover live rows.
type User struct {
	ID           uint             `gorm:"primaryKey"`
	EmployeeCode *string          `gorm:"column:employee_code"`
	FullName     string           `gorm:"column:full_name;not null"`
	Email        string           `gorm:"type:text;not null"`
	PasswordHash string           `gorm:"column:password_hash;not null"`
	PhoneNumber  string           `gorm:"column:phone_number;not null"`
	DepartmentID *int             `gorm:"column:department_id"`
	PositionID   *int             `gorm:"column:position_id"`
	Address      *string          `gorm:"column:address"`
	Description  *string          `gorm:"column:description"`
	DateOfBirth  *time.Time       `gorm:"column:date_of_birth"`
	DateIn       *time.Time       `gorm:"column:date_in"`
	DateOut      *time.Time       `gorm:"column:date_out"`
	Gender       *enums.Gender    `gorm:"column:gender"`
	Status       enums.UserStatus `gorm:"column:status;not null;default:active"`
	Role         *enums.UserRole  `gorm:"column:role"`
	Avatar       *string          `gorm:"column:avatar"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt    gorm.DeletedAt   `gorm:"column:deleted_at;index"`
}

// TableName pins the legacy table name.
func (User) TableName() string {
	return "users"
}
