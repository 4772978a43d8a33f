package users

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/flextech/employees-backend/internal/repo"
	"github.com/flextech/employees-backend/pkg/db/models"
	"github.com/flextech/employees-backend/pkg/enums"
	"github.com/flextech/employees-backend/pkg/pagination"
)

// ListQuery narrows and pages a user listing. Zero values mean "no filter".
type ListQuery struct {
	FreeWord     string
	Role         *enums.UserRole
	Status       *enums.UserStatus
	DepartmentID *int
	PositionIDs  []int
	Page         pagination.Params
}

// Repository exposes user persistence operations. Soft-deleted rows are
// invisible to every method here; GORM scopes them out through DeletedAt.
type Repository struct {
	base repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// Create inserts a new user row.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.base.Session(ctx).Create(user).Error
}

// Save writes the full row back.
func (r *Repository) Save(ctx context.Context, user *models.User) error {
	return r.base.Session(ctx).Save(user).Error
}

// Delete soft-deletes the user and reports whether a live row was affected.
func (r *Repository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.base.Session(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindByID loads a user by primary key. Returns (nil, nil) when no live row
// matches.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.base.Session(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail retrieves the live user matching the provided email.
// Returns (nil, nil) when no live row matches.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.base.Session(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmployeeCode retrieves the live user holding the provided code.
// Returns (nil, nil) when no live row matches.
func (r *Repository) FindByEmployeeCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	err := r.base.Session(ctx).Where("employee_code = ?", code).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns one page of users matching the query plus the total count
// before paging.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]models.User, int64, error) {
	tx := r.applyFilters(r.base.Session(ctx).Model(&models.User{}), q)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := q.Page.Normalize()
	var list []models.User
	err := tx.
		Order(page.OrderClause()).
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListAll returns every live user ordered newest first, for exports.
func (r *Repository) ListAll(ctx context.Context) ([]models.User, error) {
	var list []models.User
	err := r.base.Session(ctx).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateAvatar stores the new avatar path on the row.
func (r *Repository) UpdateAvatar(ctx context.Context, id uint, path string) error {
	return r.base.Session(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("avatar", path).Error
}

// UpdatePassword swaps the stored credential hash.
func (r *Repository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.base.Session(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("password_hash", hash).Error
}

func (r *Repository) applyFilters(tx *gorm.DB, q ListQuery) *gorm.DB {
	if word := strings.TrimSpace(q.FreeWord); word != "" {
		pattern := "%" + strings.ToLower(word) + "%"
		tx = tx.Where(
			"LOWER(full_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(employee_code) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if q.Role != nil {
		tx = tx.Where("role = ?", *q.Role)
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}
	if q.DepartmentID != nil {
		tx = tx.Where("department_id = ?", *q.DepartmentID)
	}
	if len(q.PositionIDs) > 0 {
		tx = tx.Where("position_id IN ?", q.PositionIDs)
	}
	return tx
}
