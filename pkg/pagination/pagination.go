package pagination

import "strings"

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any listing can request.
	MaxLimit = 100
	// DefaultSortColumn orders listings by creation time unless told otherwise.
	DefaultSortColumn = "created_at"
)

// sortableColumns is the allow list of columns a caller may sort by. Anything
// else falls back to the default, so user input never reaches the ORDER BY raw.
var sortableColumns = map[string]string{
	"id":           "id",
	"createdAt":    "created_at",
	"updatedAt":    "updated_at",
	"fullName":     "full_name",
	"email":        "email",
	"employeeCode": "employee_code",
	"status":       "status",
	"role":         "role",
	"dateIn":       "date_in",
}

// Params holds page/limit/sort inputs from controllers.
type Params struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Meta is the pagination block returned inside list envelopes.
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// Normalize clamps page and limit into their valid ranges.
func (p Params) Normalize() Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset converts the normalized page/limit pair into a row offset.
func (p Params) Offset() int {
	norm := p.Normalize()
	return (norm.Page - 1) * norm.Limit
}

// OrderClause resolves the sort inputs into a safe SQL ORDER BY fragment.
func (p Params) OrderClause() string {
	column, ok := sortableColumns[p.SortBy]
	if !ok {
		column = DefaultSortColumn
	}

	direction := "DESC"
	if strings.EqualFold(p.SortOrder, "asc") {
		direction = "ASC"
	}
	return column + " " + direction
}

// MetaFor computes the pagination block for a total row count.
func (p Params) MetaFor(total int64) Meta {
	norm := p.Normalize()
	pages := total / int64(norm.Limit)
	if total%int64(norm.Limit) != 0 {
		pages++
	}
	return Meta{
		Page:  norm.Page,
		Limit: norm.Limit,
		Total: total,
		Pages: pages,
	}
}
