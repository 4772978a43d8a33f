package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/flextech/employees-backend/pkg/errors"
	"github.com/flextech/employees-backend/pkg/pagination"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").
			WithField(key, "must be numeric")
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").
			WithField(key, "is out of range")
	}
	return value, nil
}

// ParseQueryIntPtr returns nil when the parameter is absent.
func ParseQueryIntPtr(r *http.Request, key string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").
			WithField(key, "must be numeric")
	}
	return &value, nil
}

// ParseQueryIntList reads a repeatable or comma-separated integer parameter.
// An absent parameter yields a nil slice.
func ParseQueryIntList(r *http.Request, key string) ([]int, error) {
	var values []int
	for _, raw := range r.URL.Query()[key] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			value, err := strconv.Atoi(part)
			if err != nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").
					WithField(key, "must be a list of numbers")
			}
			values = append(values, value)
		}
	}
	return values, nil
}

// ParsePagination reads page/limit/sortBy/sortOrder from the query string.
func ParsePagination(r *http.Request) (pagination.Params, error) {
	page, err := ParseQueryInt(r, "page", 1, 1, 1_000_000)
	if err != nil {
		return pagination.Params{}, err
	}
	limit, err := ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Page:      page,
		Limit:     limit,
		SortBy:    strings.TrimSpace(r.URL.Query().Get("sortBy")),
		SortOrder: strings.TrimSpace(r.URL.Query().Get("sortOrder")),
	}.Normalize(), nil
}
