package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flextech/employees-backend/api/middleware"
	"github.com/flextech/employees-backend/api/responses"
	"github.com/flextech/employees-backend/api/validators"
	"github.com/flextech/employees-backend/internal/roster"
	"github.com/flextech/employees-backend/internal/users"
	"github.com/flextech/employees-backend/pkg/config"
	"github.com/flextech/employees-backend/pkg/enums"
	pkgerrors "github.com/flextech/employees-backend/pkg/errors"
	"github.com/flextech/employees-backend/pkg/logger"
)

type multiDeleteRequest struct {
	IDs []uint `json:"ids" validate:"required,min=1"`
}

type multiUpdateRequest struct {
	Items []users.BulkUpdateItem `json:"items" validate:"required,min=1"`
}

// AdminListUsers serves the filtered, paginated roster listing.
func AdminListUsers(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query, err := parseListQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, meta, err := svc.ListUsers(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"users":      list,
			"pagination": meta,
		})
	}
}

// AdminShowUser returns one user by id.
func AdminShowUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.GetUser(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]*users.UserDTO{"user": user})
	}
}

// AdminCreateUser registers a new employee account.
func AdminCreateUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body users.CreateUserInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.CreateUser(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]*users.UserDTO{"user": user})
	}
}

// AdminUpdateUser applies the admin-editable field set to a user.
func AdminUpdateUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body users.AdminUpdateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.UpdateUser(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]*users.UserDTO{"user": user})
	}
}

// AdminDeleteUser soft-deletes one account. Admins cannot delete themselves.
func AdminDeleteUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.UserIDFromContext(r.Context())
		if err := svc.DeleteUser(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// AdminMultiUpdateUsers applies several updates in one call, reporting each
// outcome separately.
func AdminMultiUpdateUsers(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body multiUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, svc.BulkUpdate(r.Context(), body.Items))
	}
}

// AdminMultiDeleteUsers soft-deletes several accounts in one call.
func AdminMultiDeleteUsers(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body multiDeleteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.UserIDFromContext(r.Context())
		responses.WriteSuccess(w, svc.BulkDelete(r.Context(), actor, body.IDs))
	}
}

// AdminResetPassword rotates a user's credential to a generated temporary
// password and mails it to them. The value is also returned so an admin can
// hand it over when mail is not configured.
func AdminResetPassword(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		temp, err := svc.ResetPassword(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"temporaryPassword": temp})
	}
}

// AdminDownloadUsers streams the roster as a CSV attachment.
func AdminDownloadUsers(rosterSvc *roster.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Buffer first so a mid-export failure can still produce an error
		// envelope instead of a truncated file.
		var buf bytes.Buffer
		if err := rosterSvc.ExportCSV(r.Context(), &buf); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filename := fmt.Sprintf("users_%s.csv", time.Now().UTC().Format("20060102"))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil && logg != nil {
			logg.Error(r.Context(), "stream csv download", err)
		}
	}
}

// AdminUploadUsers imports accounts from an uploaded CSV file.
func AdminUploadUsers(rosterSvc *roster.Service, storageCfg config.StorageConfig, logg *logger.Logger) http.HandlerFunc {
	maxBytes := int64(storageCfg.MaxUploadMB) << 20
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "csv file is required"))
			return
		}
		defer file.Close()

		if !isCSVUpload(header.Filename, header.Header.Get("Content-Type")) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeFileNotAccepted, "only csv files are accepted"))
			return
		}

		result, err := rosterSvc.ImportCSV(r.Context(), file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AdminUploadAvatar stores a new avatar image for the given user.
func AdminUploadAvatar(svc users.Service, storageCfg config.StorageConfig, logg *logger.Logger) http.HandlerFunc {
	maxBytes := int64(storageCfg.MaxUploadMB) << 20
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		file, header, err := r.FormFile("avatar")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "avatar file is required"))
			return
		}
		defer file.Close()

		user, err := svc.UpdateAvatar(r.Context(), id, header.Header.Get("Content-Type"), file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]*users.UserDTO{"user": user})
	}
}

func parseUserID(r *http.Request) (uint, error) {
	raw := chi.URLParam(r, "userId")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid user id").
			WithField("userId", "must be a positive number")
	}
	return uint(id), nil
}

func parseListQuery(r *http.Request) (users.ListQuery, error) {
	page, err := validators.ParsePagination(r)
	if err != nil {
		return users.ListQuery{}, err
	}

	query := users.ListQuery{
		FreeWord: strings.TrimSpace(r.URL.Query().Get("freeWord")),
		Page:     page,
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("role")); raw != "" {
		role, err := enums.ParseUserRole(raw)
		if err != nil {
			return users.ListQuery{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid role filter").
				WithField("role", "role must be admin or user")
		}
		query.Role = &role
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseUserStatus(raw)
		if err != nil {
			return users.ListQuery{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter").
				WithField("status", "status must be active or inactive")
		}
		query.Status = &status
	}

	if query.DepartmentID, err = validators.ParseQueryIntPtr(r, "departmentId"); err != nil {
		return users.ListQuery{}, err
	}
	if query.PositionIDs, err = validators.ParseQueryIntList(r, "positionIds"); err != nil {
		return users.ListQuery{}, err
	}

	return query, nil
}

func isCSVUpload(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/csv") || strings.Contains(ct, "application/csv")
}
