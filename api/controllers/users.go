package controllers

import (
	"net/http"

	"github.com/flextech/employees-backend/api/middleware"
	"github.com/flextech/employees-backend/api/responses"
	"github.com/flextech/employees-backend/api/validators"
	"github.com/flextech/employees-backend/internal/users"
	pkgerrors "github.com/flextech/employees-backend/pkg/errors"
	"github.com/flextech/employees-backend/pkg/logger"
)

// CurrentUser returns the authenticated user's own profile.
func CurrentUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		user, err := svc.GetUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]*users.UserDTO{"user": user})
	}
}

// UpdateCurrentUser applies the self-service editable subset to the
// authenticated user's profile.
func UpdateCurrentUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var body users.SelfUpdateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.UpdateSelf(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]*users.UserDTO{"user": user})
	}
}
