package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flextech/employees-backend/api/middleware"
	"github.com/flextech/employees-backend/internal/users"
)

func TestCurrentUserRequiresAuthentication(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	rec := httptest.NewRecorder()

	CurrentUser(&stubUserService{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestCurrentUserReturnsProfile(t *testing.T) {
	svc := &stubUserService{user: &users.UserDTO{ID: 5, Email: "me@example.com"}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), 5))
	rec := httptest.NewRecorder()

	CurrentUser(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			User *users.UserDTO `json:"user"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.User == nil || envelope.Data.User.Email != "me@example.com" {
		t.Fatalf("expected own profile in payload got %+v", envelope.Data.User)
	}
}

func TestUpdateCurrentUserDecodesSelfInput(t *testing.T) {
	svc := &stubUserService{user: &users.UserDTO{ID: 5, FullName: "Updated Name"}}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/update_current", strings.NewReader(`{"fullName":"Updated Name"}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), 5))
	rec := httptest.NewRecorder()

	UpdateCurrentUser(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}
