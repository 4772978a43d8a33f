package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flextech/employees-backend/api/middleware"
	"github.com/flextech/employees-backend/internal/users"
	pkgerrors "github.com/flextech/employees-backend/pkg/errors"
	"github.com/flextech/employees-backend/pkg/pagination"
)

// stubUserService returns canned values so handler behavior can be tested in
// isolation from the real service.
type stubUserService struct {
	loginResult *users.LoginResult
	loginErr    error

	user    *users.UserDTO
	userErr error

	list     []*users.UserDTO
	listMeta pagination.Meta

	changePasswordErr error
	deleteErr         error

	tempPassword string
	resetErr     error

	bulkResult *users.BulkResult

	lastCreate users.CreateUserInput
	lastDelete uint
	lastActor  uint
}

func (s *stubUserService) Authenticate(ctx context.Context, in users.LoginInput) (*users.LoginResult, error) {
	return s.loginResult, s.loginErr
}

func (s *stubUserService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	return s.changePasswordErr
}

func (s *stubUserService) ResetPassword(ctx context.Context, userID uint) (string, error) {
	return s.tempPassword, s.resetErr
}

func (s *stubUserService) GetUser(ctx context.Context, id uint) (*users.UserDTO, error) {
	return s.user, s.userErr
}

func (s *stubUserService) ListUsers(ctx context.Context, q users.ListQuery) ([]*users.UserDTO, pagination.Meta, error) {
	return s.list, s.listMeta, nil
}

func (s *stubUserService) CreateUser(ctx context.Context, in users.CreateUserInput) (*users.UserDTO, error) {
	s.lastCreate = in
	return s.user, s.userErr
}

func (s *stubUserService) UpdateUser(ctx context.Context, id uint, in users.AdminUpdateInput) (*users.UserDTO, error) {
	return s.user, s.userErr
}

func (s *stubUserService) UpdateSelf(ctx context.Context, id uint, in users.SelfUpdateInput) (*users.UserDTO, error) {
	return s.user, s.userErr
}

func (s *stubUserService) DeleteUser(ctx context.Context, actorID, id uint) error {
	s.lastActor = actorID
	s.lastDelete = id
	return s.deleteErr
}

func (s *stubUserService) UpdateAvatar(ctx context.Context, id uint, contentType string, content io.Reader) (*users.UserDTO, error) {
	return s.user, s.userErr
}

func (s *stubUserService) BulkCreate(ctx context.Context, inputs []users.CreateUserInput) *users.BulkResult {
	return s.bulkResult
}

func (s *stubUserService) BulkUpdate(ctx context.Context, items []users.BulkUpdateItem) *users.BulkResult {
	return s.bulkResult
}

func (s *stubUserService) BulkDelete(ctx context.Context, actorID uint, ids []uint) *users.BulkResult {
	s.lastActor = actorID
	return s.bulkResult
}

func TestAuthLoginSuccess(t *testing.T) {
	svc := &stubUserService{loginResult: &users.LoginResult{
		AccessToken: "access-token",
		User:        &users.UserDTO{ID: 1, Email: "admin@example.com"},
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"admin@example.com","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	AuthLogin(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			AccessToken string         `json:"accessToken"`
			User        *users.UserDTO `json:"user"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AccessToken != "access-token" {
		t.Fatalf("expected access token in payload got %q", envelope.Data.AccessToken)
	}
	if envelope.Data.User == nil || envelope.Data.User.Email != "admin@example.com" {
		t.Fatalf("expected user in payload got %+v", envelope.Data.User)
	}
}

func TestAuthLoginRejectsBadCredentials(t *testing.T) {
	svc := &stubUserService{loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"admin@example.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	AuthLogin(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAuthLoginRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	AuthLogin(&stubUserService{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
}

func TestAuthChangePasswordRequiresAuthenticatedUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/change_password", strings.NewReader(`{"oldPassword":"old","newPassword":"longer"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	AuthChangePassword(&stubUserService{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAuthChangePasswordValidatesBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/change_password", strings.NewReader(`{"oldPassword":"old","newPassword":"abc"}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), 5))
	rec := httptest.NewRecorder()

	AuthChangePassword(&stubUserService{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}

	var envelope struct {
		Error struct {
			Messages map[string][]string `json:"messages"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Error.Messages["newPassword"]) == 0 {
		t.Fatalf("expected field message for newPassword got %v", envelope.Error.Messages)
	}
}

func TestAuthChangePasswordSuccess(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/change_password", strings.NewReader(`{"oldPassword":"old-secret","newPassword":"new-secret"}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), 5))
	rec := httptest.NewRecorder()

	AuthChangePassword(&stubUserService{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}
