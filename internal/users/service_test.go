package users

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	pkgAuth "github.com/flextech/employees-backend/pkg/auth"
	"github.com/flextech/employees-backend/pkg/config"
	"github.com/flextech/employees-backend/pkg/db/models"
	"github.com/flextech/employees-backend/pkg/enums"
	pkgerrors "github.com/flextech/employees-backend/pkg/errors"
	"github.com/flextech/employees-backend/pkg/logger"
	"github.com/flextech/employees-backend/pkg/pagination"
	"github.com/flextech/employees-backend/pkg/security"
)

type stubRepo struct {
	users     map[uint]*models.User
	nextID    uint
	createErr error
	saveErr   error
}

func newStubRepo(seed ...*models.User) *stubRepo {
	r := &stubRepo{users: map[uint]*models.User{}, nextID: 1}
	for _, u := range seed {
		if u.ID == 0 {
			u.ID = r.nextID
		}
		if u.ID >= r.nextID {
			r.nextID = u.ID + 1
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *stubRepo) Create(_ context.Context, user *models.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return nil
}

func (r *stubRepo) Save(_ context.Context, user *models.User) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.users[user.ID] = user
	return nil
}

func (r *stubRepo) Delete(_ context.Context, id uint) (bool, error) {
	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	return true, nil
}

func (r *stubRepo) FindByID(_ context.Context, id uint) (*models.User, error) {
	return r.users[id], nil
}

func (r *stubRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return nil, nil
}

func (r *stubRepo) FindByEmployeeCode(_ context.Context, code string) (*models.User, error) {
	for _, u := range r.users {
		if u.EmployeeCode != nil && *u.EmployeeCode == code {
			return u, nil
		}
	}
	return nil, nil
}

func (r *stubRepo) List(_ context.Context, _ ListQuery) ([]models.User, int64, error) {
	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r *stubRepo) UpdateAvatar(_ context.Context, id uint, path string) error {
	if u, ok := r.users[id]; ok {
		u.Avatar = &path
	}
	return nil
}

func (r *stubRepo) UpdatePassword(_ context.Context, id uint, hash string) error {
	if u, ok := r.users[id]; ok {
		u.PasswordHash = hash
	}
	return nil
}

type stubAvatars struct {
	saved   []string
	removed []string
}

func (a *stubAvatars) SaveAvatar(_ context.Context, contentType string, _ io.Reader) (string, error) {
	path := "/uploads/avatars/new-" + contentType
	a.saved = append(a.saved, path)
	return path, nil
}

func (a *stubAvatars) Remove(_ context.Context, publicPath string) error {
	a.removed = append(a.removed, publicPath)
	return nil
}

type stubMailer struct {
	sent []string
}

func (m *stubMailer) Send(to, _, _ string) error {
	m.sent = append(m.sent, to)
	return nil
}

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "employees-api",
	ExpirationMinutes: 30,
}

func buildTestService(t *testing.T, repo *stubRepo) (Service, *stubAvatars, *stubMailer) {
	t.Helper()
	avatars := &stubAvatars{}
	mail := &stubMailer{}
	svc, err := NewService(ServiceParams{
		Repo:           repo,
		Validator:      NewValidator(repo),
		Avatars:        avatars,
		Mail:           mail,
		Logger:         logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		JWTConfig:      testJWTConfig,
		PasswordConfig: config.PasswordConfig{BcryptCost: 10},
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, avatars, mail
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{BcryptCost: 10})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func strPtr(s string) *string { return &s }

func activeUser(id uint, email, password string, t *testing.T) *models.User {
	return &models.User{
		ID:           id,
		EmployeeCode: strPtr("E001"),
		FullName:     "Test User",
		Email:        email,
		PasswordHash: mustHashPassword(t, password),
		Status:       enums.UserStatusActive,
	}
}

func TestAuthenticateIssuesTokenWithRoleClaim(t *testing.T) {
	role := enums.UserRoleAdmin
	user := activeUser(7, "admin@example.com", "secret-pw", t)
	user.Role = &role
	svc, _, _ := buildTestService(t, newStubRepo(user))

	result, err := svc.Authenticate(context.Background(), LoginInput{
		Email:    "Admin@Example.com",
		Password: "secret-pw",
	})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if result.User == nil || result.User.ID != 7 {
		t.Fatalf("expected user 7 in result, got %+v", result.User)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, result.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != 7 || claims.Role != enums.UserRoleAdmin {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	user := activeUser(1, "a@example.com", "right-pw", t)
	inactive := activeUser(2, "b@example.com", "right-pw", t)
	inactive.Status = enums.UserStatusInactive
	inactive.EmployeeCode = strPtr("E002")
	svc, _, _ := buildTestService(t, newStubRepo(user, inactive))

	cases := []LoginInput{
		{Email: "a@example.com", Password: "wrong-pw"},
		{Email: "missing@example.com", Password: "right-pw"},
		{Email: "b@example.com", Password: "right-pw"},
		{Email: "", Password: ""},
	}
	for _, in := range cases {
		_, err := svc.Authenticate(context.Background(), in)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("expected unauthorized for %+v, got %v", in, err)
		}
	}
}

func TestCreateUserHashesPasswordAndSendsWelcomeMail(t *testing.T) {
	repo := newStubRepo()
	svc, _, mail := buildTestService(t, repo)

	dto, err := svc.CreateUser(context.Background(), CreateUserInput{
		EmployeeCode: strPtr("E100"),
		FullName:     "New Hire",
		Email:        "Hire@Example.com",
		Password:     "initial-pw",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Email != "hire@example.com" {
		t.Fatalf("expected lowercased email, got %q", dto.Email)
	}

	stored := repo.users[dto.ID]
	if stored.PasswordHash == "initial-pw" {
		t.Fatal("password stored in plain text")
	}
	ok, err := security.VerifyPassword("initial-pw", stored.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("expected stored hash to verify, ok=%v err=%v", ok, err)
	}

	if len(mail.sent) != 1 || mail.sent[0] != "hire@example.com" {
		t.Fatalf("expected welcome mail to hire@example.com, got %v", mail.sent)
	}
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	repo := newStubRepo(activeUser(1, "taken@example.com", "pw-123456", t))
	svc, _, _ := buildTestService(t, repo)

	_, err := svc.CreateUser(context.Background(), CreateUserInput{
		EmployeeCode: strPtr("E200"),
		FullName:     "Dup",
		Email:        "taken@example.com",
		Password:     "pw-123456",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if msgs := typed.FieldMessages()["email"]; len(msgs) == 0 {
		t.Fatalf("expected email field message, got %v", typed.FieldMessages())
	}
}

func TestCreateUserMapsUniqueIndexViolationToConflict(t *testing.T) {
	repo := newStubRepo()
	repo.createErr = errors.New(`ERROR: duplicate key value violates unique constraint "users_email_live_uq"`)
	svc, _, _ := buildTestService(t, repo)

	_, err := svc.CreateUser(context.Background(), CreateUserInput{
		EmployeeCode: strPtr("E300"),
		FullName:     "Race Loser",
		Email:        "race@example.com",
		Password:     "pw-123456",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if msgs := typed.FieldMessages()["email"]; len(msgs) == 0 {
		t.Fatalf("expected email field message, got %v", typed.FieldMessages())
	}
}

func TestChangePasswordRequiresCurrentPassword(t *testing.T) {
	repo := newStubRepo(activeUser(1, "a@example.com", "old-pw", t))
	svc, _, _ := buildTestService(t, repo)

	err := svc.ChangePassword(context.Background(), 1, "wrong-pw", "new-pw-123")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeFailedPrecond {
		t.Fatalf("expected failed precondition, got %v", err)
	}

	if err := svc.ChangePassword(context.Background(), 1, "old-pw", "new-pw-123"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	ok, _ := security.VerifyPassword("new-pw-123", repo.users[1].PasswordHash)
	if !ok {
		t.Fatal("expected new password to verify")
	}
}

func TestResetPasswordRotatesCredentialAndMails(t *testing.T) {
	repo := newStubRepo(activeUser(1, "a@example.com", "old-pw", t))
	svc, _, mail := buildTestService(t, repo)

	temp, err := svc.ResetPassword(context.Background(), 1)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(temp) != tempPasswordLength {
		t.Fatalf("expected %d char temp password, got %q", tempPasswordLength, temp)
	}
	ok, _ := security.VerifyPassword(temp, repo.users[1].PasswordHash)
	if !ok {
		t.Fatal("expected temp password to verify")
	}
	if len(mail.sent) != 1 {
		t.Fatalf("expected one reset mail, got %v", mail.sent)
	}
}

func TestDeleteUserGuardsSelf(t *testing.T) {
	repo := newStubRepo(activeUser(1, "a@example.com", "pw-123456", t))
	svc, _, _ := buildTestService(t, repo)

	err := svc.DeleteUser(context.Background(), 1, 1)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeFailedPrecond {
		t.Fatalf("expected failed precondition, got %v", err)
	}

	err = svc.DeleteUser(context.Background(), 2, 99)
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := svc.DeleteUser(context.Background(), 2, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestUpdateSelfCannotTouchRoleOrStatus(t *testing.T) {
	user := activeUser(1, "a@example.com", "pw-123456", t)
	repo := newStubRepo(user)
	svc, _, _ := buildTestService(t, repo)

	dto, err := svc.UpdateSelf(context.Background(), 1, SelfUpdateInput{
		FullName: strPtr("Renamed"),
	})
	if err != nil {
		t.Fatalf("update self: %v", err)
	}
	if dto.FullName != "Renamed" {
		t.Fatalf("expected renamed user, got %q", dto.FullName)
	}
	if repo.users[1].Role != nil || repo.users[1].Status != enums.UserStatusActive {
		t.Fatalf("role/status changed unexpectedly: %+v", repo.users[1])
	}
}

func TestUpdateUserAcceptsOwnEmployeeCode(t *testing.T) {
	user := activeUser(1, "a@example.com", "pw-123456", t)
	other := activeUser(2, "b@example.com", "pw-123456", t)
	other.EmployeeCode = strPtr("E002")
	repo := newStubRepo(user, other)
	svc, _, _ := buildTestService(t, repo)

	// resubmitting the record's own code is not a conflict
	if _, err := svc.UpdateUser(context.Background(), 1, AdminUpdateInput{
		EmployeeCode: strPtr("E001"),
	}); err != nil {
		t.Fatalf("update with own code: %v", err)
	}

	_, err := svc.UpdateUser(context.Background(), 1, AdminUpdateInput{
		EmployeeCode: strPtr("E002"),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for another user's code, got %v", err)
	}
	if msgs := typed.FieldMessages()["employeeCode"]; len(msgs) == 0 {
		t.Fatalf("expected employeeCode field message, got %v", typed.FieldMessages())
	}
}

func TestUpdateAvatarReplacesOldFile(t *testing.T) {
	user := activeUser(1, "a@example.com", "pw-123456", t)
	old := "/uploads/avatars/old.png"
	user.Avatar = &old
	repo := newStubRepo(user)
	svc, avatars, _ := buildTestService(t, repo)

	dto, err := svc.UpdateAvatar(context.Background(), 1, "image/png", strings.NewReader("img"))
	if err != nil {
		t.Fatalf("update avatar: %v", err)
	}
	if dto.Avatar == nil || *dto.Avatar == old {
		t.Fatalf("expected new avatar path, got %v", dto.Avatar)
	}
	if len(avatars.removed) != 1 || avatars.removed[0] != old {
		t.Fatalf("expected old avatar removed, got %v", avatars.removed)
	}
}

func TestBulkCreateReportsPerItemOutcomes(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := buildTestService(t, repo)

	result := svc.BulkCreate(context.Background(), []CreateUserInput{
		{EmployeeCode: strPtr("E1"), FullName: "Ok One", Email: "one@example.com", Password: "pw-123456"},
		{FullName: "Missing Fields"},
		{EmployeeCode: strPtr("E3"), FullName: "Ok Two", Email: "two@example.com", Password: "pw-123456"},
	})

	if result.Succeeded != 2 || result.Failed != 1 {
		t.Fatalf("unexpected totals %+v", result)
	}
	if len(result.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(result.Items))
	}
	if result.Items[1].Success || len(result.Items[1].Fields) == 0 {
		t.Fatalf("expected field messages on failed item, got %+v", result.Items[1])
	}
	if !result.Items[0].Success || !result.Items[2].Success {
		t.Fatalf("expected items 0 and 2 to succeed: %+v", result.Items)
	}
}

func TestBulkDeleteSkipsSelf(t *testing.T) {
	repo := newStubRepo(
		activeUser(1, "a@example.com", "pw-123456", t),
		activeUser(2, "b@example.com", "pw-123456", t),
	)
	svc, _, _ := buildTestService(t, repo)

	result := svc.BulkDelete(context.Background(), 1, []uint{1, 2})
	if result.Succeeded != 1 || result.Failed != 1 {
		t.Fatalf("unexpected totals %+v", result)
	}
	if result.Items[0].Success {
		t.Fatalf("expected self delete to fail: %+v", result.Items[0])
	}
	if _, ok := repo.users[2]; ok {
		t.Fatal("expected user 2 to be deleted")
	}
}

func TestListUsersReturnsMeta(t *testing.T) {
	repo := newStubRepo(
		activeUser(1, "a@example.com", "pw-123456", t),
		activeUser(2, "b@example.com", "pw-123456", t),
	)
	svc, _, _ := buildTestService(t, repo)

	list, meta, err := svc.ListUsers(context.Background(), ListQuery{
		Page: pagination.Params{Page: 1, Limit: 10},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || meta.Total != 2 || meta.Pages != 1 {
		t.Fatalf("unexpected list/meta: %d items, %+v", len(list), meta)
	}
}
