package auth

import (
	"context"
	"testing"
	"time"

	pkgAuth "github.com/AymenMB/autogen-backend/pkg/auth"
	"github.com/AymenMB/autogen-backend/pkg/config"
	"github.com/AymenMB/autogen-backend/pkg/db/models"
	pkgerrors "github.com/AymenMB/autogen-backend/pkg/errors"
	"github.com/AymenMB/autogen-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestServiceLoginIssuesTokens(t *testing.T) {
	password := "correct horse battery"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "driver@example.com",
		PasswordHash: mustHashPassword(t, password),
		IsActive:     true,
	}
	profile := &models.Profile{ID: user.ID, Username: "nightdriver"}
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "autogen",
		ExpirationMinutes: 30,
	}

	svc, sessionMgr := buildTestService(t, user, profile, cfg)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Driver@Example.com",
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id %s, got %s", user.ID, claims.UserID)
	}
	if claims.Username != "nightdriver" {
		t.Fatalf("expected username claim, got %q", claims.Username)
	}
	if resp.RefreshToken != "refresh-token" {
		t.Fatalf("expected refresh token from session manager")
	}
	if sessionMgr.generated != claims.ID {
		t.Fatalf("refresh session must be keyed by the jti")
	}
	if resp.Profile == nil || resp.Profile.Username != "nightdriver" {
		t.Fatalf("expected profile in response, got %+v", resp.Profile)
	}
	if resp.User == nil || resp.User.LastLoginAt == nil {
		t.Fatalf("expected last login recorded")
	}
}

func TestServiceLoginWrongPassword(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "driver@example.com",
		PasswordHash: mustHashPassword(t, "right"),
		IsActive:     true,
	}
	profile := &models.Profile{ID: user.ID, Username: "nightdriver"}
	svc, _ := buildTestService(t, user, profile, config.JWTConfig{Secret: "secret", Issuer: "autogen", ExpirationMinutes: 30})

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "wrong"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceLoginInactiveUser(t *testing.T) {
	password := "secret-pass"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "gone@example.com",
		PasswordHash: mustHashPassword(t, password),
		IsActive:     false,
	}
	profile := &models.Profile{ID: user.ID, Username: "gone"}
	svc, _ := buildTestService(t, user, profile, config.JWTConfig{Secret: "secret", Issuer: "autogen", ExpirationMinutes: 30})

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for inactive user, got %v", err)
	}
}

func TestServiceLoginUnknownEmail(t *testing.T) {
	svc, _ := buildTestService(t, nil, nil, config.JWTConfig{Secret: "secret", Issuer: "autogen", ExpirationMinutes: 30})

	_, err := svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}
}

func TestServiceChangePassword(t *testing.T) {
	current := "old-password"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "driver@example.com",
		PasswordHash: mustHashPassword(t, current),
		IsActive:     true,
	}
	profile := &models.Profile{ID: user.ID, Username: "nightdriver"}
	svc, _ := buildTestService(t, user, profile, config.JWTConfig{Secret: "secret", Issuer: "autogen", ExpirationMinutes: 30})

	err := svc.ChangePassword(context.Background(), user.ID, ChangePasswordRequest{
		CurrentPassword: current,
		NewPassword:     "brand-new-password",
	})
	if err != nil {
		t.Fatalf("change password: %v", err)
	}

	err = svc.ChangePassword(context.Background(), user.ID, ChangePasswordRequest{
		CurrentPassword: "not-the-password",
		NewPassword:     "whatever-else",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for wrong current password, got %v", err)
	}
}

func buildTestService(t *testing.T, user *models.User, profile *models.Profile, jwtCfg config.JWTConfig) (Service, *stubSessionManager) {
	t.Helper()
	sessionMgr := &stubSessionManager{refreshToken: "refresh-token"}
	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{user: user},
		ProfileRepo:    stubProfileRepo{profile: profile},
		SessionManager: sessionMgr,
		JWTConfig:      jwtCfg,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, sessionMgr
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user *models.User
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

func (s *stubUserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	s.user.PasswordHash = hash
	return nil
}

type stubProfileRepo struct {
	profile *models.Profile
}

func (s stubProfileRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if s.profile == nil || s.profile.ID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.profile, nil
}

type stubSessionManager struct {
	refreshToken string
	generated    string
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	s.generated = accessID
	return s.refreshToken, nil
}
