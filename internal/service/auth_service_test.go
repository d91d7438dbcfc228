package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/repository/memory"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func newTestAuthService() AuthService {
	return NewAuthService(memory.New().Users(), testSecret, time.Hour, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ana Tutor", "  Ana@Example.com ", "supersecret", domain.RoleTutor)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "ana@example.com" || user.PasswordHash != "" || user.ID.IsZero() {
		t.Fatalf("unexpected registered user: %+v", user)
	}

	token, loggedIn, err := svc.Login(ctx, "ANA@example.com", "supersecret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if loggedIn.ID != user.ID || loggedIn.PasswordHash != "" {
		t.Fatalf("unexpected login user: %+v", loggedIn)
	}

	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token did not verify: %v", err)
	}
	if claims.UserID != user.ID.Hex() || claims.Role != domain.RoleTutor || claims.Issuer != "jumpingkids" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ana", "ana@example.com", "supersecret", domain.RoleTutor); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "Ana again", "ANA@example.com", "supersecret", domain.RoleKid); !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("duplicate Register error = %v, want ErrUserAlreadyExists", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestAuthService()

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		role     domain.Role
		field    string
	}{
		{name: "empty name", userName: "", email: "a@b.co", password: "supersecret", role: domain.RoleTutor, field: "name"},
		{name: "bad email", userName: "Ana", email: "not-an-email", password: "supersecret", role: domain.RoleTutor, field: "email"},
		{name: "short password", userName: "Ana", email: "a@b.co", password: "short", role: domain.RoleTutor, field: "password"},
		{name: "unknown role", userName: "Ana", email: "a@b.co", password: "supersecret", role: "admin", field: "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.userName, tt.email, tt.password, tt.role)
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Fatalf("Register error = %v, want ValidationError on %s", err, tt.field)
			}
		})
	}
}

func TestLoginFailures(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, "Ana", "ana@example.com", "supersecret", domain.RoleTutor); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong password", email: "ana@example.com", password: "nope-nope"},
		{name: "unknown email", email: "bob@example.com", password: "supersecret"},
		{name: "empty password", email: "ana@example.com", password: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := svc.Login(ctx, tt.email, tt.password); !errors.Is(err, ErrAuthenticationFailed) {
				t.Fatalf("Login error = %v, want ErrAuthenticationFailed", err)
			}
		})
	}
}
