package services

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/validator"
)

func newUserService(t *testing.T, repo *memoryRepository) UserService {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewUserService(repo, nil, testLogger(), validator.New(), client, 0)
}

func registerRequest() *RegisterRequest {
	return &RegisterRequest{
		FullName: "Aziza Karimova",
		Email:    "aziza@example.uz",
		Password: "juda-maxfiy-parol",
	}
}

func TestRegister_AuthenticateRoundTrip(t *testing.T) {
	repo := newMemoryRepository()
	svc := newUserService(t, repo)
	ctx := context.Background()

	auth, err := svc.Register(ctx, registerRequest())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if auth.Token == "" {
		t.Fatal("expected a token")
	}
	if auth.User.Role != models.RoleStudent {
		t.Errorf("role = %s, want student", auth.User.Role)
	}
	if auth.User.MaxTestAttempts != 1 {
		t.Errorf("MaxTestAttempts = %d, want 1", auth.User.MaxTestAttempts)
	}
	if auth.User.PasswordHash == "juda-maxfiy-parol" {
		t.Error("password stored in clear")
	}

	user, err := svc.Authenticate(ctx, auth.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.ID != auth.User.ID {
		t.Errorf("authenticated user %s, want %s", user.ID, auth.User.ID)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newUserService(t, newMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerRequest()); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := svc.Register(ctx, registerRequest()); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegister_RejectsInvalidRequest(t *testing.T) {
	svc := newUserService(t, newMemoryRepository())

	req := registerRequest()
	req.Password = "short"
	_, err := svc.Register(context.Background(), req)

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	repo := newMemoryRepository()
	svc := newUserService(t, repo)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerRequest())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	t.Run("valid credentials", func(t *testing.T) {
		auth, err := svc.Login(ctx, &LoginRequest{Email: "aziza@example.uz", Password: "juda-maxfiy-parol"})
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if auth.User.ID != registered.User.ID {
			t.Errorf("logged in as %s, want %s", auth.User.ID, registered.User.ID)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, &LoginRequest{Email: "aziza@example.uz", Password: "notogri-parol"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, &LoginRequest{Email: "yoq@example.uz", Password: "juda-maxfiy-parol"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("blocked account", func(t *testing.T) {
		registered.User.IsBlocked = true
		defer func() { registered.User.IsBlocked = false }()

		_, err := svc.Login(ctx, &LoginRequest{Email: "aziza@example.uz", Password: "juda-maxfiy-parol"})
		if !errors.Is(err, ErrUserBlocked) {
			t.Errorf("expected ErrUserBlocked, got %v", err)
		}
	})
}

func TestLogout_InvalidatesToken(t *testing.T) {
	svc := newUserService(t, newMemoryRepository())
	ctx := context.Background()

	auth, err := svc.Register(ctx, registerRequest())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.Logout(ctx, auth.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Authenticate(ctx, auth.Token); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials after logout, got %v", err)
	}
}

func TestAuthenticate_BlockedAccount(t *testing.T) {
	repo := newMemoryRepository()
	svc := newUserService(t, repo)
	ctx := context.Background()

	auth, err := svc.Register(ctx, registerRequest())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	auth.User.IsBlocked = true
	if _, err := svc.Authenticate(ctx, auth.Token); !errors.Is(err, ErrUserBlocked) {
		t.Fatalf("expected ErrUserBlocked, got %v", err)
	}
}

func TestUpdateProfile_RejectsAdminOnlyFields(t *testing.T) {
	repo := newMemoryRepository()
	seedStudent(repo, "u1")
	svc := newUserService(t, repo)

	blocked := true
	_, err := svc.UpdateProfile(context.Background(), "u1", &UpdateUserRequest{IsBlocked: &blocked})

	var pErr *PermissionError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
}

func TestGrantDirection(t *testing.T) {
	repo := newMemoryRepository()
	user := seedStudent(repo, "u1")
	seedDirection(repo, "d1", false)
	svc := newUserService(t, repo)
	ctx := context.Background()

	if err := svc.GrantDirection(ctx, "u1", "d1", 5, "admin-1"); err != nil {
		t.Fatalf("GrantDirection: %v", err)
	}
	if !user.HasDirection("d1") {
		t.Error("direction not granted")
	}
	if user.MaxTestAttempts != 6 {
		t.Errorf("MaxTestAttempts = %d, want 6", user.MaxTestAttempts)
	}

	// Granting again must not duplicate the direction.
	if err := svc.GrantDirection(ctx, "u1", "d1", 0, "admin-1"); err != nil {
		t.Fatalf("second GrantDirection: %v", err)
	}
	if len(user.AllowedDirections) != 1 {
		t.Errorf("AllowedDirections = %v, want one entry", user.AllowedDirections)
	}

	if err := svc.GrantDirection(ctx, "u1", "missing", 0, "admin-1"); !errors.Is(err, ErrDirectionNotFound) {
		t.Errorf("expected ErrDirectionNotFound, got %v", err)
	}
}

func TestSetBlocked_Idempotent(t *testing.T) {
	repo := newMemoryRepository()
	user := seedStudent(repo, "u1")
	svc := newUserService(t, repo)
	ctx := context.Background()

	if err := svc.SetBlocked(ctx, "u1", true, "admin-1"); err != nil {
		t.Fatalf("SetBlocked: %v", err)
	}
	if !user.IsBlocked {
		t.Fatal("user not blocked")
	}
	if err := svc.SetBlocked(ctx, "u1", true, "admin-1"); err != nil {
		t.Fatalf("repeated SetBlocked: %v", err)
	}
	if err := svc.SetBlocked(ctx, "missing", true, "admin-1"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
