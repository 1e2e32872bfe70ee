package auth

import (
	"context"
	"errors"
	"testing"
)

type fakeBackend struct {
	token       string
	loginErr    error
	registerErr error
	registered  []string
	logins      int
}

func (b *fakeBackend) Login(_ context.Context, email, _ string) (string, error) {
	b.logins++
	if b.loginErr != nil {
		return "", b.loginErr
	}
	return b.token, nil
}

func (b *fakeBackend) Register(_ context.Context, email, _ string) error {
	if b.registerErr != nil {
		return b.registerErr
	}
	b.registered = append(b.registered, email)
	return nil
}

func TestLoginStoresCredentialOnSuccess(t *testing.T) {
	backend := &fakeBackend{token: "tok-1"}
	svc := NewService(backend, NewContext(nil), nil)

	if err := svc.Login(context.Background(), "ada@example.org", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if svc.Credentials().Token() != "tok-1" {
		t.Fatalf("expected stored token")
	}
	if err := svc.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if svc.Credentials().Token() != "" {
		t.Fatalf("expected token cleared")
	}
}

func TestLoginFailureLeavesNoCredential(t *testing.T) {
	backend := &fakeBackend{loginErr: errors.New("Incorrect email or password")}
	svc := NewService(backend, NewContext(nil), nil)

	if err := svc.Login(context.Background(), "ada@example.org", "nope"); err == nil {
		t.Fatalf("expected login error")
	}
	if svc.Credentials().Token() != "" {
		t.Fatalf("failed login must not store a credential")
	}
}

func TestRegisterValidatesLocally(t *testing.T) {
	backend := &fakeBackend{token: "tok-1"}
	svc := NewService(backend, NewContext(nil), nil)
	ctx := context.Background()

	if err := svc.Register(ctx, "", "secret1", "secret1"); !errors.Is(err, ErrEmailRequired) {
		t.Fatalf("expected ErrEmailRequired, got %v", err)
	}
	if err := svc.Register(ctx, "ada@example.org", "secret1", "secret2"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
	if err := svc.Register(ctx, "ada@example.org", "abc", "abc"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if len(backend.registered) != 0 {
		t.Fatalf("validation failures must not reach the backend")
	}
}

func TestRegisterLogsIn(t *testing.T) {
	backend := &fakeBackend{token: "tok-2"}
	svc := NewService(backend, NewContext(nil), nil)

	if err := svc.Register(context.Background(), "ada@example.org", "secret1", "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if backend.logins != 1 || svc.Credentials().Token() != "tok-2" {
		t.Fatalf("expected chained login, logins=%d token=%q", backend.logins, svc.Credentials().Token())
	}
}

func TestRegisterFailureSkipsLogin(t *testing.T) {
	backend := &fakeBackend{registerErr: errors.New("Email already registered")}
	svc := NewService(backend, NewContext(nil), nil)

	if err := svc.Register(context.Background(), "ada@example.org", "secret1", "secret1"); err == nil {
		t.Fatalf("expected register error")
	}
	if backend.logins != 0 || svc.Credentials().Token() != "" {
		t.Fatalf("failed registration must not log in")
	}
}
