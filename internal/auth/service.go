package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const minPasswordLength = 6

var (
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", minPasswordLength)
)

// Authenticator is the backend's auth surface.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, email, password string) error
}

// Service runs the login and registration flows against an Authenticator and
// keeps the resulting credential in a Context.
type Service struct {
	backend Authenticator
	creds   *Context
	logger  *slog.Logger
}

func NewService(backend Authenticator, creds *Context, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: backend, creds: creds, logger: logger}
}

// Login stores the credential only when the backend accepts it.
func (s *Service) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}
	token, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := s.creds.Set(token); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	s.logger.Info("logged in", "email", email)
	return nil
}

// Register creates the account then signs in with the same credentials.
func (s *Service) Register(ctx context.Context, email, password, confirm string) error {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		return ErrEmailRequired
	case password != confirm:
		return ErrPasswordMismatch
	case len(password) < minPasswordLength:
		return ErrPasswordTooShort
	}
	if err := s.backend.Register(ctx, email, password); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return s.Login(ctx, email, password)
}

func (s *Service) Logout() error {
	return s.creds.Clear()
}

func (s *Service) Credentials() *Context {
	return s.creds
}
