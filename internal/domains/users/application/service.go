package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Apurer/aims-commerce/internal/domains/users/domain"
	"github.com/Apurer/aims-commerce/internal/domains/users/ports"
)

// DefaultSessionTTL provides the fallback TTL when none is configured.
const DefaultSessionTTL = 24 * time.Hour

// Service exposes user bounded context use cases.
type Service struct {
	repo       ports.Repository
	roles      ports.RoleRepository
	sessions   ports.SessionStore
	now        func() time.Time
	sessionTTL time.Duration
	cost       int
	newToken   func() string
}

type Option func(*Service)

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithPasswordCost sets the bcrypt cost; tests use bcrypt.MinCost.
func WithPasswordCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

func NewService(repo ports.Repository, roles ports.RoleRepository, sessions ports.SessionStore, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		roles:      roles,
		sessions:   sessions,
		now:        time.Now,
		sessionTTL: DefaultSessionTTL,
		cost:       bcrypt.DefaultCost,
		newToken:   uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Register creates an account. Without explicit roles the user gets DefaultRole, which is
// created on first use; explicit roles must already exist.
func (s *Service) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	user, err := domain.NewUser(input.Username, input.Name, input.Email)
	if err != nil {
		return nil, mapError(err)
	}
	if err := user.SetPassword(input.Password, s.cost); err != nil {
		return nil, mapError(err)
	}
	if err := s.ensureUnique(ctx, user); err != nil {
		return nil, mapError(err)
	}
	roles, err := s.resolveRoles(ctx, input.Roles)
	if err != nil {
		return nil, mapError(err)
	}
	user.Roles = roles
	saved, err := s.repo.Save(ctx, user)
	return saved, mapError(err)
}

func (s *Service) ensureUnique(ctx context.Context, user *domain.User) error {
	if _, err := s.repo.GetByUsername(ctx, user.Username); err == nil {
		return ports.ErrDuplicateUser
	} else if !errors.Is(err, ports.ErrNotFound) {
		return err
	}
	if _, err := s.repo.GetByEmail(ctx, user.Email); err == nil {
		return ports.ErrDuplicateUser
	} else if !errors.Is(err, ports.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) resolveRoles(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		role, err := s.roles.Save(ctx, &domain.Role{Name: domain.DefaultRole})
		if err != nil {
			return nil, err
		}
		return []string{role.Name}, nil
	}
	resolved := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		role, err := s.roles.GetByName(ctx, domain.NormalizeRole(name))
		if err != nil {
			if errors.Is(err, ports.ErrRoleNotFound) {
				return nil, fmt.Errorf("%w: %s", ports.ErrRoleNotFound, name)
			}
			return nil, err
		}
		if _, dup := seen[role.Name]; dup {
			continue
		}
		seen[role.Name] = struct{}{}
		resolved = append(resolved, role.Name)
	}
	return resolved, nil
}

// Login accepts either the username or the email and issues a session token.
func (s *Service) Login(ctx context.Context, login, password string) (*ports.LoginResult, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, mapError(ports.ErrInvalidCredentials)
	}
	user, err := s.lookup(ctx, login)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, mapError(ports.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, mapError(ports.ErrInvalidCredentials)
	}
	now := s.now()
	session := domain.Session{
		Token:     s.newToken(),
		Username:  user.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return &ports.LoginResult{Token: session.Token, ExpiresAt: session.ExpiresAt, User: user}, nil
}

func (s *Service) lookup(ctx context.Context, login string) (*domain.User, error) {
	user, err := s.repo.GetByUsername(ctx, login)
	if errors.Is(err, ports.ErrNotFound) && strings.Contains(login, "@") {
		return s.repo.GetByEmail(ctx, strings.ToLower(login))
	}
	return user, err
}

// Authenticate resolves a bearer token; expired sessions are dropped on sight.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, mapError(ports.ErrSessionNotFound)
	}
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, mapError(err)
	}
	if session.Expired(s.now()) {
		_ = s.sessions.Delete(ctx, token)
		return nil, mapError(ports.ErrSessionNotFound)
	}
	user, err := s.repo.GetByUsername(ctx, session.Username)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, mapError(ports.ErrSessionNotFound)
	}
	return user, err
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	err := s.sessions.Delete(ctx, token)
	if errors.Is(err, ports.ErrSessionNotFound) {
		return nil
	}
	return err
}

func (s *Service) GetUser(ctx context.Context, username string) (*domain.User, error) {
	return s.repo.GetByUsername(ctx, strings.TrimSpace(username))
}

func (s *Service) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

// DeleteUser removes the account and every session it holds.
func (s *Service) DeleteUser(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if err := s.repo.Delete(ctx, username); err != nil {
		return err
	}
	return s.sessions.DeleteByUsername(ctx, username)
}

// CreateRole returns the existing role when the name is already taken.
func (s *Service) CreateRole(ctx context.Context, name string) (*domain.Role, error) {
	role, err := domain.NewRole(name)
	if err != nil {
		return nil, mapError(err)
	}
	return s.roles.Save(ctx, role)
}

func (s *Service) ListRoles(ctx context.Context) ([]*domain.Role, error) {
	return s.roles.List(ctx)
}

func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.PurgeExpired(ctx)
}

var _ ports.Service = (*Service)(nil)
