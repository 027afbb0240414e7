package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Apurer/aims-commerce/internal/domains/users/domain"
	"github.com/Apurer/aims-commerce/internal/domains/users/ports"
)

var (
	_ ports.Repository     = (*Repository)(nil)
	_ ports.RoleRepository = (*RoleRepository)(nil)
)

// Repository keeps users keyed by username.
type Repository struct {
	mu     sync.RWMutex
	users  map[string]*domain.User
	nextID int64
	now    func() time.Time
}

func NewRepository() *Repository {
	return &Repository{users: map[string]*domain.User{}, now: time.Now}
}

// WithClock overrides the timestamp source for deterministic tests.
func (r *Repository) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

func (r *Repository) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, existing := range r.users {
		if existing.ID == user.ID {
			continue
		}
		if name == user.Username || existing.Email == user.Email {
			return nil, ports.ErrDuplicateUser
		}
	}
	stored := user.Clone()
	if stored.ID == 0 {
		r.nextID++
		stored.ID = r.nextID
	} else if stored.ID > r.nextID {
		r.nextID = stored.ID
	}
	for name, existing := range r.users {
		if existing.ID == stored.ID {
			stored.Metadata.CreatedAt = existing.Metadata.CreatedAt
			delete(r.users, name)
		}
	}
	stored.Metadata.Touch(r.now())
	r.users[stored.Username] = stored
	return stored.Clone(), nil
}

func (r *Repository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[username]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return user.Clone(), nil
}

func (r *Repository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Email == email {
			return user.Clone(), nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *Repository) Delete(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[username]; !ok {
		return ports.ErrNotFound
	}
	delete(r.users, username)
	return nil
}

func (r *Repository) List(_ context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.User, 0, len(r.users))
	for _, user := range r.users {
		list = append(list, user.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// RoleRepository keeps roles keyed by normalized name.
type RoleRepository struct {
	mu     sync.RWMutex
	roles  map[string]domain.Role
	nextID int64
}

func NewRoleRepository() *RoleRepository {
	return &RoleRepository{roles: map[string]domain.Role{}}
}

func (r *RoleRepository) Save(_ context.Context, role *domain.Role) (*domain.Role, error) {
	if role == nil {
		return nil, errors.New("role is nil")
	}
	name := domain.NormalizeRole(role.Name)
	if name == "" {
		return nil, domain.ErrEmptyRole
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.roles[name]; ok {
		return &existing, nil
	}
	r.nextID++
	stored := domain.Role{ID: r.nextID, Name: name}
	stored.Metadata.Touch(time.Now())
	r.roles[name] = stored
	return &stored, nil
}

func (r *RoleRepository) GetByName(_ context.Context, name string) (*domain.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roles[domain.NormalizeRole(name)]
	if !ok {
		return nil, ports.ErrRoleNotFound
	}
	return &role, nil
}

func (r *RoleRepository) List(_ context.Context) ([]*domain.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Role, 0, len(r.roles))
	for _, role := range r.roles {
		role := role
		list = append(list, &role)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}
