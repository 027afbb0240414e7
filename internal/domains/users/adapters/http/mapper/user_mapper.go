package mapper

import (
	"strings"
	"time"

	"github.com/samber/lo"

	userdomain "github.com/Apurer/aims-commerce/internal/domains/users/domain"
	userports "github.com/Apurer/aims-commerce/internal/domains/users/ports"
)

type RegisterRequest struct {
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles,omitempty"`
}

// LoginRequest accepts either the username or the email as the login name.
type LoginRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// Login returns the name the customer signs in with.
func (r LoginRequest) Login() string {
	if strings.TrimSpace(r.Username) != "" {
		return r.Username
	}
	return r.Email
}

type RoleRequest struct {
	Name string `json:"name"`
}

// User is the transport form of an account; the password hash never leaves the service.
type User struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

func ToRegisterInput(req RegisterRequest) userports.RegisterInput {
	return userports.RegisterInput{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Roles:    req.Roles,
	}
}

// FromDomainUser converts a domain user into a transport representation.
func FromDomainUser(user *userdomain.User) User {
	if user == nil {
		return User{}
	}
	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	return User{
		ID:       user.ID,
		Username: user.Username,
		Name:     user.Name,
		Email:    user.Email,
		Roles:    roles,
	}
}

func FromDomainUsers(users []*userdomain.User) []User {
	return lo.Map(users, func(u *userdomain.User, _ int) User { return FromDomainUser(u) })
}

func FromDomainRole(role *userdomain.Role) Role {
	if role == nil {
		return Role{}
	}
	return Role{ID: role.ID, Name: role.Name}
}

func FromDomainRoles(roles []*userdomain.Role) []Role {
	return lo.Map(roles, func(r *userdomain.Role, _ int) Role { return FromDomainRole(r) })
}

func FromLoginResult(result *userports.LoginResult) TokenResponse {
	if result == nil {
		return TokenResponse{}
	}
	return TokenResponse{Token: result.Token, ExpiresAt: result.ExpiresAt, User: FromDomainUser(result.User)}
}
