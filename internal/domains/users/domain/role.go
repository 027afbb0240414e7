package domain

import (
	"errors"
	"strings"

	"github.com/Apurer/aims-commerce/internal/shared/projection"
)

var ErrEmptyRole = errors.New("role name is required")

const (
	RoleCustomer       = "CUSTOMER"
	RoleAdmin          = "ADMIN"
	RoleProductManager = "PRODUCT_MANAGER"
)

// DefaultRole is granted when a registration names no roles.
const DefaultRole = RoleCustomer

type Role struct {
	ID       int64
	Name     string
	Metadata projection.Metadata
}

// NormalizeRole upper-cases the name and drops a Spring style ROLE_ prefix.
func NormalizeRole(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	return strings.TrimPrefix(name, "ROLE_")
}

func NewRole(name string) (*Role, error) {
	name = NormalizeRole(name)
	if name == "" {
		return nil, ErrEmptyRole
	}
	return &Role{Name: name}, nil
}
