package domain

import (
	"errors"
	"net/mail"
	"slices"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Apurer/aims-commerce/internal/shared/projection"
)

var (
	ErrEmptyUsername = errors.New("username is required")
	ErrEmptyPassword = errors.New("password is required")
	ErrInvalidEmail  = errors.New("email is not valid")
	ErrWeakPassword  = errors.New("password must be at least 6 characters")
)

const minPasswordLength = 6

// User is a storefront or back office account. Password is only ever held as a bcrypt hash.
type User struct {
	ID           int64
	Username     string
	Name         string
	Email        string
	PasswordHash string
	Roles        []string
	Metadata     projection.Metadata
}

// NewUser builds a user ensuring required invariants.
func NewUser(username, name, email string) (*User, error) {
	user := &User{Name: strings.TrimSpace(name)}
	if err := user.SetUsername(username); err != nil {
		return nil, err
	}
	if err := user.SetEmail(email); err != nil {
		return nil, err
	}
	return user, nil
}

// SetUsername trims and validates the username.
func (u *User) SetUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrEmptyUsername
	}
	u.Username = username
	return nil
}

func (u *User) SetEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	u.Email = strings.ToLower(email)
	return nil
}

// SetPassword hashes the password with the given bcrypt cost.
func (u *User) SetPassword(password string, cost int) error {
	if strings.TrimSpace(password) == "" {
		return ErrEmptyPassword
	}
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares the stored hash with the supplied credentials.
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, NormalizeRole(role))
}

// Validate re-applies core invariants for persistence.
func (u *User) Validate() error {
	if err := u.SetUsername(u.Username); err != nil {
		return err
	}
	if err := u.SetEmail(u.Email); err != nil {
		return err
	}
	if u.PasswordHash == "" {
		return ErrEmptyPassword
	}
	return nil
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Roles = slices.Clone(u.Roles)
	return &clone
}
