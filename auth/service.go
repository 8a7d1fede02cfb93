// Package auth logs admins in, issues and verifies their bearer tokens, and holds the
// predicates that gate admin-only operations.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookstore/apperror"
	"bookstore/database"
	"bookstore/models"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

var errBadCredentials = &apperror.Error{Kind: apperror.ErrAuthInvalid, Message: "Invalid email or password"}

type Service struct {
	users   database.UserStore
	tokens  *Tokens
	revoked RevocationList
	log     *log.Entry
}

func NewService(users database.UserStore, tokens *Tokens, revoked RevocationList, logger *log.Entry) *Service {
	return &Service{users: users, tokens: tokens, revoked: revoked, log: logger}
}

// Login checks an admin's credentials and returns a signed token. Unknown emails, non-admin
// accounts and wrong passwords all fail the same way.
func (s *Service) Login(ctx context.Context, email, password string) (string, models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", models.User{}, apperror.Validation("Email and password are required")
	}

	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		s.log.WithField("email", email).Info("login for unknown admin")
		return "", models.User{}, errBadCredentials
	}
	if err != nil {
		return "", models.User{}, err
	}
	if u.Role != models.RoleAdmin {
		s.log.WithField("email", email).Info("login refused for non-admin account")
		return "", models.User{}, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		s.log.WithField("email", email).Info("login with wrong password")
		return "", models.User{}, errBadCredentials
	}

	token, _, err := s.tokens.Issue(u)
	if err != nil {
		return "", models.User{}, err
	}
	s.log.WithField("email", email).Info("admin logged in")
	return token, u, nil
}

// Authenticate verifies a bearer token and rejects revoked ones.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, apperror.ErrAuthRequired
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.RegisteredClaims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrPersistence, err)
	}
	if revoked {
		return nil, apperror.ErrAuthInvalid
	}
	return claims, nil
}

// Logout revokes the token behind claims until it expires.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil {
		return apperror.ErrAuthRequired
	}
	until := time.Now()
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	if err := s.revoked.Revoke(ctx, claims.RegisteredClaims.ID, until); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrPersistence, err)
	}
	s.log.WithField("email", claims.Email).Info("admin logged out")
	return nil
}

// CreateUser hashes the password and stores a new account.
func (s *Service) CreateUser(ctx context.Context, name, email, password, role string) (models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.User{}, apperror.Validation("Email and password are required")
	}
	if role == "" {
		role = models.RoleCustomer
	}
	hashed, err := HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	u := models.User{
		Name:      strings.TrimSpace(name),
		Email:     email,
		Password:  hashed,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Insert(ctx, &u); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return models.User{}, apperror.Validation("Email already registered")
		}
		return models.User{}, err
	}
	return u, nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}
