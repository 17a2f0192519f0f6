package service

import (
	"context"

	"vendapos/internal/dto"
	"vendapos/internal/model"
	"vendapos/internal/repository"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Authorizer verifies the credential of a manager or admin approving a
// sensitive action (sale cancellation, session close). On success it returns
// the approving user so the caller can record it as the authorizer.
type Authorizer interface {
	Authorize(ctx context.Context, auth dto.Authorization) (*model.User, error)
}

type authorizer struct {
	users repository.UserRepository
}

func NewAuthorizer(users repository.UserRepository) Authorizer {
	return &authorizer{users: users}
}

// dummyHash keeps the bcrypt cost constant when the username does not exist,
// so response timing does not leak which usernames are valid.
var dummyHash = []byte("$2a$12$R1yF9kZ0p8h5mXbGQe1u1eB0sQd3QxiJ4cV7nHq2sW6tYb8rA0KQe")

func (a *authorizer) Authorize(ctx context.Context, auth dto.Authorization) (*model.User, error) {
	u, err := a.users.FindByUsername(ctx, auth.Username)
	if err != nil {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(auth.Password))
		return nil, ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(auth.Password)); err != nil {
		log.Warn().Str("username", auth.Username).Msg("authorization rejected: bad credential")
		return nil, ErrUnauthorized
	}
	if !model.ElevatedRole(u.Role) {
		log.Warn().Str("username", auth.Username).Str("role", u.Role).Msg("authorization rejected: role not elevated")
		return nil, ErrUnauthorized
	}
	return u, nil
}
