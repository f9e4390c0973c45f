package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"propertyhub/internal/identity"
	"propertyhub/internal/models"
	"propertyhub/internal/repository"
)

type AuthService struct {
	provider identity.Provider
	users    *repository.UserRepository
	orgs     *repository.OrganizationRepository
	log      zerolog.Logger
}

func NewAuthService(provider identity.Provider, users *repository.UserRepository, orgs *repository.OrganizationRepository, log zerolog.Logger) *AuthService {
	return &AuthService{
		provider: provider,
		users:    users,
		orgs:     orgs,
		log:      log,
	}
}

type LoginResult struct {
	Session identity.Session
	User    models.User
}

// Login checks the credentials with the identity provider and resolves the
// local user the identity belongs to.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	session, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}

	user, err := s.users.FindByEmail(ctx, session.Identity.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, ErrForbidden
		}
		return LoginResult{}, err
	}

	return LoginResult{Session: session, User: user}, nil
}

type CreateUserInput struct {
	Email          string
	Name           string
	Phone          *string
	Role           models.UserRole
	OrganizationID *string
	// Password, when set, also creates the login identity.
	Password *string
}

func (s *AuthService) CreateUser(ctx context.Context, input CreateUserInput) (models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return models.User{}, conflict("A user with this email already exists.")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return models.User{}, err
	}

	if err := s.checkOrganization(ctx, input.OrganizationID); err != nil {
		return models.User{}, err
	}

	// No user holds this email, so a credential still registered under it
	// belongs to a deleted account.
	if err := s.provider.Remove(ctx, email); err != nil {
		return models.User{}, fmt.Errorf("clear stale identity: %w", err)
	}

	user := models.User{
		Email:          email,
		Name:           strings.TrimSpace(input.Name),
		Phone:          input.Phone,
		Role:           input.Role,
		OrganizationID: input.OrganizationID,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.User{}, conflict("A user with this email already exists.")
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	if input.Password != nil && *input.Password != "" {
		if _, err := s.provider.SignUp(ctx, email, *input.Password); err != nil {
			if delErr := s.users.DeleteGuarded(ctx, user.ID); delErr != nil {
				s.log.Error().Err(delErr).Str("user_id", user.ID).Msg("roll back user without identity")
			}
			if errors.Is(err, identity.ErrEmailTaken) {
				return models.User{}, conflict("A user with this email already exists.")
			}
			return models.User{}, fmt.Errorf("create identity: %w", err)
		}
	}

	return s.users.GetByID(ctx, user.ID)
}

// UpdateUser overwrites the given user columns after checking the organization
// link. An email change moves the login credential along with the row.
func (s *AuthService) UpdateUser(ctx context.Context, id string, fields map[string]any) (models.User, error) {
	if orgID, ok := fields["organization_id"].(*string); ok {
		if err := s.checkOrganization(ctx, orgID); err != nil {
			return models.User{}, err
		}
	}

	current, err := s.users.GetByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	newEmail, renaming := fields["email"].(string)
	newEmail = strings.ToLower(strings.TrimSpace(newEmail))
	renaming = renaming && newEmail != current.Email
	if renaming {
		if _, err := s.users.FindByEmail(ctx, newEmail); err == nil {
			return models.User{}, conflict("A user with this email already exists.")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return models.User{}, err
		}
		if err := s.provider.Remove(ctx, newEmail); err != nil {
			return models.User{}, fmt.Errorf("clear stale identity: %w", err)
		}
	}

	user, err := s.users.Update(ctx, id, fields)
	if errors.Is(err, repository.ErrDuplicate) {
		return models.User{}, conflict("A user with this email already exists.")
	}
	if err != nil || !renaming {
		return user, err
	}

	if err := s.provider.Rename(ctx, current.Email, newEmail); err != nil {
		if _, revertErr := s.users.Update(ctx, id, map[string]any{"email": current.Email}); revertErr != nil {
			s.log.Error().Err(revertErr).Str("user_id", id).Msg("revert email after failed identity rename")
		}
		if errors.Is(err, identity.ErrEmailTaken) {
			return models.User{}, conflict("A user with this email already exists.")
		}
		return models.User{}, fmt.Errorf("rename identity: %w", err)
	}
	return user, nil
}

func (s *AuthService) DeleteUser(ctx context.Context, actor models.User, id string) error {
	if actor.ID == id {
		return rule("You cannot delete your own account.")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.users.DeleteGuarded(ctx, id)
	switch {
	case errors.Is(err, repository.ErrUserHasContracts):
		return rule("Cannot delete user referenced by rental contracts.")
	case errors.Is(err, repository.ErrUserHasEvents):
		return rule("Cannot delete user referenced by events.")
	case err != nil:
		return err
	}

	// A leftover credential cannot sign in without its user row and is
	// cleared again before the email is reused.
	if err := s.provider.Remove(ctx, user.Email); err != nil {
		s.log.Error().Err(err).Str("user_id", id).Msg("remove identity of deleted user")
	}
	return nil
}

func (s *AuthService) checkOrganization(ctx context.Context, id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	if _, err := s.orgs.GetByID(ctx, *id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return rule("Organization not found.")
		}
		return err
	}
	return nil
}
