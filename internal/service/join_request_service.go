package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"propertyhub/internal/identity"
	"propertyhub/internal/models"
	"propertyhub/internal/queue"
	"propertyhub/internal/repository"
	"propertyhub/internal/security"
)

var (
	ErrNotApproved = errors.New("join request is not approved")
	// ErrEmailInUse means another account took the email after the request was submitted.
	ErrEmailInUse = errors.New("email belongs to another account")
)

type JoinRequestService struct {
	requests *repository.JoinRequestRepository
	users    *repository.UserRepository
	orgs     *repository.OrganizationRepository
	provider identity.Provider
	jobs     queue.Publisher
	log      zerolog.Logger
}

func NewJoinRequestService(
	requests *repository.JoinRequestRepository,
	users *repository.UserRepository,
	orgs *repository.OrganizationRepository,
	provider identity.Provider,
	jobs queue.Publisher,
	log zerolog.Logger,
) *JoinRequestService {
	return &JoinRequestService{
		requests: requests,
		users:    users,
		orgs:     orgs,
		provider: provider,
		jobs:     jobs,
		log:      log,
	}
}

type SubmitJoinRequestInput struct {
	Email            string
	Name             string
	Phone            *string
	RequestedRole    models.UserRole
	OrganizationName *string
	Message          *string
	Password         string
}

func (s *JoinRequestService) Submit(ctx context.Context, input SubmitJoinRequestInput) (models.JoinRequest, error) {
	if input.RequestedRole == models.UserRoleAdmin {
		return models.JoinRequest{}, rule("The ADMIN role cannot be requested.")
	}

	if input.OrganizationName != nil && strings.TrimSpace(*input.OrganizationName) != "" && Slugify(*input.OrganizationName) == "" {
		return models.JoinRequest{}, rule("Organization name must contain a letter or digit.")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return models.JoinRequest{}, conflict("An account with this email already exists.")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return models.JoinRequest{}, err
	}

	pending, err := s.requests.HasPending(ctx, email)
	if err != nil {
		return models.JoinRequest{}, err
	}
	if pending {
		return models.JoinRequest{}, conflict("A join request for this email is already pending.")
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.JoinRequest{}, err
	}

	request := models.JoinRequest{
		Email:            email,
		Name:             strings.TrimSpace(input.Name),
		Phone:            input.Phone,
		RequestedRole:    input.RequestedRole,
		OrganizationName: input.OrganizationName,
		Message:          input.Message,
		PasswordHash:     hash,
		Status:           models.JoinRequestStatusPending,
	}
	if err := s.requests.Create(ctx, &request); err != nil {
		return models.JoinRequest{}, fmt.Errorf("create join request: %w", err)
	}
	return request, nil
}

// Approve records the decision and queues provisioning. Approving an already
// approved request that has no user yet queues provisioning again.
func (s *JoinRequestService) Approve(ctx context.Context, reviewer models.User, id string) (models.JoinRequest, error) {
	request, err := s.requests.Review(ctx, id, models.JoinRequestStatusApproved, reviewer.ID, nil)
	if errors.Is(err, repository.ErrAlreadyReviewed) {
		current, getErr := s.requests.GetByID(ctx, id)
		if getErr != nil {
			return models.JoinRequest{}, getErr
		}
		if current.Status != models.JoinRequestStatusApproved || current.UserID != nil {
			return models.JoinRequest{}, conflict("Join request has already been reviewed.")
		}
		request, err = current, nil
	}
	if err != nil {
		return models.JoinRequest{}, err
	}

	if err := s.jobs.Publish(ctx, queue.Job{Type: queue.JobJoinRequestApproved, ID: request.ID}); err != nil {
		return models.JoinRequest{}, fmt.Errorf("queue provisioning: %w", err)
	}
	s.log.Info().Str("join_request_id", request.ID).Str("reviewer_id", reviewer.ID).Msg("join request approved")
	return request, nil
}

func (s *JoinRequestService) Reject(ctx context.Context, reviewer models.User, id string, reason *string) (models.JoinRequest, error) {
	request, err := s.requests.Review(ctx, id, models.JoinRequestStatusRejected, reviewer.ID, reason)
	if errors.Is(err, repository.ErrAlreadyReviewed) {
		return models.JoinRequest{}, conflict("Join request has already been reviewed.")
	}
	return request, err
}

// Provision creates the user, its organization and its login identity for an
// approved request. Running it twice for the same request is a no-op.
func (s *JoinRequestService) Provision(ctx context.Context, id string) (models.User, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if request.Status != models.JoinRequestStatusApproved {
		return models.User{}, ErrNotApproved
	}

	var user models.User
	if request.UserID != nil {
		if user, err = s.users.GetByID(ctx, *request.UserID); err != nil {
			return models.User{}, err
		}
	} else {
		if user, err = s.createUser(ctx, request); err != nil {
			return models.User{}, err
		}
	}

	// The linked user holds this email, so a credential already registered
	// under it came from an earlier attempt of this same request.
	if _, err := s.provider.Provision(ctx, request.Email, request.PasswordHash); err != nil && !errors.Is(err, identity.ErrEmailTaken) {
		return models.User{}, fmt.Errorf("provision identity: %w", err)
	}
	return user, nil
}

func (s *JoinRequestService) createUser(ctx context.Context, request models.JoinRequest) (models.User, error) {
	if _, err := s.users.FindByEmail(ctx, request.Email); err == nil {
		return models.User{}, ErrEmailInUse
	} else if !errors.Is(err, repository.ErrNotFound) {
		return models.User{}, err
	}

	orgID, err := s.ensureOrganization(ctx, request.OrganizationName)
	if err != nil {
		return models.User{}, err
	}

	// Credentials of a deleted account must not carry over to the new user.
	if err := s.provider.Remove(ctx, request.Email); err != nil {
		return models.User{}, fmt.Errorf("clear stale identity: %w", err)
	}

	user := models.User{
		Email:          request.Email,
		Name:           request.Name,
		Phone:          request.Phone,
		Role:           request.RequestedRole,
		OrganizationID: orgID,
	}
	if err := s.requests.CreateUser(ctx, request.ID, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.User{}, ErrEmailInUse
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *JoinRequestService) ensureOrganization(ctx context.Context, name *string) (*string, error) {
	if name == nil || strings.TrimSpace(*name) == "" {
		return nil, nil
	}
	slug := Slugify(*name)
	if slug == "" {
		return nil, rule("Organization name must contain a letter or digit.")
	}
	org, err := s.orgs.FindBySlug(ctx, slug)
	if err == nil {
		return &org.ID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	org = models.Organization{Name: strings.TrimSpace(*name), Slug: slug}
	if err := s.orgs.Create(ctx, &org); err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}
	return &org.ID, nil
}

// Slugify lower-cases name and joins its runs of letters and digits with dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
