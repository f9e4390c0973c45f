package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertyhub/internal/identity"
	"propertyhub/internal/models"
	"propertyhub/internal/queue"
	"propertyhub/internal/repository"
)

func submission(email string) SubmitJoinRequestInput {
	return SubmitJoinRequestInput{
		Email:            email,
		Name:             "Robin Tenant",
		RequestedRole:    models.UserRoleTenant,
		OrganizationName: strPtr("Harbour View Co-op"),
		Password:         "s3cret-pass",
	}
}

func TestJoinRequestSubmitRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	admin := submission("boss@example.com")
	admin.RequestedRole = models.UserRoleAdmin
	_, err := f.joins.Submit(ctx, admin)
	assert.Equal(t, "The ADMIN role cannot be requested.", ruleMessage(t, err))

	request, err := f.joins.Submit(ctx, submission(" Robin@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, "robin@example.com", request.Email)
	assert.Equal(t, models.JoinRequestStatusPending, request.Status)
	assert.NotEmpty(t, request.PasswordHash)

	_, err = f.joins.Submit(ctx, submission("robin@example.com"))
	assert.ErrorIs(t, err, ErrConflict)

	f.user(t, "taken@example.com", models.UserRoleTenant)
	_, err = f.joins.Submit(ctx, submission("taken@example.com"))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestJoinRequestApproveAndProvision(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reviewer := f.user(t, "admin@example.com", models.UserRoleAdmin)

	request, err := f.joins.Submit(ctx, submission("robin@example.com"))
	require.NoError(t, err)

	_, err = f.joins.Provision(ctx, request.ID)
	assert.ErrorIs(t, err, ErrNotApproved)

	approved, err := f.joins.Approve(ctx, reviewer, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestStatusApproved, approved.Status)
	require.Len(t, f.publisher.jobs, 1)
	assert.Equal(t, queue.Job{Type: queue.JobJoinRequestApproved, ID: request.ID}, f.publisher.jobs[0])

	// Approving again before the worker ran queues provisioning again.
	_, err = f.joins.Approve(ctx, reviewer, request.ID)
	require.NoError(t, err)
	assert.Len(t, f.publisher.jobs, 2)

	user, err := f.joins.Provision(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, "robin@example.com", user.Email)
	assert.Equal(t, models.UserRoleTenant, user.Role)
	require.NotNil(t, user.OrganizationID)

	org, err := f.orgs.FindBySlug(ctx, "harbour-view-co-op")
	require.NoError(t, err)
	assert.Equal(t, org.ID, *user.OrganizationID)

	again, err := f.joins.Provision(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	result, err := f.auth.Login(ctx, "robin@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)

	_, err = f.joins.Approve(ctx, reviewer, request.ID)
	assert.ErrorIs(t, err, ErrConflict)
	_, err = f.joins.Reject(ctx, reviewer, request.ID, nil)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestJoinRequestReject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reviewer := f.user(t, "pm@example.com", models.UserRolePropertyManager)

	request, err := f.joins.Submit(ctx, submission("robin@example.com"))
	require.NoError(t, err)

	rejected, err := f.joins.Reject(ctx, reviewer, request.ID, strPtr("No vacancy"))
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "No vacancy", *rejected.RejectionReason)
	assert.Empty(t, f.publisher.jobs)

	_, err = f.joins.Approve(ctx, reviewer, request.ID)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.joins.Reject(ctx, reviewer, "missing", nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestJoinRequestApprovePublishFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reviewer := f.user(t, "admin@example.com", models.UserRoleAdmin)
	f.publisher.err = errStoreDown

	request, err := f.joins.Submit(ctx, submission("robin@example.com"))
	require.NoError(t, err)

	_, err = f.joins.Approve(ctx, reviewer, request.ID)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestJoinRequestProvisionRefusesTakenEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reviewer := f.user(t, "admin@example.com", models.UserRoleAdmin)

	request, err := f.joins.Submit(ctx, submission("robin@example.com"))
	require.NoError(t, err)
	_, err = f.joins.Approve(ctx, reviewer, request.ID)
	require.NoError(t, err)

	stranger, err := f.auth.CreateUser(ctx, CreateUserInput{
		Email:    "robin@example.com",
		Name:     "Someone else",
		Role:     models.UserRolePropertyManager,
		Password: strPtr("stranger-password"),
	})
	require.NoError(t, err)

	_, err = f.joins.Provision(ctx, request.ID)
	assert.ErrorIs(t, err, ErrEmailInUse)

	current, err := f.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Nil(t, current.UserID)

	_, err = f.auth.Login(ctx, "robin@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	result, err := f.auth.Login(ctx, "robin@example.com", "stranger-password")
	require.NoError(t, err)
	assert.Equal(t, stranger.ID, result.User.ID)
}

func TestJoinRequestProvisionReplacesDeletedAccountCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reviewer := f.user(t, "admin@example.com", models.UserRoleAdmin)

	_, err := f.provider.SignUp(ctx, "robin@example.com", "old-password")
	require.NoError(t, err)

	request, err := f.joins.Submit(ctx, submission("robin@example.com"))
	require.NoError(t, err)
	_, err = f.joins.Approve(ctx, reviewer, request.ID)
	require.NoError(t, err)

	user, err := f.joins.Provision(ctx, request.ID)
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "robin@example.com", "old-password")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	result, err := f.auth.Login(ctx, "robin@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
}

func TestJoinRequestOrganizationsBySlug(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reviewer := f.user(t, "admin@example.com", models.UserRoleAdmin)

	punctuation := submission("dots@example.com")
	punctuation.OrganizationName = strPtr("...")
	_, err := f.joins.Submit(ctx, punctuation)
	assert.Equal(t, "Organization name must contain a letter or digit.", ruleMessage(t, err))

	provision := func(email, org string) models.User {
		t.Helper()
		input := submission(email)
		input.OrganizationName = strPtr(org)
		request, err := f.joins.Submit(ctx, input)
		require.NoError(t, err)
		_, err = f.joins.Approve(ctx, reviewer, request.ID)
		require.NoError(t, err)
		user, err := f.joins.Provision(ctx, request.ID)
		require.NoError(t, err)
		require.NotNil(t, user.OrganizationID)
		return user
	}

	tokyo := provision("tokyo@example.com", "東京不動産")
	nihon := provision("nihon@example.com", "日本ハウス")
	tokyoAgain := provision("tokyo2@example.com", "東京不動産")

	assert.NotEqual(t, *tokyo.OrganizationID, *nihon.OrganizationID)
	assert.Equal(t, *tokyo.OrganizationID, *tokyoAgain.OrganizationID)

	org, err := f.orgs.GetByID(ctx, *nihon.OrganizationID)
	require.NoError(t, err)
	assert.Equal(t, "日本ハウス", org.Slug)
}
