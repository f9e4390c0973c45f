package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertyhub/internal/identity"
	"propertyhub/internal/models"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return d
}

func strPtr(s string) *string { return &s }

func TestAuthCreateUserAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user, err := f.auth.CreateUser(ctx, CreateUserInput{
		Email:    "  Manager@Example.com ",
		Name:     " Pat Manager ",
		Role:     models.UserRolePropertyManager,
		Password: strPtr("correct horse"),
	})
	require.NoError(t, err)
	assert.Equal(t, "manager@example.com", user.Email)
	assert.Equal(t, "Pat Manager", user.Name)

	_, err = f.auth.CreateUser(ctx, CreateUserInput{Email: "manager@example.com", Name: "Again", Role: models.UserRoleTenant})
	assert.ErrorIs(t, err, ErrConflict)

	result, err := f.auth.Login(ctx, "manager@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	assert.NotEmpty(t, result.Session.Token)

	_, err = f.auth.Login(ctx, "manager@example.com", "wrong")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestAuthLoginWithoutUserRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.provider.SignUp(ctx, "ghost@example.com", "password123")
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "ghost@example.com", "password123")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuthOrganizationCheck(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.auth.CreateUser(ctx, CreateUserInput{
		Email:          "t@example.com",
		Name:           "Tenant",
		Role:           models.UserRoleTenant,
		OrganizationID: strPtr("missing"),
	})
	assert.Equal(t, "Organization not found.", ruleMessage(t, err))

	org, err := f.orgService.Create(ctx, "Acme Rentals", "")
	require.NoError(t, err)
	user, err := f.auth.CreateUser(ctx, CreateUserInput{
		Email:          "t@example.com",
		Name:           "Tenant",
		Role:           models.UserRoleTenant,
		OrganizationID: &org.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, user.OrganizationID)
	assert.Equal(t, org.ID, *user.OrganizationID)

	_, err = f.auth.UpdateUser(ctx, user.ID, map[string]any{"organization_id": strPtr("gone")})
	assert.Equal(t, "Organization not found.", ruleMessage(t, err))
}

func TestAuthDeleteUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.user(t, "admin@example.com", models.UserRoleAdmin)
	tenant := f.user(t, "tenant@example.com", models.UserRoleTenant)
	leaver := f.user(t, "leaver@example.com", models.UserRoleTenant)

	err := f.auth.DeleteUser(ctx, admin, admin.ID)
	assert.Equal(t, "You cannot delete your own account.", ruleMessage(t, err))

	home := f.resource(t, admin, "Home", nil)
	_, err = f.leases.Create(ctx, admin, models.RentalContract{
		ResourceID: home.ID,
		TenantID:   tenant.ID,
		StartDate:  mustDate(t, "2024-01-01"),
		RentAmount: decimalOf(t, "950.00"),
		PaymentDay: 1,
	})
	require.NoError(t, err)

	err = f.auth.DeleteUser(ctx, admin, tenant.ID)
	assert.Equal(t, "Cannot delete user referenced by rental contracts.", ruleMessage(t, err))

	require.NoError(t, f.auth.DeleteUser(ctx, admin, leaver.ID))
}

func TestAuthDeletedUserCredentialsDoNotCarryOver(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.user(t, "admin@example.com", models.UserRoleAdmin)

	first, err := f.auth.CreateUser(ctx, CreateUserInput{
		Email:    "a@example.com",
		Name:     "Alice",
		Role:     models.UserRoleTenant,
		Password: strPtr("alice-password"),
	})
	require.NoError(t, err)
	old, err := f.auth.Login(ctx, "a@example.com", "alice-password")
	require.NoError(t, err)

	require.NoError(t, f.auth.DeleteUser(ctx, admin, first.ID))
	_, err = f.provider.GetUser(ctx, old.Session.Token)
	assert.ErrorIs(t, err, identity.ErrUnauthenticated)

	second, err := f.auth.CreateUser(ctx, CreateUserInput{
		Email:    "a@example.com",
		Name:     "Another A",
		Role:     models.UserRoleAdmin,
		Password: strPtr("new-password"),
	})
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "a@example.com", "alice-password")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	result, err := f.auth.Login(ctx, "a@example.com", "new-password")
	require.NoError(t, err)
	assert.Equal(t, second.ID, result.User.ID)
}

func TestAuthCreateUserClearsOrphanedIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.provider.SignUp(ctx, "orphan@example.com", "left-behind")
	require.NoError(t, err)

	_, err = f.auth.CreateUser(ctx, CreateUserInput{Email: "orphan@example.com", Name: "No login", Role: models.UserRoleOwner})
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "orphan@example.com", "left-behind")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestAuthEmailChangeMovesCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	pm, err := f.auth.CreateUser(ctx, CreateUserInput{
		Email:    "pm@example.com",
		Name:     "Pat",
		Role:     models.UserRolePropertyManager,
		Password: strPtr("pm-password"),
	})
	require.NoError(t, err)
	before, err := f.auth.Login(ctx, "pm@example.com", "pm-password")
	require.NoError(t, err)

	other := f.user(t, "other@example.com", models.UserRoleTenant)
	_, err = f.auth.UpdateUser(ctx, pm.ID, map[string]any{"email": "other@example.com"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotEqual(t, other.ID, pm.ID)

	updated, err := f.auth.UpdateUser(ctx, pm.ID, map[string]any{"email": " PM2@example.com", "name": "Pat"})
	require.NoError(t, err)
	assert.Equal(t, "pm2@example.com", updated.Email)

	ident, err := f.provider.GetUser(ctx, before.Session.Token)
	require.NoError(t, err)
	assert.Equal(t, "pm2@example.com", ident.Email, "sessions issued before the change stay valid")

	_, err = f.auth.Login(ctx, "pm@example.com", "pm-password")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	result, err := f.auth.Login(ctx, "pm2@example.com", "pm-password")
	require.NoError(t, err)
	assert.Equal(t, pm.ID, result.User.ID)
}
