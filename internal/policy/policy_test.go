package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"propertyhub/internal/models"
)

func TestAllows(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		role models.UserRole
		want bool
	}{
		{"admin updates events", EventsUpdate, models.UserRoleAdmin, true},
		{"tenant cannot update events", EventsUpdate, models.UserRoleTenant, false},
		{"manager cannot read events", EventsRead, models.UserRolePropertyManager, false},
		{"owner lists properties", PropertiesList, models.UserRoleOwner, true},
		{"tenant cannot list properties", PropertiesList, models.UserRoleTenant, false},
		{"manager writes contracts", ContractsWrite, models.UserRolePropertyManager, true},
		{"owner cannot write contracts", ContractsWrite, models.UserRoleOwner, false},
		{"service provider reads own profile", MeRead, models.UserRoleServiceProvider, true},
		{"unknown operation is denied", Operation("nope"), models.UserRoleAdmin, false},
		{"unknown role is denied", UsersList, models.UserRole("ROOT"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allows(tt.op, tt.role))
		})
	}
}

func TestTableAdminCoversEveryOperation(t *testing.T) {
	for op := range Table {
		assert.True(t, Allows(op, models.UserRoleAdmin), "admin should be allowed %s", op)
	}
}

func TestRolesAreFlat(t *testing.T) {
	set := Roles(models.UserRoleAdmin)
	assert.True(t, set.Has(models.UserRoleAdmin))
	assert.False(t, set.Has(models.UserRolePropertyManager))
}
