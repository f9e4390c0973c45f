// Package policy holds the declarative role allow-list for every API operation.
package policy

import "propertyhub/internal/models"

type Operation string

const (
	EventsList   Operation = "events.list"
	EventsRead   Operation = "events.read"
	EventsCreate Operation = "events.create"
	EventsUpdate Operation = "events.update"
	EventsDelete Operation = "events.delete"

	PropertiesList      Operation = "properties.list"
	PropertiesRead      Operation = "properties.read"
	PropertiesCreate    Operation = "properties.create"
	PropertiesUpdate    Operation = "properties.update"
	PropertiesDelete    Operation = "properties.delete"
	PropertiesDocuments Operation = "properties.documents"

	ContractsList  Operation = "contracts.list"
	ContractsRead  Operation = "contracts.read"
	ContractsWrite Operation = "contracts.write"
	PaymentsWrite  Operation = "payments.write"

	UsersList   Operation = "users.list"
	UsersRead   Operation = "users.read"
	UsersCreate Operation = "users.create"
	UsersUpdate Operation = "users.update"
	UsersDelete Operation = "users.delete"

	OrganizationsRead  Operation = "organizations.read"
	OrganizationsWrite Operation = "organizations.write"

	JoinRequestsList   Operation = "joinrequests.list"
	JoinRequestsReview Operation = "joinrequests.review"

	MeRead   Operation = "me.read"
	MeUpdate Operation = "me.update"
)

type RoleSet map[models.UserRole]struct{}

func Roles(roles ...models.UserRole) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	return set
}

func (s RoleSet) Has(role models.UserRole) bool {
	_, ok := s[role]
	return ok
}

var (
	adminOnly  = Roles(models.UserRoleAdmin)
	managers   = Roles(models.UserRoleAdmin, models.UserRolePropertyManager)
	propertied = Roles(models.UserRoleAdmin, models.UserRolePropertyManager, models.UserRoleOwner)
	everyone   = Roles(models.UserRoles...)
)

// Table is consulted for every authenticated request. Roles are flat: no role
// implies another.
var Table = map[Operation]RoleSet{
	EventsList:   adminOnly,
	EventsRead:   adminOnly,
	EventsCreate: adminOnly,
	EventsUpdate: adminOnly,
	EventsDelete: adminOnly,

	PropertiesList:      propertied,
	PropertiesRead:      propertied,
	PropertiesCreate:    propertied,
	PropertiesUpdate:    propertied,
	PropertiesDelete:    propertied,
	PropertiesDocuments: propertied,

	ContractsList:  propertied,
	ContractsRead:  propertied,
	ContractsWrite: managers,
	PaymentsWrite:  managers,

	UsersList:   adminOnly,
	UsersRead:   adminOnly,
	UsersCreate: adminOnly,
	UsersUpdate: adminOnly,
	UsersDelete: adminOnly,

	OrganizationsRead:  managers,
	OrganizationsWrite: adminOnly,

	JoinRequestsList:   adminOnly,
	JoinRequestsReview: adminOnly,

	MeRead:   everyone,
	MeUpdate: everyone,
}

// Allows reports whether role may perform op. Unknown operations are denied.
func Allows(op Operation, role models.UserRole) bool {
	roles, ok := Table[op]
	if !ok {
		return false
	}
	return roles.Has(role)
}
