package models

import (
	"time"

	"gorm.io/gorm"

	"propertyhub/internal/ids"
)

type UserRole string

const (
	UserRoleAdmin           UserRole = "ADMIN"
	UserRolePropertyManager UserRole = "PROPERTY_MANAGER"
	UserRoleOwner           UserRole = "OWNER"
	UserRoleTenant          UserRole = "TENANT"
	UserRoleServiceProvider UserRole = "SERVICE_PROVIDER"
)

// UserRoles lists every role in declaration order.
var UserRoles = []UserRole{
	UserRoleAdmin,
	UserRolePropertyManager,
	UserRoleOwner,
	UserRoleTenant,
	UserRoleServiceProvider,
}

type User struct {
	ID             string        `gorm:"primaryKey;size:27"`
	Email          string        `gorm:"uniqueIndex;size:255;not null"`
	Name           string        `gorm:"size:200;not null"`
	Phone          *string       `gorm:"size:40"`
	Role           UserRole      `gorm:"size:32;index;not null"`
	OrganizationID *string       `gorm:"size:27;index"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	return nil
}

type Organization struct {
	ID        string `gorm:"primaryKey;size:27"`
	Name      string `gorm:"size:200;not null"`
	Slug      string `gorm:"size:200;uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Users []User `gorm:"foreignKey:OrganizationID"`
}

func (o *Organization) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = ids.New()
	}
	return nil
}

// Identity is the auth provider's own credential record, keyed by email.
type Identity struct {
	ID           string `gorm:"primaryKey;size:27"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash []byte `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (i *Identity) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = ids.New()
	}
	return nil
}
