package models

import (
	"time"

	"gorm.io/gorm"

	"propertyhub/internal/ids"
)

type JoinRequestStatus string

const (
	JoinRequestStatusPending  JoinRequestStatus = "PENDING"
	JoinRequestStatusApproved JoinRequestStatus = "APPROVED"
	JoinRequestStatusRejected JoinRequestStatus = "REJECTED"
)

// JoinRequest is a signup waiting for an admin decision. Approval does not create
// the user directly; the worker provisions it once the approval job is consumed.
// PasswordHash is hashed at submission and becomes the identity's credential.
type JoinRequest struct {
	ID               string            `gorm:"primaryKey;size:27"`
	Email            string            `gorm:"size:255;index;not null"`
	Name             string            `gorm:"size:200;not null"`
	Phone            *string           `gorm:"size:40"`
	RequestedRole    UserRole          `gorm:"size:32;not null"`
	OrganizationName *string           `gorm:"size:200"`
	Message          *string           `gorm:"type:text"`
	PasswordHash     []byte
	Status           JoinRequestStatus `gorm:"size:16;index;not null"`
	ReviewedBy       *string           `gorm:"size:27"`
	ReviewedAt       *time.Time
	RejectionReason  *string `gorm:"type:text"`
	UserID           *string `gorm:"size:27"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (j *JoinRequest) BeforeCreate(*gorm.DB) error {
	if j.ID == "" {
		j.ID = ids.New()
	}
	return nil
}

// All returns every model the datastore must know about, in dependency order.
func All() []any {
	return []any{
		&Organization{},
		&User{},
		&Identity{},
		&Resource{},
		&ResourceOwner{},
		&ResourceDocument{},
		&Event{},
		&EventParticipant{},
		&RentalContract{},
		&RentPayment{},
		&JoinRequest{},
	}
}
