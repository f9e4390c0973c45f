package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"propertyhub/internal/ids"
)

type EventType string

const (
	EventTypeLeaseAgreement    EventType = "LEASE_AGREEMENT"
	EventTypeRentPayment       EventType = "RENT_PAYMENT"
	EventTypeMaintenance       EventType = "MAINTENANCE_REQUEST"
	EventTypeInspection        EventType = "INSPECTION"
	EventTypeMoveIn            EventType = "MOVE_IN"
	EventTypeMoveOut           EventType = "MOVE_OUT"
	EventTypeContractRenewal   EventType = "CONTRACT_RENEWAL"
	EventTypeTerminationNotice EventType = "TERMINATION_NOTICE"
)

// EventStatus values carry no transition rules; any value may follow any other.
type EventStatus string

const (
	EventStatusPending    EventStatus = "PENDING"
	EventStatusInProgress EventStatus = "IN_PROGRESS"
	EventStatusCompleted  EventStatus = "COMPLETED"
	EventStatusCancelled  EventStatus = "CANCELLED"
)

type Event struct {
	ID         string           `gorm:"primaryKey;size:27"`
	Label      string           `gorm:"size:200;not null"`
	Type       EventType        `gorm:"size:32;index;not null"`
	Status     EventStatus      `gorm:"size:32;index;not null"`
	ResourceID string           `gorm:"size:27;index;not null"`
	StartDate  time.Time        `gorm:"not null"`
	EndDate    *time.Time
	Amount     *decimal.Decimal `gorm:"type:numeric(12,2)"`
	Notes      *string          `gorm:"type:text"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Resource     *Resource          `gorm:"foreignKey:ResourceID"`
	Participants []EventParticipant `gorm:"foreignKey:EventID"`
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = ids.New()
	}
	return nil
}

type ParticipantRole string

const (
	ParticipantRoleOrganizer ParticipantRole = "ORGANIZER"
	ParticipantRoleAssignee  ParticipantRole = "ASSIGNEE"
	ParticipantRoleAttendee  ParticipantRole = "ATTENDEE"
)

type ParticipantStatus string

const (
	ParticipantStatusInvited   ParticipantStatus = "INVITED"
	ParticipantStatusAccepted  ParticipantStatus = "ACCEPTED"
	ParticipantStatusDeclined  ParticipantStatus = "DECLINED"
	ParticipantStatusCompleted ParticipantStatus = "COMPLETED"
)

type EventParticipant struct {
	ID        string            `gorm:"primaryKey;size:27"`
	EventID   string            `gorm:"size:27;index;not null"`
	UserID    string            `gorm:"size:27;index;not null"`
	Role      ParticipantRole   `gorm:"size:32;not null"`
	Status    ParticipantStatus `gorm:"size:32;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	User *User `gorm:"foreignKey:UserID"`
}

func (p *EventParticipant) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = ids.New()
	}
	return nil
}
