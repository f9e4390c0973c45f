package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"propertyhub/internal/ids"
)

type ContractStatus string

const (
	ContractStatusDraft      ContractStatus = "DRAFT"
	ContractStatusActive     ContractStatus = "ACTIVE"
	ContractStatusExpired    ContractStatus = "EXPIRED"
	ContractStatusTerminated ContractStatus = "TERMINATED"
	ContractStatusRenewed    ContractStatus = "RENEWED"
)

type RentalContract struct {
	ID            string           `gorm:"primaryKey;size:27"`
	ResourceID    string           `gorm:"size:27;index;not null"`
	TenantID      string           `gorm:"size:27;index;not null"`
	Status        ContractStatus   `gorm:"size:32;index;not null"`
	StartDate     time.Time        `gorm:"not null"`
	EndDate       *time.Time       `gorm:"index"`
	RentAmount    decimal.Decimal  `gorm:"type:numeric(12,2);not null"`
	DepositAmount *decimal.Decimal `gorm:"type:numeric(12,2)"`
	Currency      string           `gorm:"size:3;not null"`
	PaymentDay    int              `gorm:"not null"`
	Notes         *string          `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Resource *Resource     `gorm:"foreignKey:ResourceID"`
	Tenant   *User         `gorm:"foreignKey:TenantID"`
	Payments []RentPayment `gorm:"foreignKey:ContractID"`
}

func (c *RentalContract) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = ids.New()
	}
	return nil
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusLate      PaymentStatus = "LATE"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

type RentPayment struct {
	ID         string          `gorm:"primaryKey;size:27"`
	ContractID string          `gorm:"size:27;index;not null"`
	Amount     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DueDate    time.Time       `gorm:"index;not null"`
	PaidAt     *time.Time
	Status     PaymentStatus `gorm:"size:32;index;not null"`
	Reference  *string       `gorm:"size:120"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (p *RentPayment) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = ids.New()
	}
	return nil
}
