package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"propertyhub/internal/ids"
)

type ResourceType string

const (
	ResourceTypeBuilding        ResourceType = "BUILDING"
	ResourceTypeUnit            ResourceType = "UNIT"
	ResourceTypeCommercialSpace ResourceType = "COMMERCIAL_SPACE"
	ResourceTypeParkingSpot     ResourceType = "PARKING_SPOT"
	ResourceTypeStorage         ResourceType = "STORAGE"
	ResourceTypeLand            ResourceType = "LAND"
)

// Resource is a property: a building, a unit inside it, a parking spot, and so on.
type Resource struct {
	ID         string           `gorm:"primaryKey;size:27"`
	Label      string           `gorm:"size:200;not null"`
	Type       ResourceType     `gorm:"size:32;index;not null"`
	ParentID   *string          `gorm:"size:27;index"`
	Address    *string          `gorm:"size:255"`
	City       *string          `gorm:"size:120"`
	PostalCode *string          `gorm:"size:20"`
	Country    *string          `gorm:"size:2"`
	Area       *decimal.Decimal `gorm:"type:numeric(12,2)"`
	Attributes datatypes.JSON
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Parent   *Resource       `gorm:"foreignKey:ParentID"`
	Children []Resource      `gorm:"foreignKey:ParentID"`
	Owners   []ResourceOwner `gorm:"foreignKey:ResourceID"`
}

func (r *Resource) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = ids.New()
	}
	return nil
}

// ResourceOwner links a resource to exactly one of a user or an organization.
type ResourceOwner struct {
	ID             string           `gorm:"primaryKey;size:27"`
	ResourceID     string           `gorm:"size:27;index;not null"`
	UserID         *string          `gorm:"size:27;index"`
	OrganizationID *string          `gorm:"size:27;index"`
	SharePercent   *decimal.Decimal `gorm:"type:numeric(5,2)"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	User         *User         `gorm:"foreignKey:UserID"`
	Organization *Organization `gorm:"foreignKey:OrganizationID"`
}

func (o *ResourceOwner) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = ids.New()
	}
	return nil
}

type DocumentKind string

const (
	DocumentKindPhoto     DocumentKind = "PHOTO"
	DocumentKindFloorPlan DocumentKind = "FLOOR_PLAN"
	DocumentKindContract  DocumentKind = "CONTRACT"
	DocumentKindOther     DocumentKind = "OTHER"
)

// ResourceDocument is a file attached to a resource and kept in object storage.
type ResourceDocument struct {
	ID          string       `gorm:"primaryKey;size:27"`
	ResourceID  string       `gorm:"size:27;index;not null"`
	UploadedBy  string       `gorm:"size:27;index;not null"`
	FileName    string       `gorm:"size:255;not null"`
	ContentType string       `gorm:"size:100;not null"`
	Kind        DocumentKind `gorm:"size:32;not null"`
	Bucket      string       `gorm:"size:100;not null"`
	ObjectKey   string       `gorm:"size:255;not null"`
	SizeBytes   int64
	Checksum    []byte
	Signature   string `gorm:"size:100"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (d *ResourceDocument) BeforeCreate(*gorm.DB) error {
	if d.ID == "" {
		d.ID = ids.New()
	}
	return nil
}
