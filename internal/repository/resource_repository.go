package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"propertyhub/internal/models"
)

// Delete guard violations, checked in this order.
var (
	ErrResourceHasChildren  = errors.New("resource has child resources")
	ErrResourceHasContracts = errors.New("resource has rental contracts")
	ErrResourceHasEvents    = errors.New("resource has events")
)

type ResourceFilter struct {
	Type     string
	ParentID string
	Search   string
	// OwnerUserID restricts the list to resources the user owns directly.
	OwnerUserID string
}

type ResourceRepository struct {
	db *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Create inserts the resource together with its owner rows.
func (r *ResourceRepository) Create(ctx context.Context, resource *models.Resource) error {
	if err := r.db.WithContext(ctx).Create(resource).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *ResourceRepository) GetByID(ctx context.Context, id string) (models.Resource, error) {
	var resource models.Resource
	err := r.db.WithContext(ctx).
		Preload("Owners.User").
		Preload("Owners.Organization").
		Preload("Parent").
		Preload("Children", func(db *gorm.DB) *gorm.DB { return db.Order("label ASC") }).
		Where("id = ?", id).
		First(&resource).Error
	return resource, translate(err)
}

func (r *ResourceRepository) Exists(ctx context.Context, id string) (bool, error) {
	n, err := countWhere(r.db.WithContext(ctx), &models.Resource{}, "id = ?", id)
	return n > 0, err
}

func (r *ResourceRepository) List(ctx context.Context, filter ResourceFilter, page Page) ([]models.Resource, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Resource{})
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.ParentID != "" {
		query = query.Where("parent_id = ?", filter.ParentID)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("(LOWER(label) LIKE ? ESCAPE '\\' OR LOWER(address) LIKE ? ESCAPE '\\' OR LOWER(city) LIKE ? ESCAPE '\\')", pattern, pattern, pattern)
	}
	if filter.OwnerUserID != "" {
		owned := r.db.Model(&models.ResourceOwner{}).Select("resource_id").Where("user_id = ?", filter.OwnerUserID)
		query = query.Where("id IN (?)", owned)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var resources []models.Resource
	err := page.apply(query).
		Preload("Owners").
		Order("created_at DESC").
		Find(&resources).Error
	return resources, total, err
}

func (r *ResourceRepository) Children(ctx context.Context, id string) ([]models.Resource, error) {
	var children []models.Resource
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", id).
		Order("label ASC").
		Find(&children).Error
	return children, err
}

func (r *ResourceRepository) IsOwnedBy(ctx context.Context, resourceID, userID string) (bool, error) {
	n, err := countWhere(r.db.WithContext(ctx), &models.ResourceOwner{}, "resource_id = ? AND user_id = ?", resourceID, userID)
	return n > 0, err
}

func (r *ResourceRepository) Update(ctx context.Context, id string, fields map[string]any) (models.Resource, error) {
	res := r.db.WithContext(ctx).Model(&models.Resource{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return models.Resource{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Resource{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// ReplaceOwners swaps the whole owner set of a resource in one transaction.
func (r *ResourceRepository) ReplaceOwners(ctx context.Context, id string, owners []models.ResourceOwner) (models.Resource, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var resource models.Resource
		if err := lockForUpdate(tx).Where("id = ?", id).First(&resource).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("resource_id = ?", id).Delete(&models.ResourceOwner{}).Error; err != nil {
			return err
		}
		if len(owners) == 0 {
			return nil
		}
		for i := range owners {
			owners[i].ResourceID = id
		}
		return tx.Create(&owners).Error
	})
	if err != nil {
		return models.Resource{}, err
	}
	return r.GetByID(ctx, id)
}

// DeleteGuarded locks the resource row, runs the children, contracts and events
// checks and deletes the row, all inside one transaction. Inserts that reference
// the resource cannot slip in between a check and the delete. The document rows
// removed with the resource are returned so their objects can be dropped too.
func (r *ResourceRepository) DeleteGuarded(ctx context.Context, id string) ([]models.ResourceDocument, error) {
	var documents []models.ResourceDocument
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var resource models.Resource
		if err := lockForUpdate(tx).Where("id = ?", id).First(&resource).Error; err != nil {
			return translate(err)
		}

		children, err := countWhere(tx, &models.Resource{}, "parent_id = ?", id)
		if err != nil {
			return err
		}
		if children > 0 {
			return ErrResourceHasChildren
		}

		contracts, err := countWhere(tx, &models.RentalContract{}, "resource_id = ?", id)
		if err != nil {
			return err
		}
		if contracts > 0 {
			return ErrResourceHasContracts
		}

		events, err := countWhere(tx, &models.Event{}, "resource_id = ?", id)
		if err != nil {
			return err
		}
		if events > 0 {
			return ErrResourceHasEvents
		}

		if err := tx.Where("resource_id = ?", id).Find(&documents).Error; err != nil {
			return err
		}
		if err := tx.Where("resource_id = ?", id).Delete(&models.ResourceDocument{}).Error; err != nil {
			return err
		}
		if err := tx.Where("resource_id = ?", id).Delete(&models.ResourceOwner{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Resource{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return documents, nil
}
