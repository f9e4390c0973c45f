package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"propertyhub/internal/models"
)

var (
	ErrOrganizationHasMembers = errors.New("organization has members")
	ErrOrganizationOwnsAssets = errors.New("organization owns properties")
)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	return translate(r.db.WithContext(ctx).Create(org).Error)
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (models.Organization, error) {
	var org models.Organization
	err := r.db.WithContext(ctx).Preload("Users").Where("id = ?", id).First(&org).Error
	return org, translate(err)
}

func (r *OrganizationRepository) FindBySlug(ctx context.Context, slug string) (models.Organization, error) {
	var org models.Organization
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&org).Error
	return org, translate(err)
}

func (r *OrganizationRepository) List(ctx context.Context, search string, page Page) ([]models.Organization, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Organization{})
	if search != "" {
		pattern := likePattern(search)
		query = query.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(slug) LIKE ? ESCAPE '\\')", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orgs []models.Organization
	err := page.apply(query).Order("name ASC").Find(&orgs).Error
	return orgs, total, err
}

func (r *OrganizationRepository) Update(ctx context.Context, id string, fields map[string]any) (models.Organization, error) {
	res := r.db.WithContext(ctx).Model(&models.Organization{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return models.Organization{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Organization{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// DeleteGuarded removes an organization with no members and no ownership rows.
func (r *OrganizationRepository) DeleteGuarded(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var org models.Organization
		if err := lockForUpdate(tx).Where("id = ?", id).First(&org).Error; err != nil {
			return translate(err)
		}

		members, err := countWhere(tx, &models.User{}, "organization_id = ?", id)
		if err != nil {
			return err
		}
		if members > 0 {
			return ErrOrganizationHasMembers
		}

		owned, err := countWhere(tx, &models.ResourceOwner{}, "organization_id = ?", id)
		if err != nil {
			return err
		}
		if owned > 0 {
			return ErrOrganizationOwnsAssets
		}

		return tx.Delete(&models.Organization{}, "id = ?", id).Error
	})
}
