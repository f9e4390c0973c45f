package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"propertyhub/internal/models"
)

var (
	ErrUserHasContracts = errors.New("user referenced by rental contracts")
	ErrUserHasEvents    = errors.New("user referenced by events")
)

type UserFilter struct {
	Role           string
	OrganizationID string
	Search         string
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	return user, translate(err)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Organization").
		Where("id = ?", id).
		First(&user).Error
	return user, translate(err)
}

func (r *UserRepository) List(ctx context.Context, filter UserFilter, page Page) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.OrganizationID != "" {
		query = query.Where("organization_id = ?", filter.OrganizationID)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\')", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := page.apply(query).
		Preload("Organization").
		Order("created_at DESC").
		Find(&users).Error
	return users, total, err
}

// Update overwrites the given columns. A nil value clears the column.
func (r *UserRepository) Update(ctx context.Context, id string, fields map[string]any) (models.User, error) {
	if email, ok := fields["email"].(string); ok {
		fields["email"] = strings.ToLower(strings.TrimSpace(email))
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return models.User{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.User{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// DeleteGuarded removes a user that no contract or event participation points at.
// Ownership rows of the user go with it.
func (r *UserRepository) DeleteGuarded(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := lockForUpdate(tx).Where("id = ?", id).First(&user).Error; err != nil {
			return translate(err)
		}

		contracts, err := countWhere(tx, &models.RentalContract{}, "tenant_id = ?", id)
		if err != nil {
			return err
		}
		if contracts > 0 {
			return ErrUserHasContracts
		}

		participations, err := countWhere(tx, &models.EventParticipant{}, "user_id = ?", id)
		if err != nil {
			return err
		}
		if participations > 0 {
			return ErrUserHasEvents
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.ResourceOwner{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", id).Error
	})
}
