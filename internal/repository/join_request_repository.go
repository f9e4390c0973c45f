package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"propertyhub/internal/models"
)

var (
	ErrAlreadyReviewed    = errors.New("join request already reviewed")
	ErrAlreadyProvisioned = errors.New("join request already provisioned")
)

type JoinRequestRepository struct {
	db *gorm.DB
}

func NewJoinRequestRepository(db *gorm.DB) *JoinRequestRepository {
	return &JoinRequestRepository{db: db}
}

func (r *JoinRequestRepository) Create(ctx context.Context, request *models.JoinRequest) error {
	return translate(r.db.WithContext(ctx).Create(request).Error)
}

func (r *JoinRequestRepository) GetByID(ctx context.Context, id string) (models.JoinRequest, error) {
	var request models.JoinRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	return request, translate(err)
}

func (r *JoinRequestRepository) HasPending(ctx context.Context, email string) (bool, error) {
	n, err := countWhere(r.db.WithContext(ctx), &models.JoinRequest{}, "email = ? AND status = ?", email, models.JoinRequestStatusPending)
	return n > 0, err
}

func (r *JoinRequestRepository) List(ctx context.Context, status string, page Page) ([]models.JoinRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.JoinRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requests []models.JoinRequest
	err := page.apply(query).Order("created_at DESC").Find(&requests).Error
	return requests, total, err
}

// Review moves a PENDING request to status. A request that was already
// reviewed yields ErrAlreadyReviewed.
func (r *JoinRequestRepository) Review(ctx context.Context, id string, status models.JoinRequestStatus, reviewerID string, reason *string) (models.JoinRequest, error) {
	res := r.db.WithContext(ctx).
		Model(&models.JoinRequest{}).
		Where("id = ? AND status = ?", id, models.JoinRequestStatusPending).
		Updates(map[string]any{
			"status":           status,
			"reviewed_by":      reviewerID,
			"reviewed_at":      time.Now().UTC(),
			"rejection_reason": reason,
		})
	if res.Error != nil {
		return models.JoinRequest{}, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return models.JoinRequest{}, err
		}
		return models.JoinRequest{}, ErrAlreadyReviewed
	}
	return r.GetByID(ctx, id)
}

// CreateUser inserts the user of a request and links it in one transaction.
func (r *JoinRequestRepository) CreateUser(ctx context.Context, id string, user *models.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user.Email = strings.ToLower(strings.TrimSpace(user.Email))
		if err := tx.Create(user).Error; err != nil {
			return translate(err)
		}
		res := tx.Model(&models.JoinRequest{}).
			Where("id = ? AND user_id IS NULL", id).
			Update("user_id", user.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyProvisioned
		}
		return nil
	})
}
