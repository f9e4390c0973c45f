package repository

import (
	"context"

	"gorm.io/gorm"

	"propertyhub/internal/models"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.ResourceDocument) error {
	return translate(r.db.WithContext(ctx).Create(doc).Error)
}

func (r *DocumentRepository) Get(ctx context.Context, resourceID, id string) (models.ResourceDocument, error) {
	var doc models.ResourceDocument
	err := r.db.WithContext(ctx).
		Where("id = ? AND resource_id = ?", id, resourceID).
		First(&doc).Error
	return doc, translate(err)
}

func (r *DocumentRepository) ListByResource(ctx context.Context, resourceID string) ([]models.ResourceDocument, error) {
	var docs []models.ResourceDocument
	err := r.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}

func (r *DocumentRepository) Delete(ctx context.Context, resourceID, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND resource_id = ?", id, resourceID).
		Delete(&models.ResourceDocument{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
