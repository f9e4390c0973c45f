package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"propertyhub/internal/models"
)

type ContractFilter struct {
	ResourceID string
	TenantID   string
	Status     string
	// OwnerUserID restricts the list to contracts on resources the user owns.
	OwnerUserID string
}

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) Create(ctx context.Context, contract *models.RentalContract) error {
	return translate(r.db.WithContext(ctx).Create(contract).Error)
}

func (r *ContractRepository) GetByID(ctx context.Context, id string) (models.RentalContract, error) {
	var contract models.RentalContract
	err := r.db.WithContext(ctx).
		Preload("Resource").
		Preload("Tenant").
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("due_date ASC") }).
		Where("id = ?", id).
		First(&contract).Error
	return contract, translate(err)
}

func (r *ContractRepository) List(ctx context.Context, filter ContractFilter, page Page) ([]models.RentalContract, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.RentalContract{})
	if filter.ResourceID != "" {
		query = query.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.TenantID != "" {
		query = query.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OwnerUserID != "" {
		owned := r.db.Model(&models.ResourceOwner{}).Select("resource_id").Where("user_id = ?", filter.OwnerUserID)
		query = query.Where("resource_id IN (?)", owned)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var contracts []models.RentalContract
	err := page.apply(query).
		Preload("Resource").
		Preload("Tenant").
		Order("start_date DESC").
		Find(&contracts).Error
	return contracts, total, err
}

func (r *ContractRepository) Update(ctx context.Context, id string, fields map[string]any) (models.RentalContract, error) {
	res := r.db.WithContext(ctx).Model(&models.RentalContract{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return models.RentalContract{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.RentalContract{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes the contract and its payment history.
func (r *ContractRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contract_id = ?", id).Delete(&models.RentPayment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.RentalContract{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *ContractRepository) ListPayments(ctx context.Context, contractID string) ([]models.RentPayment, error) {
	var payments []models.RentPayment
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("due_date ASC").
		Find(&payments).Error
	return payments, err
}

func (r *ContractRepository) CreatePayment(ctx context.Context, payment *models.RentPayment) error {
	return translate(r.db.WithContext(ctx).Create(payment).Error)
}

func (r *ContractRepository) UpdatePayment(ctx context.Context, contractID, paymentID string, fields map[string]any) (models.RentPayment, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RentPayment{}).
		Where("id = ? AND contract_id = ?", paymentID, contractID).
		Updates(fields)
	if res.Error != nil {
		return models.RentPayment{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.RentPayment{}, ErrNotFound
	}

	var payment models.RentPayment
	err := r.db.WithContext(ctx).Where("id = ?", paymentID).First(&payment).Error
	return payment, translate(err)
}

// ExpireEnded marks ACTIVE contracts whose end date is before now as EXPIRED.
func (r *ContractRepository) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RentalContract{}).
		Where("status = ? AND end_date IS NOT NULL AND end_date < ?", models.ContractStatusActive, now).
		Update("status", models.ContractStatusExpired)
	return res.RowsAffected, res.Error
}

// MarkLatePayments marks PENDING payments due before now as LATE.
func (r *ContractRepository) MarkLatePayments(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RentPayment{}).
		Where("status = ? AND due_date < ?", models.PaymentStatusPending, now).
		Update("status", models.PaymentStatusLate)
	return res.RowsAffected, res.Error
}
