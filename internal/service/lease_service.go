package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"propertyhub/internal/models"
	"propertyhub/internal/repository"
)

// LeaseService manages rental contracts and their rent payments.
type LeaseService struct {
	contracts  *repository.ContractRepository
	users      *repository.UserRepository
	properties *PropertyService
	log        zerolog.Logger
}

func NewLeaseService(contracts *repository.ContractRepository, users *repository.UserRepository, properties *PropertyService, log zerolog.Logger) *LeaseService {
	return &LeaseService{
		contracts:  contracts,
		users:      users,
		properties: properties,
		log:        log,
	}
}

func (s *LeaseService) List(ctx context.Context, user models.User, filter repository.ContractFilter, page repository.Page) ([]models.RentalContract, int64, error) {
	if user.Role == models.UserRoleOwner {
		filter.OwnerUserID = user.ID
	}
	return s.contracts.List(ctx, filter, page)
}

// Get loads a contract, hiding contracts on resources an OWNER does not own.
func (s *LeaseService) Get(ctx context.Context, user models.User, id string) (models.RentalContract, error) {
	contract, err := s.contracts.GetByID(ctx, id)
	if err != nil {
		return models.RentalContract{}, err
	}
	if err := s.properties.CheckAccess(ctx, user, contract.ResourceID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return contract, nil
		}
		return models.RentalContract{}, err
	}
	return contract, nil
}

func (s *LeaseService) Create(ctx context.Context, user models.User, contract models.RentalContract) (models.RentalContract, error) {
	if err := s.checkRefs(ctx, user, contract.ResourceID, contract.TenantID); err != nil {
		return models.RentalContract{}, err
	}
	if contract.Status == "" {
		contract.Status = models.ContractStatusDraft
	}
	if contract.Currency == "" {
		contract.Currency = "EUR"
	}
	if err := checkPeriod(contract.StartDate, contract.EndDate); err != nil {
		return models.RentalContract{}, err
	}
	if err := s.contracts.Create(ctx, &contract); err != nil {
		return models.RentalContract{}, err
	}
	return s.contracts.GetByID(ctx, contract.ID)
}

func (s *LeaseService) Update(ctx context.Context, user models.User, id string, fields map[string]any) (models.RentalContract, error) {
	if _, err := s.contracts.GetByID(ctx, id); err != nil {
		return models.RentalContract{}, err
	}
	resourceID, _ := fields["resource_id"].(string)
	tenantID, _ := fields["tenant_id"].(string)
	if err := s.checkRefs(ctx, user, resourceID, tenantID); err != nil {
		return models.RentalContract{}, err
	}
	start, _ := fields["start_date"].(time.Time)
	end, _ := fields["end_date"].(*time.Time)
	if err := checkPeriod(start, end); err != nil {
		return models.RentalContract{}, err
	}
	return s.contracts.Update(ctx, id, fields)
}

func (s *LeaseService) Delete(ctx context.Context, id string) error {
	return s.contracts.Delete(ctx, id)
}

func (s *LeaseService) Payments(ctx context.Context, user models.User, contractID string) ([]models.RentPayment, error) {
	if _, err := s.Get(ctx, user, contractID); err != nil {
		return nil, err
	}
	return s.contracts.ListPayments(ctx, contractID)
}

func (s *LeaseService) AddPayment(ctx context.Context, contractID string, payment models.RentPayment) (models.RentPayment, error) {
	if _, err := s.contracts.GetByID(ctx, contractID); err != nil {
		return models.RentPayment{}, err
	}
	payment.ContractID = contractID
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	if err := s.contracts.CreatePayment(ctx, &payment); err != nil {
		return models.RentPayment{}, err
	}
	return payment, nil
}

func (s *LeaseService) UpdatePayment(ctx context.Context, contractID, paymentID string, fields map[string]any) (models.RentPayment, error) {
	return s.contracts.UpdatePayment(ctx, contractID, paymentID, fields)
}

// ExpireEnded and MarkLatePayments are run by the worker on a schedule.
func (s *LeaseService) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	return s.contracts.ExpireEnded(ctx, now)
}

func (s *LeaseService) MarkLatePayments(ctx context.Context, now time.Time) (int64, error) {
	return s.contracts.MarkLatePayments(ctx, now)
}

func (s *LeaseService) checkRefs(ctx context.Context, user models.User, resourceID, tenantID string) error {
	if resourceID != "" {
		if err := s.properties.CheckAccess(ctx, user, resourceID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return rule("Property not found.")
			}
			return err
		}
	}
	if tenantID != "" {
		if _, err := s.users.GetByID(ctx, tenantID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return rule("Tenant not found.")
			}
			return err
		}
	}
	return nil
}

func checkPeriod(start time.Time, end *time.Time) error {
	if end != nil && !start.IsZero() && end.Before(start) {
		return rule("End date must not be before start date.")
	}
	return nil
}
