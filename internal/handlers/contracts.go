package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"propertyhub/internal/models"
	"propertyhub/internal/pipeline"
	"propertyhub/internal/repository"
)

type contractRequest struct {
	ResourceID    string                `json:"resourceId" binding:"required"`
	TenantID      string                `json:"tenantId" binding:"required"`
	Status        models.ContractStatus `json:"status" binding:"omitempty,oneof=DRAFT ACTIVE EXPIRED TERMINATED RENEWED"`
	StartDate     string                `json:"startDate" binding:"required,iso8601"`
	EndDate       *string               `json:"endDate" binding:"omitempty,iso8601"`
	RentAmount    decimal.Decimal       `json:"rentAmount" binding:"required,gt=0"`
	DepositAmount *decimal.Decimal      `json:"depositAmount" binding:"omitempty,gte=0"`
	Currency      string                `json:"currency" binding:"omitempty,len=3"`
	PaymentDay    int                   `json:"paymentDay" binding:"required,min=1,max=28"`
	Notes         *string               `json:"notes" binding:"omitempty,max=5000"`
}

func (r contractRequest) model() (models.RentalContract, error) {
	start, err := parseDate("startDate", r.StartDate)
	if err != nil {
		return models.RentalContract{}, err
	}
	end, err := parseDatePtr("endDate", r.EndDate)
	if err != nil {
		return models.RentalContract{}, err
	}
	return models.RentalContract{
		ResourceID:    r.ResourceID,
		TenantID:      r.TenantID,
		Status:        r.Status,
		StartDate:     start,
		EndDate:       end,
		RentAmount:    r.RentAmount,
		DepositAmount: r.DepositAmount,
		Currency:      r.Currency,
		PaymentDay:    r.PaymentDay,
		Notes:         r.Notes,
	}, nil
}

func (r contractRequest) fields() (map[string]any, error) {
	contract, err := r.model()
	if err != nil {
		return nil, err
	}
	if contract.Status == "" {
		contract.Status = models.ContractStatusDraft
	}
	if contract.Currency == "" {
		contract.Currency = "EUR"
	}
	return map[string]any{
		"resource_id":    contract.ResourceID,
		"tenant_id":      contract.TenantID,
		"status":         contract.Status,
		"start_date":     contract.StartDate,
		"end_date":       contract.EndDate,
		"rent_amount":    contract.RentAmount,
		"deposit_amount": contract.DepositAmount,
		"currency":       contract.Currency,
		"payment_day":    contract.PaymentDay,
		"notes":          contract.Notes,
	}, nil
}

type paymentRequest struct {
	Amount    decimal.Decimal      `json:"amount" binding:"required,gt=0"`
	DueDate   string               `json:"dueDate" binding:"required,iso8601"`
	PaidAt    *string              `json:"paidAt" binding:"omitempty,iso8601"`
	Status    models.PaymentStatus `json:"status" binding:"omitempty,oneof=PENDING PAID LATE CANCELLED"`
	Reference *string              `json:"reference" binding:"omitempty,max=120"`
}

func (r paymentRequest) model() (models.RentPayment, error) {
	due, err := parseDate("dueDate", r.DueDate)
	if err != nil {
		return models.RentPayment{}, err
	}
	paid, err := parseDatePtr("paidAt", r.PaidAt)
	if err != nil {
		return models.RentPayment{}, err
	}
	return models.RentPayment{
		Amount:    r.Amount,
		DueDate:   due,
		PaidAt:    paid,
		Status:    r.Status,
		Reference: r.Reference,
	}, nil
}

func (h HandlerSet) ListContracts(c *gin.Context, user models.User) (pipeline.Result, error) {
	page, err := pageFromQuery(c)
	if err != nil {
		return pipeline.Result{}, err
	}
	contracts, total, err := h.leases.List(c.Request.Context(), user, repository.ContractFilter{
		ResourceID: c.Query("resourceId"),
		TenantID:   c.Query("tenantId"),
		Status:     c.Query("status"),
	}, page)
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.List("contracts", newContractViews(contracts), pagination(page, total)), nil
}

func (h HandlerSet) GetContract(c *gin.Context, user models.User) (pipeline.Result, error) {
	contract, err := h.leases.Get(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.OK("contract", newContractView(contract)), nil
}

func (h HandlerSet) CreateContract(c *gin.Context, user models.User, req contractRequest) (pipeline.Result, error) {
	contract, err := req.model()
	if err != nil {
		return pipeline.Result{}, err
	}
	created, err := h.leases.Create(c.Request.Context(), user, contract)
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.Created("contract", newContractView(created)), nil
}

func (h HandlerSet) UpdateContract(c *gin.Context, user models.User, req contractRequest) (pipeline.Result, error) {
	fields, err := req.fields()
	if err != nil {
		return pipeline.Result{}, err
	}
	contract, err := h.leases.Update(c.Request.Context(), user, c.Param("id"), fields)
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.OK("contract", newContractView(contract)), nil
}

func (h HandlerSet) DeleteContract(c *gin.Context, _ models.User) (pipeline.Result, error) {
	if err := h.leases.Delete(c.Request.Context(), c.Param("id")); err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.Deleted("Contract"), nil
}

func (h HandlerSet) ListContractPayments(c *gin.Context, user models.User) (pipeline.Result, error) {
	payments, err := h.leases.Payments(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.OK("payments", newPaymentViews(payments)), nil
}

func (h HandlerSet) CreateContractPayment(c *gin.Context, _ models.User, req paymentRequest) (pipeline.Result, error) {
	payment, err := req.model()
	if err != nil {
		return pipeline.Result{}, err
	}
	created, err := h.leases.AddPayment(c.Request.Context(), c.Param("id"), payment)
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.Created("payment", newPaymentView(created)), nil
}

func (h HandlerSet) UpdateContractPayment(c *gin.Context, _ models.User, req paymentRequest) (pipeline.Result, error) {
	payment, err := req.model()
	if err != nil {
		return pipeline.Result{}, err
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	updated, err := h.leases.UpdatePayment(c.Request.Context(), c.Param("id"), c.Param("paymentId"), map[string]any{
		"amount":    payment.Amount,
		"due_date":  payment.DueDate,
		"paid_at":   payment.PaidAt,
		"status":    payment.Status,
		"reference": payment.Reference,
	})
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.OK("payment", newPaymentView(updated)), nil
}
