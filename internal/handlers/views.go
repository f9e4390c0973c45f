package handlers

import (
	"encoding/hex"
	"encoding/json"

	"gorm.io/datatypes"

	"propertyhub/internal/models"
	"propertyhub/internal/render"
)

type organizationView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	Users     []userView `json:"users,omitempty"`
	CreatedAt string     `json:"createdAt"`
	UpdatedAt string     `json:"updatedAt"`
}

func newOrganizationView(org models.Organization) organizationView {
	view := organizationView{
		ID:        org.ID,
		Name:      org.Name,
		Slug:      org.Slug,
		CreatedAt: render.ISO(org.CreatedAt),
		UpdatedAt: render.ISO(org.UpdatedAt),
	}
	for _, u := range org.Users {
		view.Users = append(view.Users, newUserView(u))
	}
	return view
}

type userView struct {
	ID             string            `json:"id"`
	Email          string            `json:"email"`
	Name           string            `json:"name"`
	Phone          *string           `json:"phone"`
	Role           models.UserRole   `json:"role"`
	OrganizationID *string           `json:"organizationId"`
	Organization   *organizationView `json:"organization,omitempty"`
	CreatedAt      string            `json:"createdAt"`
	UpdatedAt      string            `json:"updatedAt"`
}

func newUserView(u models.User) userView {
	view := userView{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Phone:          u.Phone,
		Role:           u.Role,
		OrganizationID: u.OrganizationID,
		CreatedAt:      render.ISO(u.CreatedAt),
		UpdatedAt:      render.ISO(u.UpdatedAt),
	}
	if u.Organization != nil {
		org := newOrganizationView(*u.Organization)
		view.Organization = &org
	}
	return view
}

func newUserViews(users []models.User) []userView {
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, newUserView(u))
	}
	return out
}

type ownerView struct {
	ID             string            `json:"id"`
	UserID         *string           `json:"userId"`
	OrganizationID *string           `json:"organizationId"`
	SharePercent   *json.Number      `json:"sharePercent"`
	User           *userView         `json:"user,omitempty"`
	Organization   *organizationView `json:"organization,omitempty"`
}

type resourceSummary struct {
	ID    string              `json:"id"`
	Label string              `json:"label"`
	Type  models.ResourceType `json:"type"`
}

type resourceView struct {
	ID         string              `json:"id"`
	Label      string              `json:"label"`
	Type       models.ResourceType `json:"type"`
	ParentID   *string             `json:"parentId"`
	Address    *string             `json:"address"`
	City       *string             `json:"city"`
	PostalCode *string             `json:"postalCode"`
	Country    *string             `json:"country"`
	Area       *json.Number        `json:"area"`
	Attributes datatypes.JSON      `json:"attributes"`
	Owners     []ownerView         `json:"owners"`
	Parent     *resourceSummary    `json:"parent,omitempty"`
	Children   []resourceSummary   `json:"children,omitempty"`
	CreatedAt  string              `json:"createdAt"`
	UpdatedAt  string              `json:"updatedAt"`
}

func newResourceView(r models.Resource) resourceView {
	view := resourceView{
		ID:         r.ID,
		Label:      r.Label,
		Type:       r.Type,
		ParentID:   r.ParentID,
		Address:    r.Address,
		City:       r.City,
		PostalCode: r.PostalCode,
		Country:    r.Country,
		Area:       render.NumberPtr(r.Area),
		Attributes: r.Attributes,
		Owners:     make([]ownerView, 0, len(r.Owners)),
		CreatedAt:  render.ISO(r.CreatedAt),
		UpdatedAt:  render.ISO(r.UpdatedAt),
	}
	for _, o := range r.Owners {
		owner := ownerView{
			ID:             o.ID,
			UserID:         o.UserID,
			OrganizationID: o.OrganizationID,
			SharePercent:   render.NumberPtr(o.SharePercent),
		}
		if o.User != nil {
			u := newUserView(*o.User)
			owner.User = &u
		}
		if o.Organization != nil {
			org := newOrganizationView(*o.Organization)
			owner.Organization = &org
		}
		view.Owners = append(view.Owners, owner)
	}
	if r.Parent != nil {
		view.Parent = &resourceSummary{ID: r.Parent.ID, Label: r.Parent.Label, Type: r.Parent.Type}
	}
	for _, child := range r.Children {
		view.Children = append(view.Children, resourceSummary{ID: child.ID, Label: child.Label, Type: child.Type})
	}
	return view
}

func newResourceViews(resources []models.Resource) []resourceView {
	out := make([]resourceView, 0, len(resources))
	for _, r := range resources {
		out = append(out, newResourceView(r))
	}
	return out
}

type participantView struct {
	ID        string                   `json:"id"`
	EventID   string                   `json:"eventId"`
	UserID    string                   `json:"userId"`
	Role      models.ParticipantRole   `json:"role"`
	Status    models.ParticipantStatus `json:"status"`
	User      *userView                `json:"user,omitempty"`
	CreatedAt string                   `json:"createdAt"`
	UpdatedAt string                   `json:"updatedAt"`
}

func newParticipantView(p models.EventParticipant) participantView {
	view := participantView{
		ID:        p.ID,
		EventID:   p.EventID,
		UserID:    p.UserID,
		Role:      p.Role,
		Status:    p.Status,
		CreatedAt: render.ISO(p.CreatedAt),
		UpdatedAt: render.ISO(p.UpdatedAt),
	}
	if p.User != nil {
		u := newUserView(*p.User)
		view.User = &u
	}
	return view
}

type eventView struct {
	ID           string             `json:"id"`
	Label        string             `json:"label"`
	Type         models.EventType   `json:"type"`
	Status       models.EventStatus `json:"status"`
	ResourceID   string             `json:"resourceId"`
	StartDate    string             `json:"startDate"`
	EndDate      *string            `json:"endDate"`
	Amount       *json.Number       `json:"amount"`
	Notes        *string            `json:"notes"`
	Resource     *resourceSummary   `json:"resource,omitempty"`
	Participants []participantView  `json:"participants"`
	CreatedAt    string             `json:"createdAt"`
	UpdatedAt    string             `json:"updatedAt"`
}

func newEventView(e models.Event) eventView {
	view := eventView{
		ID:           e.ID,
		Label:        e.Label,
		Type:         e.Type,
		Status:       e.Status,
		ResourceID:   e.ResourceID,
		StartDate:    render.ISO(e.StartDate),
		EndDate:      render.ISOPtr(e.EndDate),
		Amount:       render.NumberPtr(e.Amount),
		Notes:        e.Notes,
		Participants: make([]participantView, 0, len(e.Participants)),
		CreatedAt:    render.ISO(e.CreatedAt),
		UpdatedAt:    render.ISO(e.UpdatedAt),
	}
	if e.Resource != nil {
		view.Resource = &resourceSummary{ID: e.Resource.ID, Label: e.Resource.Label, Type: e.Resource.Type}
	}
	for _, p := range e.Participants {
		view.Participants = append(view.Participants, newParticipantView(p))
	}
	return view
}

func newEventViews(events []models.Event) []eventView {
	out := make([]eventView, 0, len(events))
	for _, e := range events {
		out = append(out, newEventView(e))
	}
	return out
}

type paymentView struct {
	ID         string               `json:"id"`
	ContractID string               `json:"contractId"`
	Amount     json.Number          `json:"amount"`
	DueDate    string               `json:"dueDate"`
	PaidAt     *string              `json:"paidAt"`
	Status     models.PaymentStatus `json:"status"`
	Reference  *string              `json:"reference"`
	CreatedAt  string               `json:"createdAt"`
	UpdatedAt  string               `json:"updatedAt"`
}

func newPaymentView(p models.RentPayment) paymentView {
	return paymentView{
		ID:         p.ID,
		ContractID: p.ContractID,
		Amount:     render.Number(p.Amount),
		DueDate:    render.ISO(p.DueDate),
		PaidAt:     render.ISOPtr(p.PaidAt),
		Status:     p.Status,
		Reference:  p.Reference,
		CreatedAt:  render.ISO(p.CreatedAt),
		UpdatedAt:  render.ISO(p.UpdatedAt),
	}
}

func newPaymentViews(payments []models.RentPayment) []paymentView {
	out := make([]paymentView, 0, len(payments))
	for _, p := range payments {
		out = append(out, newPaymentView(p))
	}
	return out
}

type contractView struct {
	ID            string                `json:"id"`
	ResourceID    string                `json:"resourceId"`
	TenantID      string                `json:"tenantId"`
	Status        models.ContractStatus `json:"status"`
	StartDate     string                `json:"startDate"`
	EndDate       *string               `json:"endDate"`
	RentAmount    json.Number           `json:"rentAmount"`
	DepositAmount *json.Number          `json:"depositAmount"`
	Currency      string                `json:"currency"`
	PaymentDay    int                   `json:"paymentDay"`
	Notes         *string               `json:"notes"`
	Resource      *resourceSummary      `json:"resource,omitempty"`
	Tenant        *userView             `json:"tenant,omitempty"`
	Payments      []paymentView         `json:"payments,omitempty"`
	CreatedAt     string                `json:"createdAt"`
	UpdatedAt     string                `json:"updatedAt"`
}

func newContractView(c models.RentalContract) contractView {
	view := contractView{
		ID:            c.ID,
		ResourceID:    c.ResourceID,
		TenantID:      c.TenantID,
		Status:        c.Status,
		StartDate:     render.ISO(c.StartDate),
		EndDate:       render.ISOPtr(c.EndDate),
		RentAmount:    render.Number(c.RentAmount),
		DepositAmount: render.NumberPtr(c.DepositAmount),
		Currency:      c.Currency,
		PaymentDay:    c.PaymentDay,
		Notes:         c.Notes,
		CreatedAt:     render.ISO(c.CreatedAt),
		UpdatedAt:     render.ISO(c.UpdatedAt),
	}
	if c.Resource != nil {
		view.Resource = &resourceSummary{ID: c.Resource.ID, Label: c.Resource.Label, Type: c.Resource.Type}
	}
	if c.Tenant != nil {
		tenant := newUserView(*c.Tenant)
		view.Tenant = &tenant
	}
	for _, p := range c.Payments {
		view.Payments = append(view.Payments, newPaymentView(p))
	}
	return view
}

func newContractViews(contracts []models.RentalContract) []contractView {
	out := make([]contractView, 0, len(contracts))
	for _, c := range contracts {
		out = append(out, newContractView(c))
	}
	return out
}

type joinRequestView struct {
	ID               string                   `json:"id"`
	Email            string                   `json:"email"`
	Name             string                   `json:"name"`
	Phone            *string                  `json:"phone"`
	RequestedRole    models.UserRole          `json:"requestedRole"`
	OrganizationName *string                  `json:"organizationName"`
	Message          *string                  `json:"message"`
	Status           models.JoinRequestStatus `json:"status"`
	ReviewedBy       *string                  `json:"reviewedBy"`
	ReviewedAt       *string                  `json:"reviewedAt"`
	RejectionReason  *string                  `json:"rejectionReason"`
	UserID           *string                  `json:"userId"`
	CreatedAt        string                   `json:"createdAt"`
	UpdatedAt        string                   `json:"updatedAt"`
}

func newJoinRequestView(j models.JoinRequest) joinRequestView {
	return joinRequestView{
		ID:               j.ID,
		Email:            j.Email,
		Name:             j.Name,
		Phone:            j.Phone,
		RequestedRole:    j.RequestedRole,
		OrganizationName: j.OrganizationName,
		Message:          j.Message,
		Status:           j.Status,
		ReviewedBy:       j.ReviewedBy,
		ReviewedAt:       render.ISOPtr(j.ReviewedAt),
		RejectionReason:  j.RejectionReason,
		UserID:           j.UserID,
		CreatedAt:        render.ISO(j.CreatedAt),
		UpdatedAt:        render.ISO(j.UpdatedAt),
	}
}

type documentView struct {
	ID          string              `json:"id"`
	ResourceID  string              `json:"resourceId"`
	UploadedBy  string              `json:"uploadedBy"`
	FileName    string              `json:"fileName"`
	ContentType string              `json:"contentType"`
	Kind        models.DocumentKind `json:"kind"`
	SizeBytes   int64               `json:"sizeBytes"`
	Checksum    string              `json:"checksum"`
	URL         string              `json:"url,omitempty"`
	CreatedAt   string              `json:"createdAt"`
}

func newDocumentView(d models.ResourceDocument) documentView {
	return documentView{
		ID:          d.ID,
		ResourceID:  d.ResourceID,
		UploadedBy:  d.UploadedBy,
		FileName:    d.FileName,
		ContentType: d.ContentType,
		Kind:        d.Kind,
		SizeBytes:   d.SizeBytes,
		Checksum:    hex.EncodeToString(d.Checksum),
		CreatedAt:   render.ISO(d.CreatedAt),
	}
}
