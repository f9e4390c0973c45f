package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"propertyhub/internal/models"
	"propertyhub/internal/pipeline"
	"propertyhub/internal/repository"
)

type ownerRequest struct {
	UserID         *string          `json:"userId" binding:"required_without=OrganizationID,excluded_with=OrganizationID"`
	OrganizationID *string          `json:"organizationId" binding:"required_without=UserID"`
	SharePercent   *decimal.Decimal `json:"sharePercent" binding:"omitempty,gt=0,lte=100"`
}

func (r ownerRequest) model() models.ResourceOwner {
	return models.ResourceOwner{
		UserID:         r.UserID,
		OrganizationID: r.OrganizationID,
		SharePercent:   r.SharePercent,
	}
}

type propertyRequest struct {
	Label      string              `json:"label" binding:"required,max=200"`
	Type       models.ResourceType `json:"type" binding:"required,oneof=BUILDING UNIT COMMERCIAL_SPACE PARKING_SPOT STORAGE LAND"`
	ParentID   *string             `json:"parentId" binding:"omitempty,min=1"`
	Address    *string             `json:"address" binding:"omitempty,max=255"`
	City       *string             `json:"city" binding:"omitempty,max=120"`
	PostalCode *string             `json:"postalCode" binding:"omitempty,max=20"`
	Country    *string             `json:"country" binding:"omitempty,len=2"`
	Area       *decimal.Decimal    `json:"area" binding:"omitempty,gte=0"`
	Attributes map[string]any      `json:"attributes"`
	Owners     []ownerRequest      `json:"owners" binding:"omitempty,dive"`
}

func (r propertyRequest) fields() (map[string]any, error) {
	attributes, err := jsonColumn(r.Attributes)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"label":       r.Label,
		"type":        r.Type,
		"parent_id":   r.ParentID,
		"address":     r.Address,
		"city":        r.City,
		"postal_code": r.PostalCode,
		"country":     r.Country,
		"area":        r.Area,
		"attributes":  attributes,
	}, nil
}

type ownersRequest struct {
	Owners []ownerRequest `json:"owners" binding:"dive"`
}

func (h HandlerSet) ListProperties(c *gin.Context, user models.User) (pipeline.Result, error) {
	page, err := pageFromQuery(c)
	if err != nil {
		return pipeline.Result{}, err
	}
	resources, total, err := h.properties.List(c.Request.Context(), user, repository.ResourceFilter{
		Type:     c.Query("type"),
		ParentID: c.Query("parentId"),
		Search:   c.Query("search"),
	}, page)
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.List("properties", newResourceViews(resources), pagination(page, total)), nil
}

func (h HandlerSet) GetProperty(c *gin.Context, user models.User) (pipeline.Result, error) {
	resource, err := h.properties.Access(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.OK("property", newResourceView(resource)), nil
}

func (h HandlerSet) ListPropertyChildren(c *gin.Context, user models.User) (pipeline.Result, error) {
	children, err := h.properties.Children(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.OK("children", newResourceViews(children)), nil
}

func (h HandlerSet) CreateProperty(c *gin.Context, user models.User, req propertyRequest) (pipeline.Result, error) {
	attributes, err := jsonColumn(req.Attributes)
	if err != nil {
		return pipeline.Result{}, err
	}

	resource := models.Resource{
		Label:      req.Label,
		Type:       req.Type,
		ParentID:   req.ParentID,
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		Area:       req.Area,
		Attributes: attributes,
	}
	for _, o := range req.Owners {
		resource.Owners = append(resource.Owners, o.model())
	}

	created, err := h.properties.Create(c.Request.Context(), user, resource)
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.Created("property", newResourceView(created)), nil
}

func (h HandlerSet) UpdateProperty(c *gin.Context, user models.User, req propertyRequest) (pipeline.Result, error) {
	fields, err := req.fields()
	if err != nil {
		return pipeline.Result{}, err
	}
	resource, err := h.properties.Update(c.Request.Context(), user, c.Param("id"), fields)
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.OK("property", newResourceView(resource)), nil
}

func (h HandlerSet) ReplacePropertyOwners(c *gin.Context, user models.User, req ownersRequest) (pipeline.Result, error) {
	owners := make([]models.ResourceOwner, 0, len(req.Owners))
	for _, o := range req.Owners {
		owners = append(owners, o.model())
	}
	resource, err := h.properties.ReplaceOwners(c.Request.Context(), user, c.Param("id"), owners)
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.OK("property", newResourceView(resource)), nil
}

func (h HandlerSet) DeleteProperty(c *gin.Context, user models.User) (pipeline.Result, error) {
	if err := h.properties.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.Deleted("Property"), nil
}
