package handlers

import (
	"github.com/gin-gonic/gin"

	"propertyhub/internal/models"
	"propertyhub/internal/pipeline"
)

type organizationRequest struct {
	Name string `json:"name" binding:"required,max=200"`
	Slug string `json:"slug" binding:"omitempty,max=200"`
}

func (h HandlerSet) ListOrganizations(c *gin.Context, _ models.User) (pipeline.Result, error) {
	page, err := pageFromQuery(c)
	if err != nil {
		return pipeline.Result{}, err
	}
	orgs, total, err := h.orgRepo.List(c.Request.Context(), c.Query("search"), page)
	if err != nil {
		return pipeline.Result{}, err
	}
	views := make([]organizationView, 0, len(orgs))
	for _, org := range orgs {
		views = append(views, newOrganizationView(org))
	}
	return pipeline.List("organizations", views, pagination(page, total)), nil
}

func (h HandlerSet) GetOrganization(c *gin.Context, _ models.User) (pipeline.Result, error) {
	org, err := h.orgRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.OK("organization", newOrganizationView(org)), nil
}

func (h HandlerSet) CreateOrganization(c *gin.Context, _ models.User, req organizationRequest) (pipeline.Result, error) {
	org, err := h.organizations.Create(c.Request.Context(), req.Name, req.Slug)
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.Created("organization", newOrganizationView(org)), nil
}

func (h HandlerSet) UpdateOrganization(c *gin.Context, _ models.User, req organizationRequest) (pipeline.Result, error) {
	org, err := h.organizations.Update(c.Request.Context(), c.Param("id"), req.Name, req.Slug)
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.OK("organization", newOrganizationView(org)), nil
}

func (h HandlerSet) DeleteOrganization(c *gin.Context, _ models.User) (pipeline.Result, error) {
	if err := h.organizations.Delete(c.Request.Context(), c.Param("id")); err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.Deleted("Organization"), nil
}
