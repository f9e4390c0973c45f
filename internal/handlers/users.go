package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"propertyhub/internal/models"
	"propertyhub/internal/pipeline"
	"propertyhub/internal/repository"
	"propertyhub/internal/service"
)

type userRequest struct {
	Email          string          `json:"email" binding:"required,email,max=255"`
	Name           string          `json:"name" binding:"required,max=200"`
	Phone          *string         `json:"phone" binding:"omitempty,max=40"`
	Role           models.UserRole `json:"role" binding:"required,oneof=ADMIN PROPERTY_MANAGER OWNER TENANT SERVICE_PROVIDER"`
	OrganizationID *string         `json:"organizationId" binding:"omitempty,min=1"`
	Password       *string         `json:"password" binding:"omitempty,min=8,max=128"`
}

func (h HandlerSet) ListUsers(c *gin.Context, _ models.User) (pipeline.Result, error) {
	page, err := pageFromQuery(c)
	if err != nil {
		return pipeline.Result{}, err
	}
	users, total, err := h.userRepo.List(c.Request.Context(), repository.UserFilter{
		Role:           c.Query("role"),
		OrganizationID: c.Query("organizationId"),
		Search:         c.Query("search"),
	}, page)
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.List("users", newUserViews(users), pagination(page, total)), nil
}

func (h HandlerSet) GetUser(c *gin.Context, _ models.User) (pipeline.Result, error) {
	user, err := h.userRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.OK("user", newUserView(user)), nil
}

func (h HandlerSet) CreateUser(c *gin.Context, _ models.User, req userRequest) (pipeline.Result, error) {
	user, err := h.auth.CreateUser(c.Request.Context(), service.CreateUserInput{
		Email:          req.Email,
		Name:           req.Name,
		Phone:          req.Phone,
		Role:           req.Role,
		OrganizationID: req.OrganizationID,
		Password:       req.Password,
	})
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.Created("user", newUserView(user)), nil
}

// UpdateUser ignores password; credentials belong to the identity provider.
func (h HandlerSet) UpdateUser(c *gin.Context, _ models.User, req userRequest) (pipeline.Result, error) {
	user, err := h.auth.UpdateUser(c.Request.Context(), c.Param("id"), map[string]any{
		"email":           strings.ToLower(strings.TrimSpace(req.Email)),
		"name":            strings.TrimSpace(req.Name),
		"phone":           req.Phone,
		"role":            req.Role,
		"organization_id": req.OrganizationID,
	})
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.OK("user", newUserView(user)), nil
}

func (h HandlerSet) DeleteUser(c *gin.Context, actor models.User) (pipeline.Result, error) {
	if err := h.auth.DeleteUser(c.Request.Context(), actor, c.Param("id")); err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.Deleted("User"), nil
}
