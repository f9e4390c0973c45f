package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"propertyhub/internal/models"
	"propertyhub/internal/pipeline"
	"propertyhub/internal/render"
	"propertyhub/internal/service"
	"propertyhub/internal/validate"
)

type joinRequestSubmission struct {
	Email            string          `json:"email" binding:"required,email,max=255"`
	Name             string          `json:"name" binding:"required,max=200"`
	Phone            *string         `json:"phone" binding:"omitempty,max=40"`
	RequestedRole    models.UserRole `json:"requestedRole" binding:"required,oneof=PROPERTY_MANAGER OWNER TENANT SERVICE_PROVIDER"`
	OrganizationName *string         `json:"organizationName" binding:"omitempty,max=200"`
	Message          *string         `json:"message" binding:"omitempty,max=2000"`
	Password         string          `json:"password" binding:"required,min=8,max=128"`
}

type rejectRequest struct {
	Reason *string `json:"reason" binding:"omitempty,max=2000"`
}

// SubmitJoinRequest is public, so it runs outside the authenticated pipeline.
func (h HandlerSet) SubmitJoinRequest(c *gin.Context) {
	req, violations := validate.Bind[joinRequestSubmission](c)
	if violations != nil {
		render.ErrorDetails(c, http.StatusBadRequest, "Validation failed", violations)
		return
	}

	request, err := h.joinRequests.Submit(c.Request.Context(), service.SubmitJoinRequestInput{
		Email:            req.Email,
		Name:             req.Name,
		Phone:            req.Phone,
		RequestedRole:    req.RequestedRole,
		OrganizationName: req.OrganizationName,
		Message:          req.Message,
		Password:         req.Password,
	})
	if err != nil {
		pipeline.Fail(c, err)
		return
	}
	pipeline.Write(c, pipeline.Created("joinRequest", newJoinRequestView(request)))
}

func (h HandlerSet) ListJoinRequests(c *gin.Context, _ models.User) (pipeline.Result, error) {
	page, err := pageFromQuery(c)
	if err != nil {
		return pipeline.Result{}, err
	}
	requests, total, err := h.joinRequestRepo.List(c.Request.Context(), c.Query("status"), page)
	if err != nil {
		return pipeline.Result{}, err
	}
	views := make([]joinRequestView, 0, len(requests))
	for _, r := range requests {
		views = append(views, newJoinRequestView(r))
	}
	return pipeline.List("joinRequests", views, pagination(page, total)), nil
}

func (h HandlerSet) GetJoinRequest(c *gin.Context, _ models.User) (pipeline.Result, error) {
	request, err := h.joinRequestRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.OK("joinRequest", newJoinRequestView(request)), nil
}

func (h HandlerSet) ApproveJoinRequest(c *gin.Context, reviewer models.User) (pipeline.Result, error) {
	request, err := h.joinRequests.Approve(c.Request.Context(), reviewer, c.Param("id"))
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.OK("joinRequest", newJoinRequestView(request)), nil
}

func (h HandlerSet) RejectJoinRequest(c *gin.Context, reviewer models.User, req rejectRequest) (pipeline.Result, error) {
	request, err := h.joinRequests.Reject(c.Request.Context(), reviewer, c.Param("id"), req.Reason)
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.OK("joinRequest", newJoinRequestView(request)), nil
}
