package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"propertyhub/internal/models"
	"propertyhub/internal/pipeline"
	"propertyhub/internal/repository"
)

type participantRequest struct {
	UserID string                   `json:"userId" binding:"required"`
	Role   models.ParticipantRole   `json:"role" binding:"required,oneof=ORGANIZER ASSIGNEE ATTENDEE"`
	Status models.ParticipantStatus `json:"status" binding:"omitempty,oneof=INVITED ACCEPTED DECLINED COMPLETED"`
}

type eventRequest struct {
	Label        string               `json:"label" binding:"required,max=200"`
	Type         models.EventType     `json:"type" binding:"required,oneof=LEASE_AGREEMENT RENT_PAYMENT MAINTENANCE_REQUEST INSPECTION MOVE_IN MOVE_OUT CONTRACT_RENEWAL TERMINATION_NOTICE"`
	Status       models.EventStatus   `json:"status" binding:"required,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
	ResourceID   string               `json:"resourceId" binding:"required"`
	StartDate    string               `json:"startDate" binding:"required,iso8601"`
	EndDate      *string              `json:"endDate" binding:"omitempty,iso8601"`
	Amount       *decimal.Decimal     `json:"amount" binding:"omitempty,gte=0"`
	Notes        *string              `json:"notes" binding:"omitempty,max=5000"`
	Participants []participantRequest `json:"participants" binding:"omitempty,dive"`
}

// fields lists every updatable column; absent optional values clear theirs.
func (r eventRequest) fields() (map[string]any, error) {
	start, err := parseDate("startDate", r.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDatePtr("endDate", r.EndDate)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"label":       r.Label,
		"type":        r.Type,
		"status":      r.Status,
		"resource_id": r.ResourceID,
		"start_date":  start,
		"end_date":    end,
		"amount":      r.Amount,
		"notes":       r.Notes,
	}, nil
}

func (h HandlerSet) ListEvents(c *gin.Context, _ models.User) (pipeline.Result, error) {
	page, err := pageFromQuery(c)
	if err != nil {
		return pipeline.Result{}, err
	}
	events, total, err := h.eventRepo.List(c.Request.Context(), repository.EventFilter{
		ResourceID: c.Query("resourceId"),
		Status:     c.Query("status"),
		Type:       c.Query("type"),
	}, page)
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.List("events", newEventViews(events), pagination(page, total)), nil
}

func (h HandlerSet) GetEvent(c *gin.Context, _ models.User) (pipeline.Result, error) {
	event, err := h.eventRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.OK("event", newEventView(event)), nil
}

func (h HandlerSet) CreateEvent(c *gin.Context, _ models.User, req eventRequest) (pipeline.Result, error) {
	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		return pipeline.Result{}, err
	}
	end, err := parseDatePtr("endDate", req.EndDate)
	if err != nil {
		return pipeline.Result{}, err
	}

	event := models.Event{
		Label:      req.Label,
		Type:       req.Type,
		Status:     req.Status,
		ResourceID: req.ResourceID,
		StartDate:  start,
		EndDate:    end,
		Amount:     req.Amount,
		Notes:      req.Notes,
	}
	for _, p := range req.Participants {
		status := p.Status
		if status == "" {
			status = models.ParticipantStatusInvited
		}
		event.Participants = append(event.Participants, models.EventParticipant{
			UserID: p.UserID,
			Role:   p.Role,
			Status: status,
		})
	}

	created, err := h.events.Create(c.Request.Context(), event)
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.Created("event", newEventView(created)), nil
}

func (h HandlerSet) UpdateEvent(c *gin.Context, _ models.User, req eventRequest) (pipeline.Result, error) {
	fields, err := req.fields()
	if err != nil {
		return pipeline.Result{}, err
	}
	event, err := h.events.Update(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.OK("event", newEventView(event)), nil
}

func (h HandlerSet) DeleteEvent(c *gin.Context, _ models.User) (pipeline.Result, error) {
	if err := h.eventRepo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.Deleted("Event"), nil
}

func (h HandlerSet) AddEventParticipant(c *gin.Context, _ models.User, req participantRequest) (pipeline.Result, error) {
	participant, err := h.events.AddParticipant(c.Request.Context(), c.Param("id"), models.EventParticipant{
		UserID: req.UserID,
		Role:   req.Role,
		Status: req.Status,
	})
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.Created("participant", newParticipantView(participant)), nil
}

type participantUpdateRequest struct {
	Role   models.ParticipantRole   `json:"role" binding:"required,oneof=ORGANIZER ASSIGNEE ATTENDEE"`
	Status models.ParticipantStatus `json:"status" binding:"required,oneof=INVITED ACCEPTED DECLINED COMPLETED"`
}

func (h HandlerSet) UpdateEventParticipant(c *gin.Context, _ models.User, req participantUpdateRequest) (pipeline.Result, error) {
	participant, err := h.eventRepo.UpdateParticipant(c.Request.Context(), c.Param("id"), c.Param("participantId"), map[string]any{
		"role":   req.Role,
		"status": req.Status,
	})
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.OK("participant", newParticipantView(participant)), nil
}

func (h HandlerSet) RemoveEventParticipant(c *gin.Context, _ models.User) (pipeline.Result, error) {
	if err := h.eventRepo.RemoveParticipant(c.Request.Context(), c.Param("id"), c.Param("participantId")); err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.Deleted("Participant"), nil
}
