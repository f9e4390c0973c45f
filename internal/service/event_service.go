package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"propertyhub/internal/models"
	"propertyhub/internal/repository"
)

type EventService struct {
	events    *repository.EventRepository
	resources *repository.ResourceRepository
	users     *repository.UserRepository
	log       zerolog.Logger
}

func NewEventService(events *repository.EventRepository, resources *repository.ResourceRepository, users *repository.UserRepository, log zerolog.Logger) *EventService {
	return &EventService{
		events:    events,
		resources: resources,
		users:     users,
		log:       log,
	}
}

func (s *EventService) Create(ctx context.Context, event models.Event) (models.Event, error) {
	if err := s.checkResource(ctx, event.ResourceID); err != nil {
		return models.Event{}, err
	}
	if err := checkPeriod(event.StartDate, event.EndDate); err != nil {
		return models.Event{}, err
	}
	for _, p := range event.Participants {
		if err := s.checkUser(ctx, p.UserID); err != nil {
			return models.Event{}, err
		}
	}
	if err := s.events.Create(ctx, &event); err != nil {
		return models.Event{}, err
	}
	return s.events.GetByID(ctx, event.ID)
}

// Update overwrites the event columns. Status may move to any value.
func (s *EventService) Update(ctx context.Context, id string, fields map[string]any) (models.Event, error) {
	if _, err := s.events.GetByID(ctx, id); err != nil {
		return models.Event{}, err
	}
	if resourceID, ok := fields["resource_id"].(string); ok {
		if err := s.checkResource(ctx, resourceID); err != nil {
			return models.Event{}, err
		}
	}
	start, _ := fields["start_date"].(time.Time)
	end, _ := fields["end_date"].(*time.Time)
	if err := checkPeriod(start, end); err != nil {
		return models.Event{}, err
	}
	return s.events.Update(ctx, id, fields)
}

func (s *EventService) AddParticipant(ctx context.Context, eventID string, participant models.EventParticipant) (models.EventParticipant, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return models.EventParticipant{}, err
	}
	if err := s.checkUser(ctx, participant.UserID); err != nil {
		return models.EventParticipant{}, err
	}
	participant.EventID = eventID
	if participant.Status == "" {
		participant.Status = models.ParticipantStatusInvited
	}
	if err := s.events.AddParticipant(ctx, &participant); err != nil {
		return models.EventParticipant{}, err
	}
	return participant, nil
}

func (s *EventService) checkResource(ctx context.Context, id string) error {
	ok, err := s.resources.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return rule("Property not found.")
	}
	return nil
}

func (s *EventService) checkUser(ctx context.Context, id string) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return rule("User not found.")
		}
		return err
	}
	return nil
}
