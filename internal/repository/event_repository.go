package repository

import (
	"context"

	"gorm.io/gorm"

	"propertyhub/internal/models"
)

type EventFilter struct {
	ResourceID string
	Status     string
	Type       string
}

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts the event together with any participants attached to it.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	return translate(r.db.WithContext(ctx).Create(event).Error)
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Preload("Resource").
		Preload("Participants.User").
		Where("id = ?", id).
		First(&event).Error
	return event, translate(err)
}

func (r *EventRepository) List(ctx context.Context, filter EventFilter, page Page) ([]models.Event, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Event{})
	if filter.ResourceID != "" {
		query = query.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []models.Event
	err := page.apply(query).
		Preload("Resource").
		Preload("Participants").
		Order("start_date DESC").
		Find(&events).Error
	return events, total, err
}

func (r *EventRepository) Update(ctx context.Context, id string, fields map[string]any) (models.Event, error) {
	res := r.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return models.Event{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Event{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes the event and its participant rows.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.EventParticipant{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Event{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *EventRepository) AddParticipant(ctx context.Context, participant *models.EventParticipant) error {
	if err := r.db.WithContext(ctx).Create(participant).Error; err != nil {
		return translate(err)
	}
	return r.db.WithContext(ctx).Preload("User").First(participant, "id = ?", participant.ID).Error
}

func (r *EventRepository) UpdateParticipant(ctx context.Context, eventID, participantID string, fields map[string]any) (models.EventParticipant, error) {
	res := r.db.WithContext(ctx).
		Model(&models.EventParticipant{}).
		Where("id = ? AND event_id = ?", participantID, eventID).
		Updates(fields)
	if res.Error != nil {
		return models.EventParticipant{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.EventParticipant{}, ErrNotFound
	}

	var participant models.EventParticipant
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", participantID).First(&participant).Error
	return participant, translate(err)
}

func (r *EventRepository) RemoveParticipant(ctx context.Context, eventID, participantID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND event_id = ?", participantID, eventID).
		Delete(&models.EventParticipant{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
