package repository

import (
	"errors"
	"time"

	"github.com/nepa-rudraksha/event-system/internal/event/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventRepository interface {
	Create(event *domain.Event) error
	FindByID(id string) (*domain.Event, error)
	List() ([]*domain.Event, error)
	Update(event *domain.Event) error
	SetPaused(id string, paused bool) (bool, error)
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a gorm-backed EventRepository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(event *domain.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()
	return r.db.Create(event).Error
}

func (r *eventRepository) FindByID(id string) (*domain.Event, error) {
	var event domain.Event
	err := r.db.Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) List() ([]*domain.Event, error) {
	var events []*domain.Event
	err := r.db.Order("created_at DESC").Find(&events).Error
	return events, err
}

func (r *eventRepository) Update(event *domain.Event) error {
	event.UpdatedAt = time.Now()
	return r.db.Save(event).Error
}

func (r *eventRepository) SetPaused(id string, paused bool) (bool, error) {
	res := r.db.Model(&domain.Event{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"paused":     paused,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
