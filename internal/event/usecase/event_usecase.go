package usecase

import (
	"time"

	"github.com/nepa-rudraksha/event-system/internal/event/domain"
	"github.com/nepa-rudraksha/event-system/internal/event/repository"
)

// Broadcaster pushes event-level frames to subscribed clients.
type Broadcaster interface {
	Publish(eventID, event string, data interface{})
}

type EventUsecase interface {
	CreateEvent(name, venue string, startsAt *time.Time) (*domain.Event, error)
	GetEvent(id string) (*domain.Event, error)
	ListEvents() ([]*domain.Event, error)
	UpdateEvent(id, name, venue string, startsAt *time.Time) (*domain.Event, error)
	SetPaused(id string, paused bool) (*domain.Event, error)
}

type eventUsecase struct {
	repo        repository.EventRepository
	broadcaster Broadcaster
}

// NewEventUsecase creates a new instance of eventUsecase
func NewEventUsecase(repo repository.EventRepository, broadcaster Broadcaster) EventUsecase {
	return &eventUsecase{repo: repo, broadcaster: broadcaster}
}

func (u *eventUsecase) CreateEvent(name, venue string, startsAt *time.Time) (*domain.Event, error) {
	event := &domain.Event{
		Name:     name,
		Venue:    venue,
		StartsAt: startsAt,
	}
	if err := u.repo.Create(event); err != nil {
		return nil, err
	}
	return event, nil
}

func (u *eventUsecase) GetEvent(id string) (*domain.Event, error) {
	event, err := u.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}
	return event, nil
}

func (u *eventUsecase) ListEvents() ([]*domain.Event, error) {
	return u.repo.List()
}

func (u *eventUsecase) UpdateEvent(id, name, venue string, startsAt *time.Time) (*domain.Event, error) {
	event, err := u.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}
	event.Name = name
	event.Venue = venue
	event.StartsAt = startsAt
	if err := u.repo.Update(event); err != nil {
		return nil, err
	}
	return event, nil
}

func (u *eventUsecase) SetPaused(id string, paused bool) (*domain.Event, error) {
	applied, err := u.repo.SetPaused(id, paused)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, domain.ErrEventNotFound
	}
	event, err := u.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if u.broadcaster != nil {
		u.broadcaster.Publish(id, "intake_changed", map[string]interface{}{
			"event_id": id,
			"paused":   paused,
		})
	}
	return event, nil
}
