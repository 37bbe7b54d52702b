package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	eventdomain "github.com/nepa-rudraksha/event-system/internal/event/domain"
	"github.com/nepa-rudraksha/event-system/internal/metrics"
	"github.com/nepa-rudraksha/event-system/internal/queue/domain"
	"github.com/nepa-rudraksha/event-system/internal/queue/repository"
	"github.com/nepa-rudraksha/event-system/pkg/mq"
)

// Broadcaster fans a queue change out to every subscriber of the event.
// Delivery is best-effort; a failed or slow push never fails the write.
type Broadcaster interface {
	Publish(eventID, event string, data interface{})
}

// Mirror duplicates change events onto an external broker for
// out-of-process consumers. Optional.
type Mirror interface {
	PublishJSON(ctx context.Context, key string, v interface{}) error
}

// EventDirectory is the slice of the events module the engine needs:
// existence and the intake pause flag.
type EventDirectory interface {
	FindByID(id string) (*eventdomain.Event, error)
}

// Snapshot is the full pull of current queue state, served on initial
// load and as the poll fallback for missed pushes.
type Snapshot struct {
	Tokens []*domain.Token `json:"tokens"`
	Stats  domain.Stats    `json:"stats"`
}

// QueueUsecase is the queue engine: sole writer of token status,
// enforcer of the transition rules, and source of derived statistics.
type QueueUsecase interface {
	// CreateToken reserves the visitor's spot. When the visitor already
	// holds a non-terminal token for the event, that token is returned
	// and the second return value is false.
	CreateToken(eventID, visitorID string) (*domain.Token, bool, error)
	GetToken(id string) (*domain.Token, error)
	Snapshot(eventID string, status *domain.Status) (*Snapshot, error)
	Stats(eventID string) (domain.Stats, error)
	UpdateStatus(tokenID string, next domain.Status) (*domain.Token, error)
	AttachConsultation(tokenID, consultationID string) (*domain.Token, error)
}

type queueUsecase struct {
	tokens      repository.TokenRepository
	events      EventDirectory
	broadcaster Broadcaster
	mirror      Mirror
}

// NewQueueUsecase creates a new instance of queueUsecase. mirror may be nil.
func NewQueueUsecase(tokens repository.TokenRepository, events EventDirectory, broadcaster Broadcaster, mirror Mirror) QueueUsecase {
	return &queueUsecase{
		tokens:      tokens,
		events:      events,
		broadcaster: broadcaster,
		mirror:      mirror,
	}
}

func (u *queueUsecase) CreateToken(eventID, visitorID string) (*domain.Token, bool, error) {
	event, err := u.events.FindByID(eventID)
	if err != nil {
		return nil, false, err
	}
	if event == nil {
		return nil, false, eventdomain.ErrEventNotFound
	}
	if event.Paused {
		return nil, false, domain.ErrQueuePaused
	}

	// Reserve-a-spot semantics: a double click returns the existing
	// active token instead of erroring or burning a number. The store
	// resolves create-vs-return under its per-event lock.
	token, created, err := u.tokens.Create(eventID, visitorID)
	if err != nil {
		return nil, false, err
	}
	if !created {
		metrics.TokenCreateDeduplicatedTotal.Inc()
		return token, false, nil
	}
	metrics.TokensIssuedTotal.Inc()
	u.emit(domain.EventTokenCreated, token)
	return token, true, nil
}

func (u *queueUsecase) GetToken(id string) (*domain.Token, error) {
	token, err := u.tokens.FindByID(id)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, domain.ErrTokenNotFound
	}
	return token, nil
}

func (u *queueUsecase) Snapshot(eventID string, status *domain.Status) (*Snapshot, error) {
	tokens, err := u.tokens.ListByEvent(eventID, status)
	if err != nil {
		return nil, err
	}
	stats, err := u.Stats(eventID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Tokens: tokens, Stats: stats}, nil
}

// Stats recomputes every figure from the store; nothing is cached, so
// the numbers cannot drift from the tokens.
func (u *queueUsecase) Stats(eventID string) (domain.Stats, error) {
	counts, err := u.tokens.CountByStatus(eventID)
	if err != nil {
		return domain.Stats{}, err
	}
	stats := domain.Stats{
		Waiting:    counts[domain.StatusWaiting],
		InProgress: counts[domain.StatusInProgress],
		Completed:  counts[domain.StatusDone],
		NoShow:     counts[domain.StatusNoShow],
	}
	stats.Total = stats.Waiting + stats.InProgress + stats.Completed + stats.NoShow

	nowServing, err := u.tokens.FirstInProgress(eventID)
	if err != nil {
		return domain.Stats{}, err
	}
	stats.NowServing = nowServing
	return stats, nil
}

func (u *queueUsecase) UpdateStatus(tokenID string, next domain.Status) (*domain.Token, error) {
	token, err := u.tokens.FindByID(tokenID)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, domain.ErrTokenNotFound
	}
	if !next.Valid() || !token.Status.CanTransitionTo(next) {
		metrics.TransitionsRejectedTotal.Inc()
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, token.Status, next)
	}

	applied, err := u.tokens.UpdateStatus(tokenID, token.Status, next)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Another staff member moved the token first; exactly one
		// writer wins, the loser refreshes to current truth.
		metrics.TransitionsRejectedTotal.Inc()
		return nil, fmt.Errorf("%w: token is no longer %s", domain.ErrInvalidTransition, token.Status)
	}

	token.Status = next
	token.UpdatedAt = time.Now()
	metrics.TokenTransitionsTotal.WithLabelValues(string(next)).Inc()
	u.emit(domain.EventTokenChanged, token)
	return token, nil
}

func (u *queueUsecase) AttachConsultation(tokenID, consultationID string) (*domain.Token, error) {
	applied, err := u.tokens.SetConsultation(tokenID, consultationID)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, domain.ErrTokenNotFound
	}
	return u.GetToken(tokenID)
}

// emit pushes the change to realtime subscribers and, when configured,
// mirrors it to the broker. Both paths are decoupled from the write:
// the token is already persisted, and clients that miss the frame
// recover through their snapshot poll.
func (u *queueUsecase) emit(kind string, token *domain.Token) {
	stats, err := u.Stats(token.EventID)
	if err != nil {
		log.Printf("[Queue] Failed to compute stats for event %s: %v", token.EventID, err)
		return
	}
	change := domain.ChangeEvent{EventID: token.EventID, Token: token, Stats: stats}
	u.broadcaster.Publish(token.EventID, kind, change)

	if u.mirror != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			key := mq.RoutingKey(kind, token.EventID)
			if err := u.mirror.PublishJSON(ctx, key, change); err != nil {
				log.Printf("[Queue] Mirror publish failed for %s: %v", key, err)
			}
		}()
	}
}
