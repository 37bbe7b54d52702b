package repository

import (
	"errors"
	"sync"
	"time"

	"github.com/nepa-rudraksha/event-system/internal/queue/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenRepository is the durable token store. Create assigns the next
// token number atomically per event and is create-or-return: when the
// visitor already holds an active token it comes back with created ==
// false. UpdateStatus is a compare-and-swap so two racing writers
// produce exactly one winner.
type TokenRepository interface {
	Create(eventID, visitorID string) (token *domain.Token, created bool, err error)
	FindByID(id string) (*domain.Token, error)
	FindActiveByVisitor(eventID, visitorID string) (*domain.Token, error)
	ListByEvent(eventID string, status *domain.Status) ([]*domain.Token, error)
	UpdateStatus(id string, from, to domain.Status) (bool, error)
	SetConsultation(id, consultationID string) (bool, error)
	CountByStatus(eventID string) (map[domain.Status]int64, error)
	FirstInProgress(eventID string) (*domain.Token, error)
}

// Bounded retry for read queries only; mutations are never blindly
// retried, callers must re-query and reissue deliberately.
const (
	readRetries   = 2
	readRetryWait = 50 * time.Millisecond
)

type tokenRepository struct {
	db *gorm.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-event creation locks
}

// NewTokenRepository creates a gorm-backed TokenRepository
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{
		db:    db,
		locks: make(map[string]*sync.Mutex),
	}
}

// eventLock serializes token-number assignment within this process. The
// unique index on (event_id, token_no) is the cross-process backstop.
func (r *tokenRepository) eventLock(eventID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[eventID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[eventID] = l
	}
	return l
}

func (r *tokenRepository) Create(eventID, visitorID string) (*domain.Token, bool, error) {
	lock := r.eventLock(eventID)
	lock.Lock()
	defer lock.Unlock()

	// The active-token check must sit inside the lock: two concurrent
	// creates by the same visitor would otherwise both read "no active
	// token" and each mint one.
	existing, err := r.FindActiveByVisitor(eventID, visitorID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		token := &domain.Token{
			ID:        uuid.New().String(),
			EventID:   eventID,
			VisitorID: visitorID,
			Status:    domain.StatusWaiting,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		err := r.db.Transaction(func(tx *gorm.DB) error {
			var maxNo int64
			if err := tx.Model(&domain.Token{}).
				Where("event_id = ?", eventID).
				Select("COALESCE(MAX(token_no), 0)").
				Scan(&maxNo).Error; err != nil {
				return err
			}
			token.TokenNo = int(maxNo) + 1
			return tx.Create(token).Error
		})
		if err == nil {
			return token, true, nil
		}
		lastErr = err
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, false, err
		}
		// Another writer took the number; recompute and retry once.
	}
	return nil, false, lastErr
}

func (r *tokenRepository) FindByID(id string) (*domain.Token, error) {
	var token domain.Token
	err := r.withReadRetry(func() error {
		return r.db.Where("id = ?", id).First(&token).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) FindActiveByVisitor(eventID, visitorID string) (*domain.Token, error) {
	var token domain.Token
	err := r.withReadRetry(func() error {
		return r.db.
			Where("event_id = ? AND visitor_id = ? AND status IN ?",
				eventID, visitorID, []domain.Status{domain.StatusWaiting, domain.StatusInProgress}).
			Order("token_no ASC").
			First(&token).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) ListByEvent(eventID string, status *domain.Status) ([]*domain.Token, error) {
	var tokens []*domain.Token
	err := r.withReadRetry(func() error {
		query := r.db.Where("event_id = ?", eventID)
		if status != nil {
			query = query.Where("status = ?", *status)
		}
		return query.Order("token_no ASC").Find(&tokens).Error
	})
	return tokens, err
}

// UpdateStatus applies the transition only if the token is still in the
// expected source status. Returns false when the guard did not match,
// either because the token is gone or because another writer got there
// first.
func (r *tokenRepository) UpdateStatus(id string, from, to domain.Status) (bool, error) {
	res := r.db.Model(&domain.Token{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *tokenRepository) SetConsultation(id, consultationID string) (bool, error) {
	res := r.db.Model(&domain.Token{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"consultation_id": consultationID,
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *tokenRepository) CountByStatus(eventID string) (map[domain.Status]int64, error) {
	type statusCount struct {
		Status domain.Status
		N      int64
	}
	var rows []statusCount
	err := r.withReadRetry(func() error {
		return r.db.Model(&domain.Token{}).
			Select("status, COUNT(*) AS n").
			Where("event_id = ?", eventID).
			Group("status").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.N
	}
	return counts, nil
}

func (r *tokenRepository) FirstInProgress(eventID string) (*domain.Token, error) {
	var token domain.Token
	err := r.withReadRetry(func() error {
		return r.db.
			Where("event_id = ? AND status = ?", eventID, domain.StatusInProgress).
			Order("token_no ASC").
			First(&token).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) withReadRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt <= readRetries; attempt++ {
		err = fn()
		if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		time.Sleep(readRetryWait)
	}
	return err
}
