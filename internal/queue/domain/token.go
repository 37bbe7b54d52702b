package domain

import "time"

// Status is the position of a token in its lifecycle. Transitions only
// move forward; DONE and NO_SHOW are terminal.
type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
	StatusNoShow     Status = "NO_SHOW"
)

func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusInProgress, StatusDone, StatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether a token in this status is finished for good.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusNoShow
}

// CanTransitionTo reports whether next is reachable from s:
//
//	WAITING     -> IN_PROGRESS | NO_SHOW
//	IN_PROGRESS -> DONE | NO_SHOW
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusWaiting:
		return next == StatusInProgress || next == StatusNoShow
	case StatusInProgress:
		return next == StatusDone || next == StatusNoShow
	}
	return false
}

// Token is a visitor's numbered place in an event's consultation queue.
// TokenNo is unique and strictly increasing per event; numbers are never
// recycled, and terminal tokens are kept as history.
type Token struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	EventID        string    `json:"event_id" gorm:"uniqueIndex:idx_tokens_event_no;index;not null"`
	VisitorID      string    `json:"visitor_id" gorm:"index;not null"`
	TokenNo        int       `json:"token_no" gorm:"uniqueIndex:idx_tokens_event_no;not null"`
	Status         Status    `json:"status" gorm:"index;default:WAITING"`
	ConsultationID string    `json:"consultation_id,omitempty"` // set by the expert workspace, informational only
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Active reports whether the token still occupies the visitor's slot.
func (t *Token) Active() bool {
	return !t.Status.Terminal()
}

// Stats is derived from the store on every query, never cached.
type Stats struct {
	Waiting    int64  `json:"waiting"`
	InProgress int64  `json:"in_progress"`
	Completed  int64  `json:"completed"`
	NoShow     int64  `json:"no_show"`
	Total      int64  `json:"total"`
	NowServing *Token `json:"now_serving,omitempty"`
}

// ChangeEvent is the frame pushed to subscribers after every successful
// token write.
type ChangeEvent struct {
	EventID string `json:"event_id"`
	Token   *Token `json:"token"`
	Stats   Stats  `json:"stats"`
}

// SSE event names carried by ChangeEvent frames.
const (
	EventTokenCreated = "token_created"
	EventTokenChanged = "token_changed"
)
