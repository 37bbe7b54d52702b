package domain

import (
	"errors"
	"time"
)

var ErrEventNotFound = errors.New("event not found")

// Event is the queue partition: token numbering, broadcast scoping and
// the intake pause are all per event. Paused is authoritative — while
// set, token creation is rejected server-side, not just hidden in the
// admin UI.
type Event struct {
	ID        string     `json:"id" gorm:"primaryKey"`
	Name      string     `json:"name" gorm:"not null"`
	Venue     string     `json:"venue,omitempty"`
	StartsAt  *time.Time `json:"starts_at,omitempty"`
	Paused    bool       `json:"paused" gorm:"default:false"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
