package domain

import "time"

// Role gates what a staff member may do: experts drive the queue,
// admins additionally manage events and intake.
type Role string

const (
	RoleExpert Role = "expert"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleExpert || r == RoleAdmin
}

type Staff struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-"` // Never return password in JSON
	Name      string    `json:"name"`
	Role      Role      `json:"role" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RefreshToken struct {
	Token     string    `json:"token" gorm:"primaryKey"`
	StaffID   string    `json:"staff_id" gorm:"index"`
	ExpiresAt time.Time `json:"expires_at"`
}
