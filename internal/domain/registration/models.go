package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role names carried in verified credentials. Admin implicitly satisfies
// every role check.
const (
	RoleMember    = "member"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

// Principal is an authenticated actor derived from a verified credential.
// It is never persisted by this service.
type Principal struct {
	SubjectID uuid.UUID `json:"subject_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
}

// HasRole reports whether the principal satisfies the required role.
func (p *Principal) HasRole(required string) bool {
	return p.Role == required || p.Role == RoleAdmin
}

// RegistrationStatus represents the status of a registration
type RegistrationStatus string

const (
	StatusConfirmed RegistrationStatus = "confirmed"
	StatusCancelled RegistrationStatus = "cancelled"
)

// Registration is the unit of admission state. Rows are never deleted;
// the only legal transition is confirmed to cancelled.
type Registration struct {
	RegistrationID uuid.UUID          `json:"registration_id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	EventID        uuid.UUID          `json:"event_id" gorm:"type:uuid;not null;index"`
	SubjectID      uuid.UUID          `json:"subject_id" gorm:"type:uuid;not null;index"`
	TicketCode     string             `json:"ticket_code" gorm:"unique;not null"`
	Status         RegistrationStatus `json:"status" gorm:"type:text;not null;default:confirmed"`
	CreatedAt      time.Time          `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time          `json:"updated_at" gorm:"autoUpdateTime"`
}

// EventSnapshot is the read-only view of an event obtained from the
// capacity oracle. It bounds a single admission decision and is not persisted.
type EventSnapshot struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Capacity int       `json:"capacity"`
}

// EventStats holds per-event registration counts. Zero-filled for events
// with no registrations.
type EventStats struct {
	EventID   uuid.UUID `json:"event_id"`
	Total     int64     `json:"total"`
	Confirmed int64     `json:"confirmed"`
	Cancelled int64     `json:"cancelled"`
}

// OverviewStats holds system-wide registration counts.
type OverviewStats struct {
	TotalRegistrations int64 `json:"total_registrations"`
	TotalConfirmed     int64 `json:"total_confirmed"`
	TotalCancelled     int64 `json:"total_cancelled"`
	UniqueEvents       int64 `json:"unique_events"`
	UniqueSubjects     int64 `json:"unique_subjects"`
}

// IdempotencyKey records a processed registration request so identical
// retries replay the stored response instead of reserving twice.
type IdempotencyKey struct {
	Key          string    `json:"key"`
	SubjectID    uuid.UUID `json:"subject_id"`
	RequestHash  string    `json:"request_hash"`
	ResponseData string    `json:"response_data"`
	StatusCode   int       `json:"status_code"`
	ProcessedAt  time.Time `json:"processed_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsExpired reports whether the key has passed its expiry.
func (k *IdempotencyKey) IsExpired() bool {
	return time.Now().After(k.ExpiresAt)
}

// Request DTOs

// RegisterRequest represents an admission request for an event
type RegisterRequest struct {
	EventID uuid.UUID `json:"event_id" validate:"required"`
}
