package domain

import (
	"context"

	"github.com/google/uuid"
)

// Ledger is the authoritative store of registration attempts. Reserve is the
// only code path allowed to create confirmed rows: it must make the capacity
// check and the insert indivisible with respect to concurrent callers, even
// across multiple process instances.
type Ledger interface {
	// FindConfirmed returns the confirmed registration for the
	// (event, subject) pair, or nil if none exists.
	FindConfirmed(ctx context.Context, eventID, subjectID uuid.UUID) (*Registration, error)

	// CountConfirmed returns the current number of confirmed registrations
	// for an event.
	CountConfirmed(ctx context.Context, eventID uuid.UUID) (int64, error)

	// Reserve atomically re-checks occupancy against capacity and the
	// (event, subject) uniqueness rule, then inserts a confirmed registration
	// carrying ticketCode. Fails with ErrCapacityExceeded or
	// ErrAlreadyRegistered; on any failure no row is created.
	Reserve(ctx context.Context, eventID, subjectID uuid.UUID, capacity int, ticketCode string) (*Registration, error)

	// Cancel transitions confirmed to cancelled. Cancelling an already
	// cancelled registration is a no-op success. Only the owning subject or
	// an admin may cancel.
	Cancel(ctx context.Context, registrationID uuid.UUID, requester *Principal) (*Registration, error)

	// BulkCancel cancels every confirmed registration for an event. Internal
	// use only, invoked when the owning event is deleted upstream.
	BulkCancel(ctx context.Context, eventID uuid.UUID) (int64, error)

	GetByID(ctx context.Context, registrationID uuid.UUID) (*Registration, error)

	// ListBySubject returns the subject's registrations, newest first.
	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]*Registration, error)

	// ListByEvent returns an event's registrations in creation order.
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*Registration, error)

	// EventStats returns per-event counts, zero-filled when the event has no
	// registrations.
	EventStats(ctx context.Context, eventID uuid.UUID) (*EventStats, error)

	// Overview returns system-wide counts derived from the ledger.
	Overview(ctx context.Context) (*OverviewStats, error)
}

// CapacityOracle yields the externally declared capacity for an event.
// There is no transactional tie between the oracle and the ledger; callers
// must treat the snapshot as advisory input to Reserve.
type CapacityOracle interface {
	EventSnapshot(ctx context.Context, eventID uuid.UUID) (*EventSnapshot, error)
}

// IdempotencyRepository stores processed request keys for replay detection.
type IdempotencyRepository interface {
	Create(ctx context.Context, key *IdempotencyKey) error
	GetByKey(ctx context.Context, key string) (*IdempotencyKey, error)
	Delete(ctx context.Context, key string) error
}
