package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domain "event-registration/internal/domain/registration"

	"github.com/google/uuid"
)

var _ domain.Ledger = (*MemoryLedger)(nil)

// MemoryLedger is an in-memory admission ledger with the same semantics as
// the PostgreSQL implementation. A single mutex stands in for the per-event
// advisory lock, which keeps capacity and uniqueness checks indivisible for
// concurrent callers in one process. Used by tests and local development.
type MemoryLedger struct {
	mu            sync.Mutex
	registrations map[uuid.UUID]*domain.Registration
	ticketCodes   map[string]bool
}

// NewMemoryLedger creates an empty in-memory ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		registrations: make(map[uuid.UUID]*domain.Registration),
		ticketCodes:   make(map[string]bool),
	}
}

func (m *MemoryLedger) FindConfirmed(ctx context.Context, eventID, subjectID uuid.UUID) (*domain.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findConfirmedLocked(eventID, subjectID), nil
}

func (m *MemoryLedger) findConfirmedLocked(eventID, subjectID uuid.UUID) *domain.Registration {
	for _, reg := range m.registrations {
		if reg.EventID == eventID && reg.SubjectID == subjectID && reg.Status == domain.StatusConfirmed {
			copied := *reg
			return &copied
		}
	}
	return nil
}

func (m *MemoryLedger) CountConfirmed(ctx context.Context, eventID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countConfirmedLocked(eventID), nil
}

func (m *MemoryLedger) countConfirmedLocked(eventID uuid.UUID) int64 {
	var count int64
	for _, reg := range m.registrations {
		if reg.EventID == eventID && reg.Status == domain.StatusConfirmed {
			count++
		}
	}
	return count
}

func (m *MemoryLedger) Reserve(ctx context.Context, eventID, subjectID uuid.UUID, capacity int, ticketCode string) (*domain.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing := m.findConfirmedLocked(eventID, subjectID); existing != nil {
		return nil, domain.ErrAlreadyRegistered
	}

	if m.countConfirmedLocked(eventID) >= int64(capacity) {
		return nil, domain.ErrCapacityExceeded
	}

	// Mirrors the unique index on ticket_code so callers see the same
	// collision error as the database implementation.
	if m.ticketCodes[ticketCode] {
		return nil, fmt.Errorf("duplicate key value violates unique constraint \"idx_registrations_ticket_code\"")
	}

	now := time.Now()
	registration := &domain.Registration{
		RegistrationID: uuid.New(),
		EventID:        eventID,
		SubjectID:      subjectID,
		TicketCode:     ticketCode,
		Status:         domain.StatusConfirmed,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	m.registrations[registration.RegistrationID] = registration
	m.ticketCodes[ticketCode] = true

	copied := *registration
	return &copied, nil
}

func (m *MemoryLedger) Cancel(ctx context.Context, registrationID uuid.UUID, requester *domain.Principal) (*domain.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	registration, ok := m.registrations[registrationID]
	if !ok {
		return nil, domain.ErrRegistrationNotFound
	}

	if registration.SubjectID != requester.SubjectID && requester.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}

	if registration.Status != domain.StatusCancelled {
		registration.Status = domain.StatusCancelled
		registration.UpdatedAt = time.Now()
	}

	copied := *registration
	return &copied, nil
}

func (m *MemoryLedger) BulkCancel(ctx context.Context, eventID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var cancelled int64
	now := time.Now()
	for _, reg := range m.registrations {
		if reg.EventID == eventID && reg.Status == domain.StatusConfirmed {
			reg.Status = domain.StatusCancelled
			reg.UpdatedAt = now
			cancelled++
		}
	}
	return cancelled, nil
}

func (m *MemoryLedger) GetByID(ctx context.Context, registrationID uuid.UUID) (*domain.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	registration, ok := m.registrations[registrationID]
	if !ok {
		return nil, nil
	}
	copied := *registration
	return &copied, nil
}

func (m *MemoryLedger) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]*domain.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var registrations []*domain.Registration
	for _, reg := range m.registrations {
		if reg.SubjectID == subjectID {
			copied := *reg
			registrations = append(registrations, &copied)
		}
	}

	sort.Slice(registrations, func(i, j int) bool {
		return registrations[i].CreatedAt.After(registrations[j].CreatedAt)
	})
	return registrations, nil
}

func (m *MemoryLedger) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*domain.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var registrations []*domain.Registration
	for _, reg := range m.registrations {
		if reg.EventID == eventID {
			copied := *reg
			registrations = append(registrations, &copied)
		}
	}

	sort.Slice(registrations, func(i, j int) bool {
		return registrations[i].CreatedAt.Before(registrations[j].CreatedAt)
	})
	return registrations, nil
}

func (m *MemoryLedger) EventStats(ctx context.Context, eventID uuid.UUID) (*domain.EventStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &domain.EventStats{EventID: eventID}
	for _, reg := range m.registrations {
		if reg.EventID != eventID {
			continue
		}
		stats.Total++
		switch reg.Status {
		case domain.StatusConfirmed:
			stats.Confirmed++
		case domain.StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

func (m *MemoryLedger) Overview(ctx context.Context) (*domain.OverviewStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &domain.OverviewStats{}
	events := make(map[uuid.UUID]bool)
	subjects := make(map[uuid.UUID]bool)
	for _, reg := range m.registrations {
		stats.TotalRegistrations++
		switch reg.Status {
		case domain.StatusConfirmed:
			stats.TotalConfirmed++
		case domain.StatusCancelled:
			stats.TotalCancelled++
		}
		events[reg.EventID] = true
		subjects[reg.SubjectID] = true
	}
	stats.UniqueEvents = int64(len(events))
	stats.UniqueSubjects = int64(len(subjects))
	return stats, nil
}
