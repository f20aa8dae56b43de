package repository

import (
	"context"
	"fmt"
	"time"

	domain "event-registration/internal/domain/registration"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var _ domain.Ledger = (*LedgerRepository)(nil)

// LedgerRepository implements the admission ledger on PostgreSQL via GORM.
//
// Reserve serializes admissions per event with a transaction-scoped advisory
// lock, so the capacity re-check and the insert are indivisible across every
// service instance sharing the database. The partial unique index on
// (event_id, subject_id) WHERE status = 'confirmed' and the unique index on
// ticket_code back the same invariants at the constraint level.
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new GORM-backed admission ledger
func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{
		db: db,
	}
}

// FindConfirmed retrieves the confirmed registration for an (event, subject) pair
func (r *LedgerRepository) FindConfirmed(ctx context.Context, eventID, subjectID uuid.UUID) (*domain.Registration, error) {
	var registration domain.Registration
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND subject_id = ? AND status = ?", eventID, subjectID, domain.StatusConfirmed).
		First(&registration).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &registration, nil
}

// CountConfirmed returns the number of confirmed registrations for an event
func (r *LedgerRepository) CountConfirmed(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Registration{}).
		Where("event_id = ? AND status = ?", eventID, domain.StatusConfirmed).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Reserve atomically claims a seat for the subject. Occupancy and uniqueness
// are re-checked under the event's advisory lock; the capacity value read
// from the oracle before the call is never trusted as still current.
func (r *LedgerRepository) Reserve(ctx context.Context, eventID, subjectID uuid.UUID, capacity int, ticketCode string) (*domain.Registration, error) {
	var created *domain.Registration

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock is released at transaction end. hashtext keys the lock on the
		// event id, so unrelated events admit concurrently.
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", eventID.String()).Error; err != nil {
			return fmt.Errorf("failed to acquire admission lock for event %s: %w", eventID, err)
		}

		var duplicate int64
		if err := tx.Model(&domain.Registration{}).
			Where("event_id = ? AND subject_id = ? AND status = ?", eventID, subjectID, domain.StatusConfirmed).
			Count(&duplicate).Error; err != nil {
			return fmt.Errorf("failed to check existing registration: %w", err)
		}
		if duplicate > 0 {
			return domain.ErrAlreadyRegistered
		}

		var occupied int64
		if err := tx.Model(&domain.Registration{}).
			Where("event_id = ? AND status = ?", eventID, domain.StatusConfirmed).
			Count(&occupied).Error; err != nil {
			return fmt.Errorf("failed to count confirmed registrations: %w", err)
		}
		if occupied >= int64(capacity) {
			return domain.ErrCapacityExceeded
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
		if err := tx.Create(registration).Error; err != nil {
			return fmt.Errorf("failed to create registration: %w", err)
		}

		created = registration
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Cancel transitions a registration from confirmed to cancelled. Repeat
// cancellation returns the already-cancelled row rather than an error.
func (r *LedgerRepository) Cancel(ctx context.Context, registrationID uuid.UUID, requester *domain.Principal) (*domain.Registration, error) {
	registration, err := r.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if registration == nil {
		return nil, domain.ErrRegistrationNotFound
	}

	if registration.SubjectID != requester.SubjectID && requester.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}

	if registration.Status == domain.StatusCancelled {
		return registration, nil
	}

	registration.Status = domain.StatusCancelled
	registration.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).
		Model(registration).
		Updates(map[string]interface{}{
			"status":     registration.Status,
			"updated_at": registration.UpdatedAt,
		}).Error; err != nil {
		return nil, fmt.Errorf("failed to cancel registration: %w", err)
	}

	return registration, nil
}

// BulkCancel cancels every confirmed registration for an event and returns
// how many rows were flipped.
func (r *LedgerRepository) BulkCancel(ctx context.Context, eventID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Registration{}).
		Where("event_id = ? AND status = ?", eventID, domain.StatusConfirmed).
		Updates(map[string]interface{}{
			"status":     domain.StatusCancelled,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to bulk cancel registrations: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// GetByID retrieves a registration by its identifier
func (r *LedgerRepository) GetByID(ctx context.Context, registrationID uuid.UUID) (*domain.Registration, error) {
	var registration domain.Registration
	err := r.db.WithContext(ctx).First(&registration, "registration_id = ?", registrationID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &registration, nil
}

// ListBySubject retrieves a subject's registrations, newest first
func (r *LedgerRepository) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]*domain.Registration, error) {
	var registrations []*domain.Registration
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at DESC").
		Find(&registrations).Error
	if err != nil {
		return nil, err
	}
	return registrations, nil
}

// ListByEvent retrieves an event's registrations in creation order
func (r *LedgerRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*domain.Registration, error) {
	var registrations []*domain.Registration
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&registrations).Error
	if err != nil {
		return nil, err
	}
	return registrations, nil
}

// EventStats computes per-event counts. An event with no registrations
// yields zero counts, not an error.
func (r *LedgerRepository) EventStats(ctx context.Context, eventID uuid.UUID) (*domain.EventStats, error) {
	stats := &domain.EventStats{EventID: eventID}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'confirmed') AS confirmed,
			COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled
		FROM registrations
		WHERE event_id = ?`, eventID).
		Scan(stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute event stats: %w", err)
	}
	return stats, nil
}

// Overview computes system-wide counts from the ledger.
func (r *LedgerRepository) Overview(ctx context.Context) (*domain.OverviewStats, error) {
	stats := &domain.OverviewStats{}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total_registrations,
			COUNT(*) FILTER (WHERE status = 'confirmed') AS total_confirmed,
			COUNT(*) FILTER (WHERE status = 'cancelled') AS total_cancelled,
			COUNT(DISTINCT event_id) AS unique_events,
			COUNT(DISTINCT subject_id) AS unique_subjects
		FROM registrations`).
		Scan(stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute overview stats: %w", err)
	}
	return stats, nil
}
