package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "event-registration/internal/domain/registration"
	"event-registration/pkg/logger"

	"github.com/google/uuid"
)

const (
	// Ticket minting retries on the astronomically rare code collision.
	ticketMintAttempts = 3

	idempotencyTTL = 24 * time.Hour
)

/// AdmissionService sequences a single admission attempt: duplicate check,
// capacity snapshot from the oracle, atomic reservation against the ledger,
// ticket issuance. The ledger's Reserve re-checks everything at write time;
// this service never treats its own earlier reads as still valid.
type AdmissionService struct {
	ledger          domain.Ledger
	oracle          domain.CapacityOracle
	idempotencyRepo domain.IdempotencyRepository
}

func NewAdmissionService(ledger domain.Ledger, oracle domain.CapacityOracle, idempotencyRepo domain.IdempotencyRepository) *AdmissionService {
	return &AdmissionService{
		ledger:          ledger,
		oracle:          oracle,
		idempotencyRepo: idempotencyRepo,
	}
}

// Register admits the principal to the event or fails with a typed
// rejection. Any oracle failure aborts before the ledger is touched; any
// ledger failure leaves no partial registration behind.
func (s *AdmissionService) Register(ctx context.Context, principal *domain.Principal, eventID uuid.UUID, idempotencyKey string) (*domain.Registration, error) {
	logger.Info("Processing admission for subject %s to event %s", principal.SubjectID, eventID)

	if idempotencyKey != "" {
		replay, isDuplicate, err := s.checkIdempotency(ctx, idempotencyKey, principal.SubjectID, eventID)
		if err != nil {
			return nil, err
		}
		if isDuplicate {
			var cached domain.Registration
			if err := json.Unmarshal([]byte(replay.ResponseData), &cached); err == nil {
				logger.Info("Replaying stored response for idempotency key %s", idempotencyKey)
				return &cached, nil
			}
		}
	}

	existing, err := s.ledger.FindConfirmed(ctx, eventID, principal.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing registration: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrAlreadyRegistered
	}

	snapshot, err := s.oracle.EventSnapshot(ctx, eventID)
	if err != nil {
		return nil, err
	}

	registration, err := s.reserveWithTicket(ctx, eventID, principal.SubjectID, snapshot.Capacity)
	if err != nil {
		return nil, err
	}

	logger.Info("Confirmed registration %s for subject %s to event %s (ticket %s)",
		registration.RegistrationID, principal.SubjectID, eventID, registration.TicketCode)

	if idempotencyKey != "" {
		if err := s.storeIdempotencyResult(ctx, idempotencyKey, principal.SubjectID, eventID, registration); err != nil {
			logger.Warn("Failed to store idempotency result: %v", err)
		}
	}

	return registration, nil
}

// reserveWithTicket mints a fresh ticket code per attempt so a unique-index
// collision on the code never burns the admission itself.
func (s *AdmissionService) reserveWithTicket(ctx context.Context, eventID, subjectID uuid.UUID, capacity int) (*domain.Registration, error) {
	var lastErr error
	for attempt := 0; attempt < ticketMintAttempts; attempt++ {
		registration, err := s.ledger.Reserve(ctx, eventID, subjectID, capacity, MintTicketCode())
		if err == nil {
			return registration, nil
		}
		if errors.Is(err, domain.ErrAlreadyRegistered) || errors.Is(err, domain.ErrCapacityExceeded) {
			return nil, err
		}
		lastErr = err
		if !isTicketCollision(err) {
			break
		}
		logger.Warn("Ticket code collision on attempt %d for event %s, retrying", attempt+1, eventID)
	}
	return nil, fmt.Errorf("failed to reserve seat: %w", lastErr)
}

func isTicketCollision(err error) bool {
	return err != nil && strings.Contains(err.Error(), "idx_registrations_ticket_code")
}

// MintTicketCode produces a short human-presentable code from a
// collision-resistant random source.
func MintTicketCode() string {
	return "TKT-" + strings.ToUpper(uuid.NewString()[:8])
}

// Cancel transitions the registration to cancelled on behalf of its owner or
// an admin. Cancelling twice is a no-op success.
func (s *AdmissionService) Cancel(ctx context.Context, principal *domain.Principal, registrationID uuid.UUID) (*domain.Registration, error) {
	logger.Info("Processing cancellation of registration %s by subject %s", registrationID, principal.SubjectID)
	return s.ledger.Cancel(ctx, registrationID, principal)
}

// MyRegistrations returns the caller's registrations, newest first.
func (s *AdmissionService) MyRegistrations(ctx context.Context, principal *domain.Principal) ([]*domain.Registration, error) {
	return s.ledger.ListBySubject(ctx, principal.SubjectID)
}

// EventRegistrations returns every registration for an event. Restricted to
// organizers and admins.
func (s *AdmissionService) EventRegistrations(ctx context.Context, principal *domain.Principal, eventID uuid.UUID) ([]*domain.Registration, error) {
	if !principal.HasRole(domain.RoleOrganizer) {
		return nil, domain.ErrForbidden
	}
	return s.ledger.ListByEvent(ctx, eventID)
}

// Ticket returns the registration as the caller's ticket. Owner or admin only.
func (s *AdmissionService) Ticket(ctx context.Context, principal *domain.Principal, registrationID uuid.UUID) (*domain.Registration, error) {
	registration, err := s.ledger.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if registration == nil {
		return nil, domain.ErrRegistrationNotFound
	}
	if registration.SubjectID != principal.SubjectID && principal.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	return registration, nil
}

// CancelAllForEvent cancels every confirmed registration for an event.
// Internal hook for the event catalog's delete path; never exposed to end
// users.
func (s *AdmissionService) CancelAllForEvent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	cancelled, err := s.ledger.BulkCancel(ctx, eventID)
	if err != nil {
		return 0, err
	}
	logger.Info("Bulk cancelled %d registrations for deleted event %s", cancelled, eventID)
	return cancelled, nil
}

func (s *AdmissionService) checkIdempotency(ctx context.Context, key string, subjectID, eventID uuid.UUID) (*domain.IdempotencyKey, bool, error) {
	if s.idempotencyRepo == nil {
		return nil, false, nil
	}

	existing, err := s.idempotencyRepo.GetByKey(ctx, key)
	if err != nil {
		if strings.Contains(err.Error(), "idempotency key not found") {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("idempotency check failed: %w", err)
	}

	if existing.IsExpired() {
		if err := s.idempotencyRepo.Delete(ctx, key); err != nil {
			logger.Warn("Failed to delete expired idempotency key %s: %v", key, err)
		}
		return nil, false, nil
	}

	if existing.RequestHash != requestHash(subjectID, eventID) {
		return nil, false, domain.ErrIdempotencyMisuse
	}
	return existing, true, nil
}

func (s *AdmissionService) storeIdempotencyResult(ctx context.Context, key string, subjectID, eventID uuid.UUID, registration *domain.Registration) error {
	if s.idempotencyRepo == nil {
		return nil
	}

	responseJSON, err := json.Marshal(registration)
	if err != nil {
		return fmt.Errorf("failed to marshal response data: %w", err)
	}

	now := time.Now()
	return s.idempotencyRepo.Create(ctx, &domain.IdempotencyKey{
		Key:          key,
		SubjectID:    subjectID,
		RequestHash:  requestHash(subjectID, eventID),
		ResponseData: string(responseJSON),
		StatusCode:   201,
		ProcessedAt:  now,
		ExpiresAt:    now.Add(idempotencyTTL),
		CreatedAt:    now,
	})
}

func requestHash(subjectID, eventID uuid.UUID) string {
	hash := sha256.Sum256([]byte(subjectID.String() + ":" + eventID.String()))
	return hex.EncodeToString(hash[:])
}
