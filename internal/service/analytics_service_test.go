package service

import (
	"context"
	"errors"
	"testing"

	domain "event-registration/internal/domain/registration"
	"event-registration/internal/infrastructure/repository"

	"github.com/google/uuid"
)

func newAnalyticsFixture(capacities map[uuid.UUID]int) (*AnalyticsService, *AdmissionService) {
	ledger := repository.NewMemoryLedger()
	oracle := &fakeOracle{capacities: capacities}
	admission := NewAdmissionService(ledger, oracle, nil)
	return NewAnalyticsService(ledger, nil), admission
}

func TestAnalyticsService_EventStats_ZeroFilled(t *testing.T) {
	analytics, _ := newAnalyticsFixture(nil)

	organizer := &domain.Principal{SubjectID: uuid.New(), Role: domain.RoleOrganizer}
	stats, err := analytics.EventStats(context.Background(), organizer, uuid.New())
	if err != nil {
		t.Fatalf("Expected zero-filled stats for empty event, got error %v", err)
	}

	if stats.Total != 0 || stats.Confirmed != 0 || stats.Cancelled != 0 {
		t.Errorf("Expected {0,0,0}, got {%d,%d,%d}", stats.Total, stats.Confirmed, stats.Cancelled)
	}
}

func TestAnalyticsService_EventStats_Forbidden(t *testing.T) {
	analytics, _ := newAnalyticsFixture(nil)

	memberPrincipal := &domain.Principal{SubjectID: uuid.New(), Role: domain.RoleMember}
	if _, err := analytics.EventStats(context.Background(), memberPrincipal, uuid.New()); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Expected ErrForbidden for member, got %v", err)
	}
}

func TestAnalyticsService_EventStats_Counts(t *testing.T) {
	eventID := uuid.New()
	analytics, admission := newAnalyticsFixture(map[uuid.UUID]int{eventID: 10})

	first := member()
	if _, err := admission.Register(context.Background(), first, eventID, ""); err != nil {
		t.Fatalf("Registration failed: %v", err)
	}
	registration, err := admission.Register(context.Background(), member(), eventID, "")
	if err != nil {
		t.Fatalf("Registration failed: %v", err)
	}

	admin := &domain.Principal{SubjectID: uuid.New(), Role: domain.RoleAdmin}
	if _, err := admission.Cancel(context.Background(), admin, registration.RegistrationID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	stats, err := analytics.EventStats(context.Background(), admin, eventID)
	if err != nil {
		t.Fatalf("EventStats failed: %v", err)
	}

	if stats.Total != 2 || stats.Confirmed != 1 || stats.Cancelled != 1 {
		t.Errorf("Expected {2,1,1}, got {%d,%d,%d}", stats.Total, stats.Confirmed, stats.Cancelled)
	}
}

func TestAnalyticsService_Overview_AdminOnly(t *testing.T) {
	analytics, _ := newAnalyticsFixture(nil)

	for _, role := range []string{domain.RoleMember, domain.RoleOrganizer} {
		principal := &domain.Principal{SubjectID: uuid.New(), Role: role}
		if _, err := analytics.Overview(context.Background(), principal); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("Expected ErrForbidden for role %s, got %v", role, err)
		}
	}
}

func TestAnalyticsService_Overview_MatchesEventStats(t *testing.T) {
	eventA := uuid.New()
	eventB := uuid.New()
	analytics, admission := newAnalyticsFixture(map[uuid.UUID]int{eventA: 10, eventB: 10})

	shared := member()
	if _, err := admission.Register(context.Background(), shared, eventA, ""); err != nil {
		t.Fatalf("Registration failed: %v", err)
	}
	if _, err := admission.Register(context.Background(), shared, eventB, ""); err != nil {
		t.Fatalf("Registration failed: %v", err)
	}
	registration, err := admission.Register(context.Background(), member(), eventA, "")
	if err != nil {
		t.Fatalf("Registration failed: %v", err)
	}

	admin := &domain.Principal{SubjectID: uuid.New(), Role: domain.RoleAdmin}
	if _, err := admission.Cancel(context.Background(), admin, registration.RegistrationID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	overview, err := analytics.Overview(context.Background(), admin)
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}

	statsA, err := analytics.EventStats(context.Background(), admin, eventA)
	if err != nil {
		t.Fatalf("EventStats failed: %v", err)
	}
	statsB, err := analytics.EventStats(context.Background(), admin, eventB)
	if err != nil {
		t.Fatalf("EventStats failed: %v", err)
	}

	if overview.TotalRegistrations != statsA.Total+statsB.Total {
		t.Errorf("Expected overview total %d to match per-event sum %d",
			overview.TotalRegistrations, statsA.Total+statsB.Total)
	}
	if overview.TotalConfirmed != statsA.Confirmed+statsB.Confirmed {
		t.Errorf("Expected overview confirmed %d to match per-event sum %d",
			overview.TotalConfirmed, statsA.Confirmed+statsB.Confirmed)
	}
	if overview.TotalCancelled != statsA.Cancelled+statsB.Cancelled {
		t.Errorf("Expected overview cancelled %d to match per-event sum %d",
			overview.TotalCancelled, statsA.Cancelled+statsB.Cancelled)
	}
	if overview.UniqueEvents != 2 {
		t.Errorf("Expected 2 unique events, got %d", overview.UniqueEvents)
	}
	if overview.UniqueSubjects != 2 {
		t.Errorf("Expected 2 unique subjects, got %d", overview.UniqueSubjects)
	}
}
