package auth

import (
	"errors"
	"testing"
	"time"

	domain "event-registration/internal/domain/registration"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "test-secret"

func TestVerifier_ValidToken(t *testing.T) {
	subjectID := uuid.New()
	token, err := NewToken(subjectID, "alice@example.com", domain.RoleMember, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to mint token: %v", err)
	}

	verifier := NewVerifier(testSecret)
	principal, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if principal.SubjectID != subjectID {
		t.Errorf("Expected subject %s, got %s", subjectID, principal.SubjectID)
	}
	if principal.Email != "alice@example.com" {
		t.Errorf("Expected email alice@example.com, got %s", principal.Email)
	}
	if principal.Role != domain.RoleMember {
		t.Errorf("Expected role %s, got %s", domain.RoleMember, principal.Role)
	}
}

func TestVerifier_ExpiredToken(t *testing.T) {
	token, err := NewToken(uuid.New(), "bob@example.com", domain.RoleMember, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("Failed to mint token: %v", err)
	}

	verifier := NewVerifier(testSecret)
	if _, err := verifier.Verify(token); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Errorf("Expected ErrInvalidCredential for expired token, got %v", err)
	}
}

func TestVerifier_WrongSecret(t *testing.T) {
	token, err := NewToken(uuid.New(), "bob@example.com", domain.RoleMember, "other-secret", time.Hour)
	if err != nil {
		t.Fatalf("Failed to mint token: %v", err)
	}

	verifier := NewVerifier(testSecret)
	if _, err := verifier.Verify(token); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Errorf("Expected ErrInvalidCredential for bad signature, got %v", err)
	}
}

func TestVerifier_GarbageToken(t *testing.T) {
	verifier := NewVerifier(testSecret)
	if _, err := verifier.Verify("not-a-token"); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Errorf("Expected ErrInvalidCredential for garbage token, got %v", err)
	}
}

func TestVerifier_UnparsableSubject(t *testing.T) {
	// A well-signed token whose subject is not a UUID must be rejected, not
	// defaulted to a zero subject.
	now := time.Now()
	claims := &Claims{
		Email: "eve@example.com",
		Role:  domain.RoleMember,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	verifier := NewVerifier(testSecret)
	if _, err := verifier.Verify(signed); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Errorf("Expected ErrInvalidCredential for unparsable subject, got %v", err)
	}
}

func TestPrincipal_AdminSatisfiesAnyRole(t *testing.T) {
	admin := &domain.Principal{SubjectID: uuid.New(), Role: domain.RoleAdmin}
	if !admin.HasRole(domain.RoleOrganizer) {
		t.Error("Expected admin to satisfy organizer role check")
	}

	member := &domain.Principal{SubjectID: uuid.New(), Role: domain.RoleMember}
	if member.HasRole(domain.RoleOrganizer) {
		t.Error("Expected member to fail organizer role check")
	}
}
