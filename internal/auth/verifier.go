package auth

import (
	"fmt"
	"time"

	domain "event-registration/internal/domain/registration"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the token payload shared across the platform's services.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates bearer credentials against the platform's shared
// secret. Verification is a pure function of token and secret; no state is
// kept between calls.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a token, returning the principal it asserts.
// Signature and expiry failures yield ErrInvalidCredential. An unparsable
// subject identifier is also ErrInvalidCredential: a token whose subject
// cannot be resolved must never pass as an anonymous principal.
func (v *Verifier) Verify(tokenString string) (*domain.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidCredential
	}

	subjectID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domain.ErrInvalidCredential
	}

	return &domain.Principal{
		SubjectID: subjectID,
		Email:     claims.Email,
		Role:      claims.Role,
	}, nil
}

// NewToken mints a token with the platform's claim set. The identity service
// is the normal issuer; this is exposed for internal callers and tests that
// share the secret.
func NewToken(subjectID uuid.UUID, email, role, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
