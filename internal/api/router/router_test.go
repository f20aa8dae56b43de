package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"event-registration/internal/auth"
	domain "event-registration/internal/domain/registration"
	"event-registration/internal/infrastructure/repository"

	"github.com/google/uuid"
)

const testSecret = "router-test-secret"

type fakeOracle struct {
	capacities map[uuid.UUID]int
}

func (f *fakeOracle) EventSnapshot(ctx context.Context, eventID uuid.UUID) (*domain.EventSnapshot, error) {
	capacity, ok := f.capacities[eventID]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return &domain.EventSnapshot{ID: eventID, Capacity: capacity}, nil
}

type routerFixture struct {
	engine http.Handler
	oracle *fakeOracle
	ledger *repository.MemoryLedger
}

func newRouterFixture() *routerFixture {
	oracle := &fakeOracle{capacities: make(map[uuid.UUID]int)}
	ledger := repository.NewMemoryLedger()
	engine := NewWithDependencies(
		auth.NewVerifier(testSecret),
		ledger,
		oracle,
		repository.NewMemoryIdempotencyRepository(),
	)
	return &routerFixture{engine: engine, oracle: oracle, ledger: ledger}
}

func mintToken(t *testing.T, role string) (uuid.UUID, string) {
	t.Helper()
	subjectID := uuid.New()
	token, err := auth.NewToken(subjectID, "router-test@example.com", role, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to mint token: %v", err)
	}
	return subjectID, token
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestRegisterEndpoint(t *testing.T) {
	fixture := newRouterFixture()
	eventID := uuid.New()
	fixture.oracle.capacities[eventID] = 10
	_, token := mintToken(t, domain.RoleMember)

	w := fixture.do(t, http.MethodPost, "/api/v1/registrations", token, map[string]string{"event_id": eventID.String()})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	resp := decodeResponse(t, w)
	if resp["success"] != true {
		t.Errorf("Expected success=true, got %v", resp["success"])
	}
	data, ok := resp["data"].(map[string]any)
	if !ok {
		t.Fatalf("Expected data object, got %v", resp["data"])
	}
	code, _ := data["ticket_code"].(string)
	if len(code) != 12 || code[:4] != "TKT-" {
		t.Errorf("Expected TKT- ticket code, got %q", code)
	}
}

func TestRegisterRequiresToken(t *testing.T) {
	fixture := newRouterFixture()
	eventID := uuid.New()
	fixture.oracle.capacities[eventID] = 10

	w := fixture.do(t, http.MethodPost, "/api/v1/registrations", "", map[string]string{"event_id": eventID.String()})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestRegisterDuplicateReturnsConflict(t *testing.T) {
	fixture := newRouterFixture()
	eventID := uuid.New()
	fixture.oracle.capacities[eventID] = 10
	_, token := mintToken(t, domain.RoleMember)

	first := fixture.do(t, http.MethodPost, "/api/v1/registrations", token, map[string]string{"event_id": eventID.String()})
	if first.Code != http.StatusCreated {
		t.Fatalf("Expected status 201 on first attempt, got %d", first.Code)
	}

	second := fixture.do(t, http.MethodPost, "/api/v1/registrations", token, map[string]string{"event_id": eventID.String()})
	if second.Code != http.StatusConflict {
		t.Errorf("Expected status 409 on duplicate, got %d", second.Code)
	}
}

func TestRegisterUnknownEventReturnsNotFound(t *testing.T) {
	fixture := newRouterFixture()
	_, token := mintToken(t, domain.RoleMember)

	w := fixture.do(t, http.MethodPost, "/api/v1/registrations", token, map[string]string{"event_id": uuid.NewString()})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestRegisterMalformedBody(t *testing.T) {
	fixture := newRouterFixture()
	_, token := mintToken(t, domain.RoleMember)

	w := fixture.do(t, http.MethodPost, "/api/v1/registrations", token, map[string]string{"event_id": "not-a-uuid"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestCancelEndToEnd(t *testing.T) {
	fixture := newRouterFixture()
	eventID := uuid.New()
	fixture.oracle.capacities[eventID] = 10
	_, token := mintToken(t, domain.RoleMember)

	created := fixture.do(t, http.MethodPost, "/api/v1/registrations", token, map[string]string{"event_id": eventID.String()})
	data := decodeResponse(t, created)["data"].(map[string]any)
	registrationID := data["registration_id"].(string)

	w := fixture.do(t, http.MethodDelete, "/api/v1/registrations/"+registrationID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	cancelled := decodeResponse(t, w)["data"].(map[string]any)
	if cancelled["status"] != string(domain.StatusCancelled) {
		t.Errorf("Expected status cancelled, got %v", cancelled["status"])
	}
}

func TestCancelForeignRegistrationForbidden(t *testing.T) {
	fixture := newRouterFixture()
	eventID := uuid.New()
	fixture.oracle.capacities[eventID] = 10
	_, ownerToken := mintToken(t, domain.RoleMember)
	_, strangerToken := mintToken(t, domain.RoleMember)

	created := fixture.do(t, http.MethodPost, "/api/v1/registrations", ownerToken, map[string]string{"event_id": eventID.String()})
	data := decodeResponse(t, created)["data"].(map[string]any)
	registrationID := data["registration_id"].(string)

	w := fixture.do(t, http.MethodDelete, "/api/v1/registrations/"+registrationID, strangerToken, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

func TestMyRegistrations(t *testing.T) {
	fixture := newRouterFixture()
	_, token := mintToken(t, domain.RoleMember)
	for i := 0; i < 3; i++ {
		eventID := uuid.New()
		fixture.oracle.capacities[eventID] = 5
		w := fixture.do(t, http.MethodPost, "/api/v1/registrations", token, map[string]string{"event_id": eventID.String()})
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d", w.Code)
		}
	}

	w := fixture.do(t, http.MethodGet, "/api/v1/registrations/my", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	list, ok := decodeResponse(t, w)["data"].([]any)
	if !ok {
		t.Fatalf("Expected data list, got %s", w.Body.String())
	}
	if len(list) != 3 {
		t.Errorf("Expected 3 registrations, got %d", len(list))
	}
}

func TestEventRegistrationsRequiresOrganizer(t *testing.T) {
	fixture := newRouterFixture()
	eventID := uuid.New()
	fixture.oracle.capacities[eventID] = 5
	_, memberToken := mintToken(t, domain.RoleMember)
	_, organizerToken := mintToken(t, domain.RoleOrganizer)

	fixture.do(t, http.MethodPost, "/api/v1/registrations", memberToken, map[string]string{"event_id": eventID.String()})

	path := "/api/v1/registrations/event/" + eventID.String()
	if w := fixture.do(t, http.MethodGet, path, memberToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for member, got %d", w.Code)
	}
	if w := fixture.do(t, http.MethodGet, path, organizerToken, nil); w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for organizer, got %d", w.Code)
	}
}

func TestAnalyticsOverviewRequiresAdmin(t *testing.T) {
	fixture := newRouterFixture()
	_, memberToken := mintToken(t, domain.RoleMember)
	_, adminToken := mintToken(t, domain.RoleAdmin)

	if w := fixture.do(t, http.MethodGet, "/api/v1/analytics/overview", memberToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for member, got %d", w.Code)
	}
	if w := fixture.do(t, http.MethodGet, "/api/v1/analytics/overview", adminToken, nil); w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for admin, got %d", w.Code)
	}
}

func TestCancelAllForEventAdminOnly(t *testing.T) {
	fixture := newRouterFixture()
	eventID := uuid.New()
	fixture.oracle.capacities[eventID] = 10
	_, memberToken := mintToken(t, domain.RoleMember)
	_, adminToken := mintToken(t, domain.RoleAdmin)

	for i := 0; i < 2; i++ {
		_, token := mintToken(t, domain.RoleMember)
		w := fixture.do(t, http.MethodPost, "/api/v1/registrations", token, map[string]string{"event_id": eventID.String()})
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d", w.Code)
		}
	}

	path := fmt.Sprintf("/internal/events/%s/cancel-all", eventID)
	if w := fixture.do(t, http.MethodPost, path, memberToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for member, got %d", w.Code)
	}

	w := fixture.do(t, http.MethodPost, path, adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for admin, got %d: %s", w.Code, w.Body.String())
	}

	stats, err := fixture.ledger.EventStats(context.Background(), eventID)
	if err != nil {
		t.Fatalf("Failed to read event stats: %v", err)
	}
	if stats.Confirmed != 0 || stats.Cancelled != 2 {
		t.Errorf("Expected 0 confirmed and 2 cancelled, got %d and %d", stats.Confirmed, stats.Cancelled)
	}
}

func TestIdempotencyKeyReplaysResponse(t *testing.T) {
	fixture := newRouterFixture()
	eventID := uuid.New()
	fixture.oracle.capacities[eventID] = 10
	_, token := mintToken(t, domain.RoleMember)

	body := map[string]string{"event_id": eventID.String()}
	first := httptest.NewRecorder()
	req := newJSONRequest(t, http.MethodPost, "/api/v1/registrations", token, body)
	req.Header.Set("Idempotency-Key", "req-once")
	fixture.engine.ServeHTTP(first, req)
	if first.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	retry := newJSONRequest(t, http.MethodPost, "/api/v1/registrations", token, body)
	retry.Header.Set("Idempotency-Key", "req-once")
	fixture.engine.ServeHTTP(second, retry)
	if second.Code != http.StatusCreated {
		t.Fatalf("Expected status 201 on replay, got %d: %s", second.Code, second.Body.String())
	}

	firstData := decodeResponse(t, first)["data"].(map[string]any)
	secondData := decodeResponse(t, second)["data"].(map[string]any)
	if firstData["registration_id"] != secondData["registration_id"] {
		t.Errorf("Expected replayed registration %v, got %v", firstData["registration_id"], secondData["registration_id"])
	}
}

func newJSONRequest(t *testing.T, method, path, token string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("Failed to encode body: %v", err)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestHealthEndpoints(t *testing.T) {
	fixture := newRouterFixture()

	for _, path := range []string{"/health", "/live"} {
		w := fixture.do(t, http.MethodGet, path, "", nil)
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200 for %s, got %d", path, w.Code)
		}
	}
}
