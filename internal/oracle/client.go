package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	domain "event-registration/internal/domain/registration"
	"event-registration/pkg/logger"

	"github.com/google/uuid"
)

// eventResponse mirrors the event catalog's response envelope.
type eventResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    *domain.EventSnapshot `json:"data"`
}

// Client queries the event catalog for an event's declared capacity. The
// catalog has no transactional tie to the ledger; a snapshot only bounds the
// admission decision it was fetched for.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// EventSnapshot fetches the event's current capacity. A catalog that reports
// no such event yields ErrEventNotFound; transport failures, timeouts,
// non-2xx responses and unparsable bodies yield ErrOracleUnavailable.
func (c *Client) EventSnapshot(ctx context.Context, eventID uuid.UUID) (*domain.EventSnapshot, error) {
	url := fmt.Sprintf("%s/events/%s", c.baseURL, eventID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOracleUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("Event catalog request failed for event %s: %v", eventID, err)
		return nil, fmt.Errorf("%w: %v", domain.ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrEventNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("Event catalog returned status %d for event %s", resp.StatusCode, eventID)
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrOracleUnavailable, resp.StatusCode)
	}

	var payload eventResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: invalid response body: %v", domain.ErrOracleUnavailable, err)
	}

	if !payload.Success || payload.Data == nil {
		return nil, domain.ErrEventNotFound
	}

	return payload.Data, nil
}
