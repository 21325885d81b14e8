package mobilize

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/protest-map-etl/internal/domain"
)

// Client fetches raw events from the Mobilize API, one paginated listing
// per configured organization.
type Client struct {
	baseURL    string
	orgIDs     []int64
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Mobilize feed client.
func NewClient(baseURL string, orgIDs []int64, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		orgIDs:  orgIDs,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// page is one response of the paginated events listing.
type page struct {
	Data []domain.MobilizeEvent `json:"data"`
	Next string                 `json:"next"`
}

// FetchEvents returns the raw events of every configured organization,
// following next links until each listing is exhausted.
func (c *Client) FetchEvents(ctx context.Context) ([]domain.MobilizeEvent, error) {
	var all []domain.MobilizeEvent
	for _, org := range c.orgIDs {
		events, err := c.fetchOrganization(ctx, org)
		if err != nil {
			return nil, fmt.Errorf("fetch organization %d: %w", org, err)
		}
		all = append(all, events...)
	}
	return all, nil
}

func (c *Client) fetchOrganization(ctx context.Context, orgID int64) ([]domain.MobilizeEvent, error) {
	var events []domain.MobilizeEvent

	url := fmt.Sprintf("%s/organizations/%d/events", c.baseURL, orgID)
	for url != "" {
		p, err := c.fetchPage(ctx, url)
		if err != nil {
			return nil, err
		}
		events = append(events, p.Data...)
		url = p.Next
	}

	c.logger.Debug("mobilize organization fetched", "org_id", orgID, "events", len(events))
	return events, nil
}

func (c *Client) fetchPage(ctx context.Context, url string) (page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return page{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return page{}, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return page{}, fmt.Errorf("mobilize API error: status %d: %s", resp.StatusCode, body)
	}

	var p page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return page{}, fmt.Errorf("decode page: %w", err)
	}
	return p, nil
}
