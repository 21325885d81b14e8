package blop

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/protest-map-etl/internal/domain"
)

// Client fetches the published spreadsheet CSV export and parses it into
// candidate rows.
type Client struct {
	csvURL     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a blop feed client.
func NewClient(csvURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		csvURL: csvURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchRows downloads and parses the CSV feed.
func (c *Client) FetchRows(ctx context.Context) ([]domain.BlopRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.csvURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch csv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("blop feed error: status %d", resp.StatusCode)
	}

	rows, err := ParseRows(resp.Body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("blop csv fetched", "rows", len(rows))
	return rows, nil
}

// ParseRows reads header-mapped CSV rows. Unknown columns are ignored and
// short records tolerated; the sheet export is not strictly rectangular.
func ParseRows(r io.Reader) ([]domain.BlopRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var rows []domain.BlopRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		rows = append(rows, domain.BlopRow{
			UUID:          field("UUID"),
			CanonicalUUID: field("Canonical UUID"),
			Title:         field("Title"),
			Date:          field("Date"),
			Time:          field("Time"),
			Address:       field("Address"),
			City:          field("City"),
			State:         field("State"),
			Links:         field("Links"),
			ImageURL:      field("Image URL"),
		})
	}
	return rows, nil
}
