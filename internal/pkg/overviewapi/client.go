package overviewapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/domain/controlroom"
)

const overviewPath = "/api/v1/control-room/overview"

// maxBodyBytes caps the overview payload read from upstream.
const maxBodyBytes = 16 << 20

// Client reads marker snapshots from the HRIS backend's control room
// overview endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Success bool `json:"success"`
	Data    struct {
		Markers []controlroom.MarkerInput `json:"markers"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ListMarkers implements controlroom.SnapshotRepository. Markers the backend
// sends without a usable coordinate or with unknown statuses are dropped.
func (c *Client) ListMarkers(ctx context.Context, companyID string, _ time.Time) ([]controlroom.MarkerInput, error) {
	endpoint := c.baseURL + overviewPath + "?" + url.Values{"company_id": {companyID}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build overview request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overview request failed: %w: %w", controlroom.ErrSnapshotUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read overview response: %w: %w", controlroom.ErrSnapshotUnavailable, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("overview returned status %d with undecodable body: %w: %w", resp.StatusCode, controlroom.ErrSnapshotUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK || !env.Success {
		msg := http.StatusText(resp.StatusCode)
		if env.Error != nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
		return nil, fmt.Errorf("overview returned status %d (%s): %w", resp.StatusCode, msg, controlroom.ErrSnapshotUnavailable)
	}

	markers := make([]controlroom.MarkerInput, 0, len(env.Data.Markers))
	for _, m := range env.Data.Markers {
		if m.ID == "" || !m.HasValidCoordinates() || !m.PrimaryStatus.IsValid() || !m.SecondaryStatus.IsValid() {
			slog.Warn("Overview marker dropped", "company_id", companyID, "marker_id", m.ID, "lat", m.Lat, "lon", m.Lon)
			continue
		}
		markers = append(markers, m)
	}
	return markers, nil
}

// Healthcheck checks that the backend is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}
