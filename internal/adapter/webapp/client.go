package webapp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/semmidev/telos/internal/config"
)

// Client talks to the deployed application's HTTP surface: the admin
// maintenance toggle, the health endpoint, and the warm-up paths.
type Client struct {
	baseURL         string
	maintenancePath string
	healthPath      string
	http            *http.Client
}

func NewClient(cfg config.EndpointsConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		maintenancePath: cfg.MaintenancePath,
		healthPath:      cfg.HealthPath,
		http:            &http.Client{Timeout: timeout},
	}
}

// SetMaintenance posts the maintenance flag transition. The body shape is
// fixed: the application expects {"maintenance": <bool>} verbatim.
func (c *Client) SetMaintenance(ctx context.Context, enabled bool) error {
	body := fmt.Sprintf(`{"maintenance": %t}`, enabled)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+c.maintenancePath, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("maintenance request: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("maintenance request returned status %d", resp.StatusCode)
	}
	return nil
}

// Health probes the health endpoint and returns the observed status code.
// A transport failure returns status 0.
func (c *Client) Health(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+c.healthPath, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("health request: %w", err)
	}
	defer drain(resp)

	return resp.StatusCode, nil
}

// Warm issues a best-effort GET against a cache warm-up path, discarding
// the response body.
func (c *Client) Warm(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("warm-up request %s: %w", path, err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("warm-up request %s returned status %d", path, resp.StatusCode)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
