package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wrenchworks/dispatch-api/pkg/config"
	appErrors "github.com/wrenchworks/dispatch-api/pkg/errors"
)

// Client talks to the upstream services this engine reconciles against: the
// job intake service, the technician roster service, and the canonical
// roadside-request owner. Every call carries the configured timeout.
type Client struct {
	intakeBase   string
	rosterBase   string
	roadsideBase string
	timeout      time.Duration
	http         *http.Client
	logger       *zap.Logger
}

// New constructs a Client with sane defaults.
func New(cfg config.UpstreamConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		intakeBase:   strings.TrimRight(cfg.IntakeBaseURL, "/"),
		rosterBase:   strings.TrimRight(cfg.RosterBaseURL, "/"),
		roadsideBase: strings.TrimRight(cfg.RoadsideBaseURL, "/"),
		timeout:      timeout,
		http:         &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

// FetchTechnicians pulls the full roster snapshot.
func (c *Client) FetchTechnicians(ctx context.Context) ([]map[string]interface{}, error) {
	return c.fetchBatch(ctx, c.rosterBase+"/technicians")
}

// FetchJobs pulls new intake jobs.
func (c *Client) FetchJobs(ctx context.Context) ([]map[string]interface{}, error) {
	return c.fetchBatch(ctx, c.intakeBase+"/jobs/new")
}

// FetchRoadAssists pulls new roadside requests from their canonical owner.
func (c *Client) FetchRoadAssists(ctx context.Context) ([]map[string]interface{}, error) {
	return c.fetchBatch(ctx, c.roadsideBase+"/roadside/requests/new")
}

// AssignRoadside records the assignment with the canonical roadside owner.
// It must succeed before any local state is written.
func (c *Client) AssignRoadside(ctx context.Context, roadAssistID, technicianID string) error {
	url := fmt.Sprintf("%s/roadside/requests/%s/assign", c.roadsideBase, roadAssistID)
	payload, err := json.Marshal(map[string]string{"technicianId": technicianID})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode assignment payload")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(payload))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build assignment request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(err, "roadside assignment")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return appErrors.Clone(appErrors.ErrUpstreamUnavailable,
			fmt.Sprintf("roadside owner rejected assignment: status %d %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.logger.Warn("roadside owner returned unreadable body", zap.Error(err))
	}
	return nil
}

// fetchBatch retrieves a JSON payload and normalizes it to a slice: upstream
// endpoints respond with either an array or a single object.
func (c *Client) fetchBatch(ctx context.Context, url string) ([]map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build fetch request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportError(err, url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, appErrors.Clone(appErrors.ErrUpstreamUnavailable,
			fmt.Sprintf("upstream fetch failed: status %d from %s", resp.StatusCode, url))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "failed to read upstream response")
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var batch []map[string]interface{}
		if err := json.Unmarshal(trimmed, &batch); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "failed to decode upstream batch")
		}
		return batch, nil
	}

	var single map[string]interface{}
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "failed to decode upstream record")
	}
	return []map[string]interface{}{single}, nil
}

func (c *Client) transportError(err error, target string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return appErrors.Wrap(err, appErrors.ErrUpstreamTimeout.Code, appErrors.ErrUpstreamTimeout.Status,
			fmt.Sprintf("upstream call timed out: %s", target))
	}
	return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status,
		fmt.Sprintf("upstream call failed: %s", target))
}
