package traccar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/saferide/saferide/pkg/tracker/sources"
	"github.com/saferide/saferide/pkg/util"
)

const defaultServerURL = "https://demo.traccar.org"
const defaultRequestTimeout = 30 * time.Second
const maxRetryElapsedTime = 2 * time.Minute

// Client talks to a Traccar GPS tracking server. Transient request failures
// are retried with exponential backoff.
type Client struct {
	ServerURL string

	Username string
	Password string
	Token    string

	httpClient *http.Client
}

// Device is a tracker registered on the Traccar server.
type Device struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	UniqueID string `json:"uniqueId"`
	Status   string `json:"status"`

	LastUpdate string `json:"lastUpdate"`
	Disabled   bool   `json:"disabled"`
}

func NewClient() *Client {
	client := &Client{
		ServerURL:  defaultServerURL,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}

	env := util.GetEnvironmentVariables()

	if env["SAFERIDE_TRACCAR_URL"] != "" {
		client.ServerURL = env["SAFERIDE_TRACCAR_URL"]
	}
	client.Username = env["SAFERIDE_TRACCAR_USERNAME"]
	client.Password = env["SAFERIDE_TRACCAR_PASSWORD"]
	client.Token = env["SAFERIDE_TRACCAR_TOKEN"]

	return client
}

// PositionsForTimeRange queries /api/positions for one device over [from, to].
func (c *Client) PositionsForTimeRange(ctx context.Context, deviceID int, from time.Time, to time.Time) ([]sources.TraccarPosition, error) {
	query := url.Values{}
	query.Set("deviceId", strconv.Itoa(deviceID))
	query.Set("from", from.UTC().Format(time.RFC3339))
	query.Set("to", to.UTC().Format(time.RFC3339))

	var positions []sources.TraccarPosition
	if err := c.getJSON(ctx, "/api/positions", query, &positions); err != nil {
		return nil, err
	}

	return positions, nil
}

// LastPosition returns the most recent position for a device, or nil when
// the server has none.
func (c *Client) LastPosition(ctx context.Context, deviceID int) (*sources.TraccarPosition, error) {
	query := url.Values{}
	query.Set("deviceId", strconv.Itoa(deviceID))

	var positions []sources.TraccarPosition
	if err := c.getJSON(ctx, "/api/positions", query, &positions); err != nil {
		return nil, err
	}

	if len(positions) == 0 {
		return nil, nil
	}

	return &positions[0], nil
}

// Devices lists every tracker registered on the server.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var devices []Device
	if err := c.getJSON(ctx, "/api/devices", url.Values{}, &devices); err != nil {
		return nil, err
	}

	return devices, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target interface{}) error {
	requestURL := fmt.Sprintf("%s%s", c.ServerURL, path)
	if len(query) > 0 {
		requestURL = fmt.Sprintf("%s?%s", requestURL, query.Encode())
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		req.Header.Set("Accept", "application/json")

		if c.Token != "" {
			req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.Token))
		} else {
			req.SetBasicAuth(c.Username, c.Password)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return backoff.Permanent(fmt.Errorf("traccar request unauthorised: %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("traccar request failed: %d", resp.StatusCode)
		}

		jsonBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		return json.Unmarshal(jsonBytes, target)
	}

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = maxRetryElapsedTime

	err := backoff.Retry(operation, backoff.WithContext(retryPolicy, ctx))
	if err != nil {
		log.Error().Err(err).Str("url", requestURL).Msg("Traccar request failed")
		return err
	}

	return nil
}
