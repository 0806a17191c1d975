package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

// Client handles Strava API requests.
type Client struct {
	APIURL     string
	HTTPClient *http.Client
}

// NewClient creates a new Strava API client.
func NewClient(apiURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		APIURL:     apiURL,
		HTTPClient: httpClient,
	}
}

// Activity represents a Strava summary activity.
type Activity struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	SportType          string    `json:"sport_type"`
	StartDate          time.Time `json:"start_date"`
	StartDateLocal     time.Time `json:"start_date_local"`
	Timezone           string    `json:"timezone"`
	Distance           float64   `json:"distance"`             // in meters
	MovingTime         int       `json:"moving_time"`          // in seconds
	ElapsedTime        int       `json:"elapsed_time"`         // in seconds
	TotalElevationGain float64   `json:"total_elevation_gain"` // in meters
	AverageSpeed       float64   `json:"average_speed"`        // in meters per second
	MaxSpeed           float64   `json:"max_speed"`            // in meters per second
	AverageHeartrate   *float64  `json:"average_heartrate"`
	MaxHeartrate       *float64  `json:"max_heartrate"`
	SufferScore        *float64  `json:"suffer_score"`
	Map                Map       `json:"map"`
}

// Map holds the encoded route of an activity.
type Map struct {
	SummaryPolyline string `json:"summary_polyline"`
}

// FetchActivitiesOptions contains optional parameters for fetching activities.
type FetchActivitiesOptions struct {
	After   *int64 // Unix timestamp
	PerPage *int   // Number of items per page (default: 30, max: 200)
}

// APIError represents an error from the Strava API.
type APIError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration // For rate limit errors
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Strava API error (status %d): %s", e.StatusCode, e.Message)
}

// IsRateLimit returns true if this is a rate limit error (429).
func (e *APIError) IsRateLimit() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsUnauthorized returns true if this is an unauthorized error (401).
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsServerError returns true if this is a server error (5xx).
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// FetchActivities retrieves one page of the authenticated athlete's activities.
func (c *Client) FetchActivities(ctx context.Context, accessToken string, opts *FetchActivitiesOptions) ([]Activity, error) {
	client := oauth2.NewClient(
		context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
	)

	url := fmt.Sprintf("%s/athlete/activities", c.APIURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	q := req.URL.Query()
	if opts != nil {
		if opts.After != nil {
			q.Set("after", strconv.FormatInt(*opts.After, 10))
		}
		if opts.PerPage != nil {
			q.Set("per_page", strconv.Itoa(*opts.PerPage))
		}
	}
	req.URL.RawQuery = q.Encode()

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp)
	}

	var activities []Activity
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected activities response: %v", err),
		}
	}

	return activities, nil
}

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
	}

	// Read error response body if available
	body, readErr := io.ReadAll(resp.Body)
	if readErr == nil && len(body) > 0 {
		var errorResp struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &errorResp) == nil && errorResp.Message != "" {
			apiErr.Message = errorResp.Message
		} else {
			apiErr.Message = string(body)
		}
	} else {
		apiErr.Message = resp.Status
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if retryAfterStr := resp.Header.Get("Retry-After"); retryAfterStr != "" {
			if seconds, err := strconv.Atoi(retryAfterStr); err == nil {
				apiErr.RetryAfter = time.Duration(seconds) * time.Second
			}
		}
		if apiErr.RetryAfter == 0 {
			apiErr.RetryAfter = 60 * time.Second
		}
	case resp.StatusCode == http.StatusUnauthorized:
		apiErr.Message = "Unauthorized: token may be expired or invalid"
	case apiErr.IsServerError():
		apiErr.Message = fmt.Sprintf("Strava API server error: %s", apiErr.Message)
	}
	return apiErr
}

// ListActivities fetches a single page of activities started after the given
// Unix time. Results beyond perPage are not paged in.
func (c *Client) ListActivities(ctx context.Context, accessToken string, after int64, perPage int) ([]Activity, error) {
	return c.FetchActivities(ctx, accessToken, &FetchActivitiesOptions{
		After:   &after,
		PerPage: &perPage,
	})
}

// LatestActivity returns the most recent activity of any type, or nil if the
// athlete has none.
func (c *Client) LatestActivity(ctx context.Context, accessToken string) (*Activity, error) {
	perPage := 1
	activities, err := c.FetchActivities(ctx, accessToken, &FetchActivitiesOptions{PerPage: &perPage})
	if err != nil {
		return nil, err
	}
	if len(activities) == 0 {
		return nil, nil
	}
	return &activities[0], nil
}

// Page sizes for the stats windows.
const (
	WeeksPageSize = 200
	MonthPageSize = 100
)

// Recent is the activity data behind one stats response.
type Recent struct {
	Weeks  []Activity // since the Monday of the oldest bucketed week
	Month  []Activity // since the first of the current month
	Latest *Activity
}

// FetchRecent issues the weeks, month and latest queries concurrently. The first
// failure cancels the remaining requests.
func (c *Client) FetchRecent(ctx context.Context, accessToken string, weeksSince, monthSince time.Time) (*Recent, error) {
	var recent Recent
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		activities, err := c.ListActivities(ctx, accessToken, weeksSince.Unix(), WeeksPageSize)
		recent.Weeks = activities
		return err
	})
	g.Go(func() error {
		activities, err := c.ListActivities(ctx, accessToken, monthSince.Unix(), MonthPageSize)
		recent.Month = activities
		return err
	})
	g.Go(func() error {
		latest, err := c.LatestActivity(ctx, accessToken)
		recent.Latest = latest
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &recent, nil
}
