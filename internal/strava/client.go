package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/ifitclub/clubstats/internal/logging"
)

const (
	baseURL        = "https://www.strava.com/api/v3"
	oauthURL       = "https://www.strava.com/oauth"
	perPage        = 200
	requestTimeout = 30 * time.Second
)

// Default retry settings
const (
	defaultMaxRetries     = 5
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 5 * time.Minute
)

var (
	// ErrRateLimited is returned when retries are exhausted on a 429.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnauthorized is returned on a 401; the athlete's token was revoked or is invalid.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned on a 404.
	ErrNotFound = errors.New("not found")
)

// FetchResult is reported after each activity page.
type FetchResult struct {
	Activities   []Activity
	RateLimit    RateLimitInfo
	Page         int
	TotalFetched int
}

// ProgressCallback is called after each page is fetched
type ProgressCallback func(result FetchResult)

// Client talks to the upstream API on behalf of any connected athlete.
// Access tokens are passed per call; rate limit state is shared.
type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string
	oauthURL   string
	rateMu     sync.RWMutex
	rateLimit  RateLimitInfo
}

// RetryConfig holds retry/backoff settings
type RetryConfig struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: defaultMaxRetries,
		MinWait:    defaultInitialBackoff,
		MaxWait:    defaultMaxBackoff,
	}
}

// NewClient creates a client against the production API.
func NewClient() *Client {
	return newClientWithConfig(baseURL, oauthURL, DefaultRetryConfig())
}

// NewClientWithRetryConfig creates a client with custom retry settings.
func NewClientWithRetryConfig(cfg RetryConfig) *Client {
	return newClientWithConfig(baseURL, oauthURL, cfg)
}

// NewClientWithBaseURL points both the API and the oauth endpoints at
// customBaseURL (for testing).
func NewClientWithBaseURL(customBaseURL string) *Client {
	return newClientWithConfig(customBaseURL, customBaseURL+"/oauth", DefaultRetryConfig())
}

func newClientWithConfig(apiURL, authURL string, cfg RetryConfig) *Client {
	log := logging.Logger
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.MaxRetries
	client.RetryWaitMin = cfg.MinWait
	client.RetryWaitMax = cfg.MaxWait
	client.HTTPClient.Timeout = requestTimeout
	client.Logger = &logging.LeveledLogger{}
	// hand back the final response instead of a "giving up" error
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	// Retry 429 and 5xx; any other 4xx is final.
	client.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, nil
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return true, nil
		}
		return resp.StatusCode >= 500, nil
	}

	client.Backoff = func(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				if seconds, err := strconv.Atoi(retryAfter); err == nil {
					wait := time.Duration(seconds) * time.Second
					log.Info().
						Dur("wait", wait).
						Int("attempt", attemptNum).
						Msg("rate limited, waiting for Retry-After header")
					return wait
				}
			}

			wait := timeUntilNext15MinWindow(time.Now())
			log.Info().
				Dur("wait", wait).
				Int("attempt", attemptNum).
				Msg("rate limited, waiting for 15-minute window reset")
			return wait
		}

		wait := min * time.Duration(1<<uint(attemptNum))
		if wait > max {
			wait = max
		}
		log.Info().
			Dur("wait", wait).
			Int("attempt", attemptNum).
			Dur("max_wait", max).
			Msg("backing off before retry")
		return wait
	}

	client.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, retry int) {
		if retry > 0 {
			log.Info().
				Str("url", req.URL.Path).
				Int("attempt", retry+1).
				Msg("retrying request")
		}
		if logging.IsTraceEnabled() {
			log.Debug().
				Str("method", req.Method).
				Str("url", req.URL.Path).
				Str("headers", formatHeaders(req.Header)).
				Msg("request headers")
		}
	}

	client.ResponseLogHook = func(_ retryablehttp.Logger, resp *http.Response) {
		if logging.IsTraceEnabled() {
			log.Debug().
				Int("status", resp.StatusCode).
				Str("url", resp.Request.URL.Path).
				Str("headers", formatHeaders(resp.Header)).
				Msg("response headers")
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			rateLimit := parseRateLimitHeaders(resp.Header, time.Now())
			log.Warn().
				Int("status", resp.StatusCode).
				Str("url", resp.Request.URL.Path).
				Str("15min_usage", fmt.Sprintf("%d/%d", rateLimit.Usage15Min, rateLimit.Limit15Min)).
				Str("daily_usage", fmt.Sprintf("%d/%d", rateLimit.UsageDaily, rateLimit.LimitDaily)).
				Dur("wait_for_reset", rateLimit.TimeUntil15MinReset).
				Msg("rate limited by API")
		}
	}

	return &Client{
		httpClient: client,
		baseURL:    apiURL,
		oauthURL:   authURL,
	}
}

// WithRetryConfig sets custom retry configuration (useful for testing)
func (c *Client) WithRetryConfig(maxRetries int, initialBackoff, maxBackoff time.Duration) *Client {
	c.httpClient.RetryMax = maxRetries
	c.httpClient.RetryWaitMin = initialBackoff
	c.httpClient.RetryWaitMax = maxBackoff
	return c
}

// GetRateLimit returns the last seen quota with reset times recalculated for now.
func (c *Client) GetRateLimit() RateLimitInfo {
	c.rateMu.RLock()
	info := c.rateLimit
	c.rateMu.RUnlock()

	info.recalculate(time.Now())
	return info
}

// WaitForRateLimit blocks until the quota allows more requests or ctx is done.
func (c *Client) WaitForRateLimit(ctx context.Context) error {
	rateLimit := c.GetRateLimit()
	waitDuration := rateLimit.ShouldWaitForRateLimit()
	if waitDuration <= 0 {
		return nil
	}

	logging.Logger.Info().
		Dur("wait", waitDuration).
		Str("15min_usage", fmt.Sprintf("%d/%d", rateLimit.Usage15Min, rateLimit.Limit15Min)).
		Str("daily_usage", fmt.Sprintf("%d/%d", rateLimit.UsageDaily, rateLimit.LimitDaily)).
		Msg("waiting for rate limit window to reset")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(waitDuration):
		logging.Logger.Info().Msg("rate limit window reset, resuming")
		return nil
	}
}

func (c *Client) updateRateLimit(resp *http.Response) RateLimitInfo {
	rateLimit := parseRateLimitHeaders(resp.Header, time.Now())
	if resp.StatusCode == http.StatusTooManyRequests {
		rateLimit.IsRateLimited = true
	}
	c.rateMu.Lock()
	c.rateLimit = rateLimit
	c.rateMu.Unlock()
	return rateLimit
}

// FetchAthlete returns the profile of the token's athlete.
func (c *Client) FetchAthlete(ctx context.Context, accessToken string) (Athlete, error) {
	var athlete Athlete
	if _, err := c.getJSON(ctx, accessToken, c.baseURL+"/athlete", &athlete); err != nil {
		return Athlete{}, fmt.Errorf("fetching athlete: %w", err)
	}
	return athlete, nil
}

// FetchAthleteStats returns the rolled-up upstream totals for athleteID.
func (c *Client) FetchAthleteStats(ctx context.Context, accessToken string, athleteID int64) (AthleteStats, error) {
	var st AthleteStats
	endpoint := fmt.Sprintf("%s/athletes/%d/stats", c.baseURL, athleteID)
	if _, err := c.getJSON(ctx, accessToken, endpoint, &st); err != nil {
		return AthleteStats{}, fmt.Errorf("fetching athlete stats: %w", err)
	}
	return st, nil
}

// FetchAllActivities pages through every activity of the token's athlete.
func (c *Client) FetchAllActivities(ctx context.Context, accessToken string, progress ProgressCallback) ([]Activity, error) {
	return c.fetchActivities(ctx, accessToken, 0, progress)
}

// FetchActivitiesSince pages through activities that started after since.
func (c *Client) FetchActivitiesSince(ctx context.Context, accessToken string, since time.Time, progress ProgressCallback) ([]Activity, error) {
	return c.fetchActivities(ctx, accessToken, since.Unix(), progress)
}

func (c *Client) fetchActivities(ctx context.Context, accessToken string, after int64, progress ProgressCallback) ([]Activity, error) {
	var all []Activity
	for page := 1; ; page++ {
		activities, rateLimit, err := c.fetchActivitiesPage(ctx, accessToken, page, after)

		if progress != nil {
			progress(FetchResult{
				Activities:   activities,
				RateLimit:    rateLimit,
				Page:         page,
				TotalFetched: len(all) + len(activities),
			})
		}
		if err != nil {
			return all, err
		}
		if len(activities) == 0 {
			return all, nil
		}
		all = append(all, activities...)
	}
}

func (c *Client) fetchActivitiesPage(ctx context.Context, accessToken string, page int, after int64) ([]Activity, RateLimitInfo, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	if after > 0 {
		q.Set("after", strconv.FormatInt(after, 10))
	}

	var activities []Activity
	rateLimit, err := c.getJSON(ctx, accessToken, c.baseURL+"/athlete/activities?"+q.Encode(), &activities)
	if err != nil {
		return nil, rateLimit, fmt.Errorf("fetching activities page %d: %w", page, err)
	}
	return activities, rateLimit, nil
}

// Deauthorize revokes the application's access for the token's athlete.
func (c *Client) Deauthorize(ctx context.Context, accessToken string) error {
	form := url.Values{"access_token": {accessToken}}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.oauthURL+"/deauthorize", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		closeBody(resp)
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	c.updateRateLimit(resp)
	if err := statusError(resp.StatusCode); err != nil {
		return fmt.Errorf("deauthorizing: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, accessToken, endpoint string, out any) (RateLimitInfo, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return RateLimitInfo{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		closeBody(resp)
		return RateLimitInfo{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	rateLimit := c.updateRateLimit(resp)
	if err := statusError(resp.StatusCode); err != nil {
		return rateLimit, err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return rateLimit, fmt.Errorf("decoding response: %w", err)
	}
	return rateLimit, nil
}

// closeBody releases a response the passthrough error handler returned alongside an error.
func closeBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
}

func statusError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("unexpected status code: %d", code)
	}
}

// formatHeaders renders headers for trace logs with credentials redacted.
func formatHeaders(headers http.Header) string {
	if len(headers) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		value := strings.Join(headers[k], ", ")
		switch strings.ToLower(k) {
		case "authorization", "cookie", "set-cookie":
			value = "[REDACTED]"
		}
		parts = append(parts, fmt.Sprintf("%s: %q", k, value))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
