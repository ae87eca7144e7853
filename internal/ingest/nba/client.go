package nba

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// BaseURL for the NBA stats API
	BaseURL = "https://stats.nba.com/stats"

	// UserAgent for requests; the stats API rejects default client agents
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// MinRequestInterval between upstream requests to stay under the
	// provider's rate limits
	MinRequestInterval = 1200 * time.Millisecond
)

// Client handles NBA stats API requests with rate limiting
type Client struct {
	baseURL     string
	httpClient  *http.Client
	lastRequest time.Time
	interval    time.Duration
}

// New creates a client with a custom base URL (useful for tests)
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		interval:   MinRequestInterval,
	}
}

// NewClient creates a client against the default API base
func NewClient() *Client {
	return New(BaseURL)
}

// FetchScoreboard fetches the game headers for a specific date
func (c *Client) FetchScoreboard(ctx context.Context, date time.Time) (*scoreboardResponse, error) {
	url := fmt.Sprintf("%s/scoreboardv2?GameDate=%s&LeagueID=00&DayOffset=0", c.baseURL, date.Format("2006-01-02"))

	var resp scoreboardResponse
	if err := c.fetch(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("fetch scoreboard for %s: %w", date.Format("2006-01-02"), err)
	}
	return &resp, nil
}

// FetchBoxScore fetches the traditional box score for a game
func (c *Client) FetchBoxScore(ctx context.Context, gameID string) (*boxScoreResponse, error) {
	url := fmt.Sprintf("%s/boxscoretraditionalv3?GameID=%s&StartPeriod=0&EndPeriod=10", c.baseURL, gameID)

	var resp boxScoreResponse
	if err := c.fetch(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("fetch box score for game %s: %w", gameID, err)
	}
	return &resp, nil
}

// fetch makes a rate-limited GET request and decodes the JSON response
func (c *Client) fetch(ctx context.Context, url string, v interface{}) error {
	c.throttle(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Referer", "https://www.nba.com/")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.lastRequest = time.Now()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("upstream returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// throttle sleeps until the minimum interval since the last request has
// elapsed, or the context is cancelled.
func (c *Client) throttle(ctx context.Context) {
	wait := c.interval - time.Since(c.lastRequest)
	if wait <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}
