package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"
)

// Config holds destination API client configuration.
type Config struct {
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Client talks to the destination database API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

// NewClient creates a new destination API client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        baseURL,
		token:          cfg.Token,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("component", "notion"),
	}
}

type searchRequest struct {
	Query  string        `json:"query"`
	Filter *searchFilter `json:"filter,omitempty"`
}

type searchFilter struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

type searchResult struct {
	Object string `json:"object"`
	Database
}

type searchResponse struct {
	Results    []searchResult `json:"results"`
	HasMore    bool           `json:"has_more"`
	NextCursor *string        `json:"next_cursor"`
}

// FindDatabase resolves a database by its title via the search endpoint
// and returns the first database result.
func (c *Client) FindDatabase(ctx context.Context, query string) (*Database, error) {
	req := searchRequest{
		Query:  query,
		Filter: &searchFilter{Property: "object", Value: "database"},
	}

	var resp searchResponse
	if err := c.do(ctx, http.MethodPost, "/search", req, &resp); err != nil {
		return nil, fmt.Errorf("search database: %w", err)
	}

	for _, result := range resp.Results {
		if result.Object == "database" {
			db := result.Database
			return &db, nil
		}
	}

	return nil, fmt.Errorf("no database found for query %q", query)
}

type queryRequest struct {
	Filter      *propertyFilter `json:"filter,omitempty"`
	StartCursor *string         `json:"start_cursor,omitempty"`
	PageSize    int             `json:"page_size,omitempty"`
}

type propertyFilter struct {
	Property string        `json:"property"`
	RichText *textCriteria `json:"rich_text,omitempty"`
}

type textCriteria struct {
	IsNotEmpty bool `json:"is_not_empty,omitempty"`
}

type queryResponse struct {
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// QueryPages fetches all pages of the database whose idProperty is
// non-empty, following pagination cursors to the end.
func (c *Client) QueryPages(ctx context.Context, databaseID, idProperty string) ([]Page, error) {
	var pages []Page
	var cursor *string

	for {
		req := queryRequest{
			Filter: &propertyFilter{
				Property: idProperty,
				RichText: &textCriteria{IsNotEmpty: true},
			},
			StartCursor: cursor,
		}

		var resp queryResponse
		if err := c.do(ctx, http.MethodPost, "/databases/"+databaseID+"/query", req, &resp); err != nil {
			return nil, fmt.Errorf("query database: %w", err)
		}

		pages = append(pages, resp.Results...)

		c.logger.Debug("fetched page batch",
			"batch", len(resp.Results),
			"total", len(pages),
			"has_more", resp.HasMore,
		)

		if !resp.HasMore || resp.NextCursor == nil {
			break
		}
		cursor = resp.NextCursor
	}

	return pages, nil
}

type createPageRequest struct {
	Parent     pageParent               `json:"parent"`
	Properties map[string]PropertyValue `json:"properties"`
}

type pageParent struct {
	DatabaseID string `json:"database_id"`
}

// CreatePage creates a new record in the database and returns its
// remote id.
func (c *Client) CreatePage(ctx context.Context, databaseID string, properties map[string]PropertyValue) (string, error) {
	req := createPageRequest{
		Parent:     pageParent{DatabaseID: databaseID},
		Properties: properties,
	}

	var resp Page
	if err := c.do(ctx, http.MethodPost, "/pages", req, &resp); err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}

	return resp.ID, nil
}

type updatePageRequest struct {
	Properties map[string]PropertyValue `json:"properties"`
}

// UpdatePage patches the given properties of an existing record.
func (c *Client) UpdatePage(ctx context.Context, pageID string, properties map[string]PropertyValue) error {
	req := updatePageRequest{Properties: properties}

	if err := c.do(ctx, http.MethodPatch, "/pages/"+pageID, req, nil); err != nil {
		return fmt.Errorf("update page: %w", err)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var err error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err = c.doRequest(ctx, method, path, body, out)
		if err == nil {
			return nil
		}

		if attempt == c.maxAttempts {
			break
		}

		backoff := c.calculateBackoff(attempt)
		c.logger.Warn("request failed, retrying",
			"method", method,
			"path", path,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("after %d attempts: %w", c.maxAttempts, err)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > c.maxBackoff {
		backoff = c.maxBackoff
	}
	return backoff
}
