package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"trade-journal-go/internal/analytics"
	"trade-journal-go/internal/config"
	"trade-journal-go/internal/filter"
	"trade-journal-go/internal/journal"
	"trade-journal-go/internal/models"
)

const maxRetries = 3

// API is the read side of the journal HTTP API.
type API interface {
	ListTrades(ctx context.Context, f filter.Filter) (*TradePage, error)
	GetTrade(ctx context.Context, id uint) (*Trade, error)
	Summary(ctx context.Context, f filter.Filter) (*analytics.Summary, error)
	Breakdown(ctx context.Context, f filter.Filter, dimension string) ([]analytics.Breakdown, error)
}

// Client talks to a journal server over HTTP. It implements API.
type Client struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
	backoff time.Duration
}

// ensure Client implements the interface
var _ API = (*Client)(nil)

// Trade is a trade as served by the API. Custom values keep their decoded
// JSON form.
type Trade struct {
	models.Trade
	Tags         []models.Tag        `json:"tags"`
	Attachments  []models.Attachment `json:"attachments"`
	CustomValues []CustomValue       `json:"customValues"`
}

// CustomValue is one custom field value of a served trade.
type CustomValue struct {
	FieldID uint             `json:"fieldId"`
	Key     string           `json:"key"`
	Label   string           `json:"label"`
	Type    models.FieldType `json:"type"`
	Value   any              `json:"value"`
}

// TradePage is one page of a trade listing.
type TradePage struct {
	Items    []Trade `json:"items"`
	Total    int64   `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

// NewClient creates a Client for the server at cfg.BaseURL.
func NewClient(cfg *config.Client, logger *zap.Logger) *Client {
	client := resty.New().SetBaseURL(cfg.BaseURL)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateLimitBurst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		client:  client,
		logger:  logger.Named("client"),
		limiter: rate.NewLimiter(limit, burst),
		backoff: time.Second,
	}
}

// ListTrades fetches one page of trades matching f.
func (c *Client) ListTrades(ctx context.Context, f filter.Filter) (*TradePage, error) {
	var items []Trade
	env, err := c.get(ctx, "/api/trades", f.Values(), &items)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	page := &TradePage{Items: items}
	page.Total = int64(metaNumber(env.Meta, "total"))
	page.Page = int(metaNumber(env.Meta, "page"))
	page.PageSize = int(metaNumber(env.Meta, "pageSize"))
	return page, nil
}

// GetTrade fetches one trade. A missing trade is journal.ErrNotFound.
func (c *Client) GetTrade(ctx context.Context, id uint) (*Trade, error) {
	var trade Trade
	if _, err := c.get(ctx, "/api/trades/"+strconv.FormatUint(uint64(id), 10), nil, &trade); err != nil {
		return nil, fmt.Errorf("failed to get trade %d: %w", id, err)
	}
	return &trade, nil
}

// Summary fetches the headline metrics of the trades matching f.
func (c *Client) Summary(ctx context.Context, f filter.Filter) (*analytics.Summary, error) {
	var summary analytics.Summary
	if _, err := c.get(ctx, "/api/analytics/summary", f.Values(), &summary); err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	return &summary, nil
}

// Breakdown fetches the metrics of the trades matching f grouped by dimension.
func (c *Client) Breakdown(ctx context.Context, f filter.Filter, dimension string) ([]analytics.Breakdown, error) {
	params := f.Values()
	params.Set("dimension", dimension)
	var groups []analytics.Breakdown
	if _, err := c.get(ctx, "/api/analytics/breakdown", params, &groups); err != nil {
		return nil, fmt.Errorf("failed to get breakdown by %s: %w", dimension, err)
	}
	return groups, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) (*envelope, error) {
	req := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json")
	if len(params) > 0 {
		req.SetQueryParamsFromValues(params)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, req)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return &env, nil
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil
		}

		shouldRetry := false
		var retryAfter time.Duration

		if err == nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				if seconds, convErr := strconv.Atoi(resp.Header().Get("Retry-After")); convErr == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 {
				shouldRetry = true
			}
			err = statusError(resp)
		} else {
			// Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, err
		}

		if retryAfter == 0 {
			// Exponential backoff: 1x, 2x, 4x the base delay
			retryAfter = time.Duration(math.Pow(2, float64(i))) * c.backoff
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// statusError turns an error response into an error wrapping the matching
// journal sentinel, so callers can test it with errors.Is.
func statusError(resp *resty.Response) error {
	message := resp.String()
	var env envelope
	if json.Unmarshal(resp.Body(), &env) == nil && env.Message != "" {
		message = env.Message
	}

	switch resp.StatusCode() {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", journal.ErrNotFound, message)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", journal.ErrValidation, message)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", journal.ErrIntegrity, message)
	}
	return fmt.Errorf("request failed with status %s: %s", resp.Status(), message)
}

func metaNumber(meta map[string]any, key string) float64 {
	if v, ok := meta[key].(float64); ok {
		return v
	}
	return 0
}
