package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/filter"
	"trade-journal-go/internal/journal"
)

// setupTestServer creates a new test server and a Client configured to use it.
func setupTestServer(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)

	c := &Client{
		client:  resty.New().SetBaseURL(server.URL),
		logger:  zap.NewNop(),
		limiter: rate.NewLimiter(rate.Inf, 1), // Allow all requests in tests
		backoff: time.Millisecond,
	}
	return c, server
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestNewClient(t *testing.T) {
	c := NewClient(&config.Client{BaseURL: "http://journal.local", Timeout: time.Second}, zap.NewNop())

	assert.Equal(t, "http://journal.local", c.client.BaseURL)
	assert.Equal(t, rate.Inf, c.limiter.Limit())
	assert.Equal(t, time.Second, c.backoff)
}

func TestListTrades(t *testing.T) {
	// Arrange
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/trades", r.URL.Path)
		assert.Equal(t, []string{"ES", "NQ"}, r.URL.Query()["symbols"])
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		writeJSON(w, http.StatusOK, `{"code":0,"message":"ok",
			"data":[{"id":7,"symbol":"ES","pnl":12.5,"tags":[{"id":1,"name":"a"}],"attachments":[],
				"customValues":[{"fieldId":3,"key":"tf","type":"multiSelect","value":["M5","M15"]}]}],
			"meta":{"page":2,"pageSize":20,"total":21,"hasNext":false}}`)
	})
	c, server := setupTestServer(handler)
	defer server.Close()

	// Act
	page, err := c.ListTrades(context.Background(), filter.Normalize(filter.Filter{Page: 2, Symbols: []string{"ES", "NQ"}}))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(21), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 20, page.PageSize)
	require.Len(t, page.Items, 1)
	assert.Equal(t, uint(7), page.Items[0].ID)
	assert.Equal(t, 12.5, *page.Items[0].PnL)
	assert.Equal(t, "a", page.Items[0].Tags[0].Name)
	assert.Equal(t, []any{"M5", "M15"}, page.Items[0].CustomValues[0].Value)
}

func TestGetTrade_NotFound(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusNotFound, `{"code":404,"message":"trade not found"}`)
	})
	c, server := setupTestServer(handler)
	defer server.Close()

	trade, err := c.GetTrade(context.Background(), 9)

	assert.Nil(t, trade)
	assert.ErrorIs(t, err, journal.ErrNotFound)
	assert.Contains(t, err.Error(), "trade not found")
	assert.Equal(t, int32(1), calls.Load(), "client errors are not retried")
}

func TestSummary_RetriesServerErrors(t *testing.T) {
	t.Run("recovers", func(t *testing.T) {
		var calls atomic.Int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				writeJSON(w, http.StatusServiceUnavailable, `{"code":503,"message":"busy"}`)
				return
			}
			writeJSON(w, http.StatusOK, `{"code":0,"message":"ok","data":{"totalTrades":3,"winRate":0.5,"profitFactor":null}}`)
		})
		c, server := setupTestServer(handler)
		defer server.Close()

		s, err := c.Summary(context.Background(), filter.Filter{})

		require.NoError(t, err)
		assert.Equal(t, int64(3), s.TotalTrades)
		assert.Equal(t, 0.5, s.WinRate)
		assert.Nil(t, s.ProfitFactor)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("gives up", func(t *testing.T) {
		var calls atomic.Int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeJSON(w, http.StatusInternalServerError, `{"code":500,"message":"internal error"}`)
		})
		c, server := setupTestServer(handler)
		defer server.Close()

		s, err := c.Summary(context.Background(), filter.Filter{})

		assert.Nil(t, s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get summary")
		assert.Contains(t, err.Error(), "request failed after 3 attempts")
		assert.Equal(t, int32(maxRetries), calls.Load())
	})
}

func TestBreakdown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analytics/breakdown", r.URL.Path)
		assert.Equal(t, "tag", r.URL.Query().Get("dimension"))
		assert.Equal(t, "true", r.URL.Query().Get("compliant"))
		writeJSON(w, http.StatusOK, `{"code":0,"message":"ok","data":[{"key":"1","label":"x","trades":2,"winRate":0.5}]}`)
	})
	c, server := setupTestServer(handler)
	defer server.Close()
	compliant := true

	groups, err := c.Breakdown(context.Background(), filter.Filter{Compliant: &compliant}, "tag")

	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "x", groups[0].Label)
	assert.Equal(t, int64(2), groups[0].Trades)
}

func TestDoRequest_ContextCancelled(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, `{"code":429,"message":"slow down"}`)
	})
	c, server := setupTestServer(handler)
	defer server.Close()
	c.backoff = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.GetTrade(ctx, 1)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
