package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/database"
	"trade-journal-go/internal/storage"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

func setupTest(t *testing.T, server config.Server) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Database: config.Database{DSN: filepath.Join(t.TempDir(), "journal.db")}}
	db, err := database.NewDatabase(cfg)
	require.NoError(t, err)
	files, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewRouter(server, db, files, zap.NewNop())
}

func do(t *testing.T, router http.Handler, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

type tradeJSON struct {
	ID          uint              `json:"id"`
	Symbol      string            `json:"symbol"`
	PnL         *float64          `json:"pnl"`
	Notes       string            `json:"notes"`
	Tags        []map[string]any  `json:"tags"`
	Attachments []map[string]any  `json:"attachments"`
	Custom      []json.RawMessage `json:"customValues"`
}

func newTrade(symbol string, pnl float64, tagIDs ...uint) map[string]any {
	return map[string]any{
		"datetime":    "2024-01-15T14:30:00Z",
		"symbol":      symbol,
		"accountType": "live",
		"result":      "manualExit",
		"pnl":         pnl,
		"tagIds":      tagIDs,
	}
}

func TestHealth(t *testing.T) {
	router := setupTest(t, config.Server{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestTradeLifecycle(t *testing.T) {
	router := setupTest(t, config.Server{})

	status, env := do(t, router, http.MethodPost, "/api/tags", map[string]any{"name": "breakout"})
	require.Equal(t, http.StatusOK, status)
	tagID := decode[struct {
		ID uint `json:"id"`
	}](t, env.Data).ID

	status, env = do(t, router, http.MethodPost, "/api/trades", newTrade("ES", 120, tagID))
	require.Equal(t, http.StatusOK, status, env.Message)
	created := decode[tradeJSON](t, env.Data)
	assert.Equal(t, "ES", created.Symbol)
	require.Len(t, created.Tags, 1)
	assert.Equal(t, "breakout", created.Tags[0]["name"])
	assert.NotNil(t, created.Attachments)

	_, _ = do(t, router, http.MethodPost, "/api/trades", newTrade("NQ", -30))

	t.Run("list with filter", func(t *testing.T) {
		status, env := do(t, router, http.MethodGet, "/api/trades?symbols=ES,CL&pageSize=1", nil)

		require.Equal(t, http.StatusOK, status)
		items := decode[[]tradeJSON](t, env.Data)
		require.Len(t, items, 1)
		assert.Equal(t, created.ID, items[0].ID)
		assert.EqualValues(t, 1, env.Meta["total"])
		assert.Equal(t, false, env.Meta["hasNext"])
	})

	t.Run("patch keeps omitted fields", func(t *testing.T) {
		status, env := do(t, router, http.MethodPatch, "/api/trades/"+itoa(created.ID), map[string]any{"notes": "held too long"})

		require.Equal(t, http.StatusOK, status)
		updated := decode[tradeJSON](t, env.Data)
		assert.Equal(t, "held too long", updated.Notes)
		assert.Equal(t, 120.0, *updated.PnL)
		assert.Len(t, updated.Tags, 1)
	})

	t.Run("summary", func(t *testing.T) {
		status, env := do(t, router, http.MethodGet, "/api/analytics/summary", nil)

		require.Equal(t, http.StatusOK, status)
		s := decode[map[string]any](t, env.Data)
		assert.EqualValues(t, 2, s["totalTrades"])
		assert.EqualValues(t, 4, s["profitFactor"])
	})

	t.Run("breakdown", func(t *testing.T) {
		status, env := do(t, router, http.MethodGet, "/api/analytics/breakdown?dimension=symbol", nil)

		require.Equal(t, http.StatusOK, status)
		groups := decode[[]map[string]any](t, env.Data)
		assert.Len(t, groups, 2)

		status, env = do(t, router, http.MethodGet, "/api/analytics/breakdown?dimension=strategy", nil)
		require.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `[]`, string(env.Data))
	})

	t.Run("delete", func(t *testing.T) {
		status, _ := do(t, router, http.MethodDelete, "/api/trades/"+itoa(created.ID), nil)
		assert.Equal(t, http.StatusOK, status)

		status, _ = do(t, router, http.MethodGet, "/api/trades/"+itoa(created.ID), nil)
		assert.Equal(t, http.StatusNotFound, status)
		status, _ = do(t, router, http.MethodDelete, "/api/trades/"+itoa(created.ID), nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestErrorMapping(t *testing.T) {
	router := setupTest(t, config.Server{})
	_, _ = do(t, router, http.MethodPost, "/api/tags", map[string]any{"name": "dup"})

	testCases := []struct {
		name           string
		method, path   string
		body           any
		expectedStatus int
	}{
		{name: "invalid query", method: http.MethodGet, path: "/api/trades?tagIds=x", expectedStatus: http.StatusBadRequest},
		{name: "invalid custom field json", method: http.MethodGet, path: "/api/analytics/summary?customFields=%7B", expectedStatus: http.StatusBadRequest},
		{name: "missing custom field in filter", method: http.MethodGet,
			path: "/api/trades?customFields=" + "%5B%7B%22fieldId%22%3A9%2C%22type%22%3A%22text%22%7D%5D", expectedStatus: http.StatusNotFound},
		{name: "validation", method: http.MethodPost, path: "/api/trades", body: newTrade("", 1), expectedStatus: http.StatusBadRequest},
		{name: "unknown tag", method: http.MethodPost, path: "/api/trades", body: newTrade("ES", 1, 77), expectedStatus: http.StatusConflict},
		{name: "duplicate tag", method: http.MethodPost, path: "/api/tags", body: map[string]any{"name": "dup"}, expectedStatus: http.StatusConflict},
		{name: "bad id", method: http.MethodGet, path: "/api/trades/abc", expectedStatus: http.StatusBadRequest},
		{name: "missing trade update", method: http.MethodPatch, path: "/api/trades/5", body: map[string]any{}, expectedStatus: http.StatusNotFound},
		{name: "missing dimension", method: http.MethodGet, path: "/api/analytics/breakdown", expectedStatus: http.StatusBadRequest},
		{name: "missing custom field dimension", method: http.MethodGet, path: "/api/analytics/breakdown?dimension=customField:9", expectedStatus: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := do(t, router, tc.method, tc.path, tc.body)

			assert.Equal(t, tc.expectedStatus, status)
			assert.Equal(t, tc.expectedStatus, env.Code)
			assert.NotEmpty(t, env.Message)
		})
	}
}

func TestBulkEndpoints(t *testing.T) {
	router := setupTest(t, config.Server{})
	_, env := do(t, router, http.MethodPost, "/api/tags", map[string]any{"name": "a"})
	tagID := decode[struct {
		ID uint `json:"id"`
	}](t, env.Data).ID
	var ids []uint
	for _, symbol := range []string{"ES", "NQ", "CL"} {
		_, env := do(t, router, http.MethodPost, "/api/trades", newTrade(symbol, 1))
		ids = append(ids, decode[tradeJSON](t, env.Data).ID)
	}

	status, _ := do(t, router, http.MethodPost, "/api/trades/bulk-tags", map[string]any{"ids": ids[:2], "tagIds": []uint{tagID}})
	require.Equal(t, http.StatusOK, status)
	_, env = do(t, router, http.MethodGet, "/api/trades?tagIds="+itoa(tagID), nil)
	assert.EqualValues(t, 2, env.Meta["total"])

	status, env = do(t, router, http.MethodPost, "/api/trades/bulk-delete", map[string]any{"ids": ids})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"deleted":3}`, string(env.Data))
}

func TestAttachmentUpload(t *testing.T) {
	router := setupTest(t, config.Server{MaxUploadBytes: 1 << 20})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "chart.PNG")
	require.NoError(t, err)
	_, err = part.Write([]byte("not really a png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/attachments", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	att := decode[map[string]any](t, env.Data)
	assert.EqualValues(t, 16, att["size"])
	assert.Nil(t, att["tradeId"])
	assert.Equal(t, ".png", filepath.Ext(att["path"].(string)))

	trade := newTrade("ES", 1)
	trade["attachmentIds"] = []any{att["id"]}
	status, env := do(t, router, http.MethodPost, "/api/trades", trade)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Len(t, decode[tradeJSON](t, env.Data).Attachments, 1)

	status, _ = do(t, router, http.MethodPost, "/api/attachments", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRateLimit(t *testing.T) {
	router := setupTest(t, config.Server{RateLimit: 0.001, RateLimitBurst: 1})

	first, _ := do(t, router, http.MethodGet, "/api/tags", nil)
	second, env := do(t, router, http.MethodGet, "/api/tags", nil)

	assert.Equal(t, http.StatusOK, first)
	assert.Equal(t, http.StatusTooManyRequests, second)
	assert.Equal(t, http.StatusTooManyRequests, env.Code)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
