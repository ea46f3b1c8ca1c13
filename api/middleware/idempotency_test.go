package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/pos-inventory/pkg/errors"
)

type fakeStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.data[key], _ = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	return true, f.Set(ctx, key, value, ttl)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

const stockPath = "/api/v1/menu-items/abc/stock"

func stockRequest(body, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, stockPath, strings.NewReader(body))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	return req
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error.Code
}

func TestGuardRequiresKey(t *testing.T) {
	called := false
	handler := NewIdempotency(newFakeStore(), nil).Guard(StockTTL)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, stockRequest(`{"quantity":"750"}`, ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, stockRequest(`{}`, strings.Repeat("k", maxKeyLength+1)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGuardReplaysCompletedResponse(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := NewIdempotency(store, nil).Guard(StockTTL)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"current_stock":"750"}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, stockRequest(`{"quantity":"750"}`, "crate-1"))
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(replayedHeader))

	replay := httptest.NewRecorder()
	handler.ServeHTTP(replay, stockRequest(`{"quantity":"750"}`, "crate-1"))
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "application/json", replay.Header().Get("Content-Type"))
	assert.Equal(t, "true", replay.Header().Get(replayedHeader))
	assert.JSONEq(t, `{"current_stock":"750"}`, replay.Body.String())
	assert.Equal(t, 1, calls)

	for _, ttl := range store.ttls {
		assert.Equal(t, StockTTL, ttl)
	}
}

func TestGuardRejectsChangedBody(t *testing.T) {
	handler := NewIdempotency(newFakeStore(), nil).Guard(StockTTL)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), stockRequest(`{"quantity":"750"}`, "crate-2"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, stockRequest(`{"quantity":"100"}`, "crate-2"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeIdempotency), errorCode(t, rec))
}

func TestGuardRejectsInFlightDuplicate(t *testing.T) {
	store := newFakeStore()
	guard := NewIdempotency(store, nil).Guard(StockTTL)
	var inner *httptest.ResponseRecorder
	handler := guard(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// A retry arrives while the first request is still running.
		inner = httptest.NewRecorder()
		guard(http.NotFoundHandler()).ServeHTTP(inner, stockRequest(`{"quantity":"750"}`, "crate-3"))
		w.WriteHeader(http.StatusCreated)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), stockRequest(`{"quantity":"750"}`, "crate-3"))
	require.NotNil(t, inner)
	assert.Equal(t, http.StatusConflict, inner.Code)
	assert.Equal(t, string(pkgerrors.CodeConflict), errorCode(t, inner))
}

func TestGuardReleasesKeyOnServerError(t *testing.T) {
	store := newFakeStore()
	status := http.StatusServiceUnavailable
	calls := 0
	handler := NewIdempotency(store, nil).Guard(ConfigTTL)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(status)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), stockRequest(`{}`, "retry-me"))
	assert.Empty(t, store.data, "failed attempt leaves nothing behind")

	status = http.StatusOK
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, stockRequest(`{}`, "retry-me"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, calls)
}

func TestGuardWithoutStorePassesThrough(t *testing.T) {
	var idem *Idempotency
	called := false
	handler := idem.Guard(StockTTL)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, stockRequest(`{}`, ""))
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}
