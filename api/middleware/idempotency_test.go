package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/mealtime-backend/pkg/errors"
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

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key], _ = value.(string)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

const (
	duplicatePattern = "/api/v1/shopping-lists/{listId}/duplicate"
	generatePattern  = "/api/v1/shopping-lists/generate"
)

func patternRequest(pattern, url, key string, body io.Reader) *http.Request {
	req := httptest.NewRequest(http.MethodPost, url, body)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func duplicateRequest(key, body string) *http.Request {
	return patternRequest(duplicatePattern, "/api/v1/shopping-lists/abc/duplicate", key, strings.NewReader(body))
}

func TestRuleSelection(t *testing.T) {
	for _, tc := range []struct {
		method, pattern string
		ok, optional    bool
		ttl             time.Duration
	}{
		{http.MethodPost, duplicatePattern, true, false, duplicateReplayTTL},
		{http.MethodPost, generatePattern, true, true, generateReplayTTL},
		{http.MethodPost, "/api/v1/shopping-lists/items/{itemId}/toggle", false, false, 0},
		{http.MethodGet, duplicatePattern, false, false, 0},
	} {
		req := patternRequest(tc.pattern, "/", "", nil)
		req.Method = tc.method
		rule, ok := ruleFor(req)
		assert.Equal(t, tc.ok, ok, tc.pattern)
		assert.Equal(t, tc.optional, rule.keyOptional, tc.pattern)
		assert.Equal(t, tc.ttl, rule.ttl, tc.pattern)
	}

	_, ok := ruleFor(httptest.NewRequest(http.MethodPost, "/", nil))
	assert.False(t, ok, "requests outside chi are never guarded")
}

func TestIdempotencyOptionalRulePassesThroughWithoutKey(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
	}))

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), patternRequest(generatePattern, generatePattern, "", strings.NewReader(`{}`)))
	}
	assert.Equal(t, 2, calls)
	assert.Empty(t, store.data)
}

func TestIdempotencyRequiresKey(t *testing.T) {
	handler := Idempotency(newFakeStore(), nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run without a key")
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, duplicateRequest("", `{}`))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, duplicateRequest(strings.Repeat("k", maxKeyLength+1), `{}`))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestIdempotencyRejectsOversizedBody(t *testing.T) {
	store := newFakeStore()
	handler := Idempotency(store, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run for an oversized body")
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, duplicateRequest("abc", strings.Repeat("x", maxFingerprintBody+1)))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "request body too large")
	assert.Empty(t, store.data)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"copy"}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, duplicateRequest("abc", `{}`))
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(ReplayedHeader))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, duplicateRequest("abc", `{}`))
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.Equal(t, "true", second.Header().Get(ReplayedHeader))
	assert.Equal(t, `{"id":"copy"}`, second.Body.String())
	assert.Equal(t, 1, calls)

	for key, ttl := range store.ttls {
		if !strings.HasSuffix(key, ":pending") {
			assert.Equal(t, duplicateReplayTTL, ttl)
		}
	}
	for key := range store.data {
		assert.False(t, strings.HasSuffix(key, ":pending"), "pending marker must be released")
	}
}

func TestIdempotencyDetectsBodyChange(t *testing.T) {
	handler := Idempotency(newFakeStore(), nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), duplicateRequest("xyz", `{"a":1}`))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, duplicateRequest("xyz", `{"a":2}`))
	require.Equal(t, http.StatusConflict, resp.Code)

	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Equal(t, string(pkgerrors.CodeIdempotency), payload.Error.Code)
}

func TestIdempotencyRejectsConcurrentDuplicate(t *testing.T) {
	store := newFakeStore()
	var inner *httptest.ResponseRecorder
	var handler http.Handler
	handler = Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if inner == nil {
			inner = httptest.NewRecorder()
			handler.ServeHTTP(inner, duplicateRequest("same", `{}`))
		}
		w.WriteHeader(http.StatusCreated)
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, duplicateRequest("same", `{}`))
	assert.Equal(t, http.StatusCreated, resp.Code)
	require.NotNil(t, inner)
	assert.Equal(t, http.StatusConflict, inner.Code)
	assert.Contains(t, inner.Body.String(), string(pkgerrors.CodeConcurrency))
}

func TestIdempotencyDoesNotRecordServerErrors(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, duplicateRequest("retry", `{}`))
	assert.Equal(t, http.StatusServiceUnavailable, first.Code)
	assert.Empty(t, store.data)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, duplicateRequest("retry", `{}`))
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, 2, calls)
}
