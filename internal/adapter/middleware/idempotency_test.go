package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"testing/iotest"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	testKey      = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testBorrower = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func setupEcho(rdb *redis.Client, ttl time.Duration, handler echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	mw := Idempotency(IdempotencyConfig{Redis: rdb, TTL: ttl})
	e.POST("/api/loans", handler, mw)
	e.GET("/api/loans", handler, mw)
	return e
}

func mkJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func doReq(t *testing.T, e *echo.Echo, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// countingHandler returns 201 with an incrementing counter so replays are detectable.
func countingHandler(n *int32) echo.HandlerFunc {
	return func(c echo.Context) error {
		v := atomic.AddInt32(n, 1)
		return c.JSON(http.StatusCreated, map[string]any{"n": v})
	}
}

func Test_PassThrough(t *testing.T) {
	var n int32
	_, rdb := newMiniredisClient(t)
	e := setupEcho(rdb, time.Minute, countingHandler(&n))

	// GET is never enforced
	if rec := doReq(t, e, http.MethodGet, "/api/loans", nil, nil); rec.Code != http.StatusCreated {
		t.Fatalf("GET => %d", rec.Code)
	}
	// POST without Idempotency-Key runs every time
	for i := 0; i < 2; i++ {
		if rec := doReq(t, e, http.MethodPost, "/api/loans", mkJSONBody(t, map[string]int{"x": 1}), nil); rec.Code != http.StatusCreated {
			t.Fatalf("POST without key => %d", rec.Code)
		}
	}
	if n != 3 {
		t.Fatalf("handler calls = %d, want 3", n)
	}
}

func Test_NilRedisIsNoop(t *testing.T) {
	var n int32
	e := setupEcho(nil, time.Minute, countingHandler(&n))
	h := map[string]string{HeaderIdempotencyKey: testKey}

	for i := 0; i < 2; i++ {
		doReq(t, e, http.MethodPost, "/api/loans", mkJSONBody(t, map[string]int{"x": 1}), h)
	}
	if n != 2 {
		t.Fatalf("handler calls = %d, want 2", n)
	}
}

func Test_ValidationFailures(t *testing.T) {
	var n int32
	_, rdb := newMiniredisClient(t)
	e := setupEcho(rdb, time.Minute, countingHandler(&n))

	cases := []struct {
		name string
		hdr  map[string]string
	}{
		{"invalid key", map[string]string{HeaderIdempotencyKey: "NOT-VALID"}},
		{"invalid request-at", map[string]string{HeaderIdempotencyKey: testKey, HeaderRequestAt: "not-a-time"}},
		{"naive request-at", map[string]string{HeaderIdempotencyKey: testKey, HeaderRequestAt: "2025-09-05T10:00:00"}},
		{"skewed request-at", map[string]string{
			HeaderIdempotencyKey: testKey,
			HeaderRequestAt:      time.Now().UTC().Add(-maxClockSkew - time.Minute).Format(time.RFC3339),
		}},
		{"invalid borrower", map[string]string{HeaderIdempotencyKey: testKey, HeaderBorrowerID: "not32hex"}},
	}
	for _, tc := range cases {
		rec := doReq(t, e, http.MethodPost, "/api/loans", mkJSONBody(t, map[string]int{"x": 1}), tc.hdr)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s => want 400, got %d", tc.name, rec.Code)
		}
	}
	if n != 0 {
		t.Fatalf("handler must not run on invalid headers, ran %d times", n)
	}
}

func Test_HappyPath_Then_Replay(t *testing.T) {
	var n int32
	_, rdb := newMiniredisClient(t)
	e := setupEcho(rdb, 2*time.Minute, countingHandler(&n))

	h := map[string]string{
		HeaderIdempotencyKey: testKey,
		HeaderRequestAt:      time.Now().UTC().Format(time.RFC3339),
		HeaderBorrowerID:     testBorrower,
	}

	rec1 := doReq(t, e, http.MethodPost, "/api/loans", mkJSONBody(t, map[string]any{"amount": 5000000}), h)
	if rec1.Code != http.StatusCreated {
		t.Fatalf("first request => want 201, got %d, body: %s", rec1.Code, rec1.Body.String())
	}
	rec2 := doReq(t, e, http.MethodPost, "/api/loans", mkJSONBody(t, map[string]any{"amount": 5000000}), h)
	if rec2.Code != http.StatusCreated {
		t.Fatalf("replay => want 201, got %d, body: %s", rec2.Code, rec2.Body.String())
	}
	if rec1.Body.String() != rec2.Body.String() {
		t.Fatalf("replay body mismatch: %q vs %q", rec1.Body.String(), rec2.Body.String())
	}
	if n != 1 {
		t.Fatalf("handler calls = %d, want 1", n)
	}
}

func Test_Conflict_When_InProgress(t *testing.T) {
	var n int32
	_, rdb := newMiniredisClient(t)
	e := setupEcho(rdb, 2*time.Minute, countingHandler(&n))

	body := []byte(`{"x":1}`)
	key := buildKey(http.MethodPost, "/api/loans", "", testKey)
	entry := idempEntry{InProgress: true, BodySHA256: bodyHash(body), RequestID: testKey, CreatedAt: time.Now().UTC()}
	if ok, err := (entryStore{rdb: rdb}).lock(context.Background(), key, entry); err != nil || !ok {
		t.Fatalf("seed provisional failed, ok=%v err=%v", ok, err)
	}

	rec := doReq(t, e, http.MethodPost, "/api/loans", bytes.NewReader(body), map[string]string{HeaderIdempotencyKey: testKey})
	if rec.Code != http.StatusConflict {
		t.Fatalf("in-progress => want 409, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func Test_Conflict_When_SameKey_DifferentBody(t *testing.T) {
	var n int32
	_, rdb := newMiniredisClient(t)
	e := setupEcho(rdb, 2*time.Minute, countingHandler(&n))

	h := map[string]string{HeaderIdempotencyKey: testKey}
	if rec := doReq(t, e, http.MethodPost, "/api/loans", bytes.NewReader([]byte(`{"x":1}`)), h); rec.Code != http.StatusCreated {
		t.Fatalf("first => %d", rec.Code)
	}
	rec := doReq(t, e, http.MethodPost, "/api/loans", bytes.NewReader([]byte(`{"x":2}`)), h)
	if rec.Code != http.StatusConflict {
		t.Fatalf("different body same key => want 409, got %d", rec.Code)
	}
}

func Test_ServerErrorIsNotReplayed(t *testing.T) {
	var n int32
	_, rdb := newMiniredisClient(t)
	e := setupEcho(rdb, time.Minute, func(c echo.Context) error {
		if atomic.AddInt32(&n, 1) == 1 {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "storage unavailable"})
		}
		return c.JSON(http.StatusCreated, map[string]bool{"ok": true})
	})

	h := map[string]string{HeaderIdempotencyKey: testKey}
	if rec := doReq(t, e, http.MethodPost, "/api/loans", bytes.NewReader([]byte(`{}`)), h); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("first => %d", rec.Code)
	}
	if rec := doReq(t, e, http.MethodPost, "/api/loans", bytes.NewReader([]byte(`{}`)), h); rec.Code != http.StatusCreated {
		t.Fatalf("retry => want 201, got %d", rec.Code)
	}
}

func Test_TTLExpiry(t *testing.T) {
	var n int32
	mr, rdb := newMiniredisClient(t)
	e := setupEcho(rdb, time.Minute, countingHandler(&n))

	h := map[string]string{HeaderIdempotencyKey: testKey}
	doReq(t, e, http.MethodPost, "/api/loans", bytes.NewReader([]byte(`{}`)), h)
	mr.FastForward(2 * time.Minute)
	doReq(t, e, http.MethodPost, "/api/loans", bytes.NewReader([]byte(`{}`)), h)

	if n != 2 {
		t.Fatalf("handler calls = %d, want 2 after ttl expiry", n)
	}
}

func Test_StoreUnavailable_Returns503(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = rdb.Close() })
	e := setupEcho(rdb, time.Minute, countingHandler(new(int32)))

	rec := doReq(t, e, http.MethodPost, "/api/loans", bytes.NewReader([]byte(`{}`)), map[string]string{HeaderIdempotencyKey: testKey})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("store unavailable => want 503, got %d", rec.Code)
	}
}

func Test_BodyReadErrorIsRejected(t *testing.T) {
	var n int32
	mr, rdb := newMiniredisClient(t)
	e := setupEcho(rdb, time.Minute, countingHandler(&n))

	// the connection drops after part of the body arrived
	body := io.MultiReader(strings.NewReader(`{"x":`), iotest.ErrReader(errors.New("connection reset")))
	rec := doReq(t, e, http.MethodPost, "/api/loans", body, map[string]string{HeaderIdempotencyKey: testKey})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("truncated body => want 400, got %d body=%s", rec.Code, rec.Body.String())
	}
	if n != 0 {
		t.Fatalf("handler calls = %d, want 0", n)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("nothing may be stored for a truncated body, got keys %v", keys)
	}
}
