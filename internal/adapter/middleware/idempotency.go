package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"microloans-api/pkg/id"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderRequestAt      = "X-Request-At"
	HeaderBorrowerID     = "X-Borrower-Id"

	// upper bound on a single handler run holding the key
	provisionalLockTTL = 60 * time.Second
	maxClockSkew       = 10 * time.Minute
	storeTimeout       = 2 * time.Second
)

type idempEntry struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type respRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }
func (r *respRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.w.Write(b)
}
func (r *respRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

type IdempotencyConfig struct {
	Redis *redis.Client
	TTL   time.Duration
	Log   *zap.Logger
}

// Idempotency replays the stored response for a repeated Idempotency-Key.
// Requests without the header, and every request when Redis is nil, pass through.
// X-Request-At (epoch s/ms or RFC3339 with zone) and X-Borrower-Id are optional;
// when present they are validated and the borrower id scopes the key.
func Idempotency(cfg IdempotencyConfig) echo.MiddlewareFunc {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if cfg.Redis == nil {
			return next
		}
		store := entryStore{rdb: cfg.Redis}
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			reqID := strings.TrimSpace(req.Header.Get(HeaderIdempotencyKey))
			if reqID == "" {
				return next(c)
			}
			if !validReqID(reqID) {
				return c.JSON(http.StatusBadRequest, errBody("invalid "+HeaderIdempotencyKey+" format"))
			}

			var reqAt time.Time
			if raw := req.Header.Get(HeaderRequestAt); raw != "" {
				t, err := parseRequestAt(raw)
				if err != nil {
					return c.JSON(http.StatusBadRequest, errBody(err.Error()))
				}
				now := nowUTC()
				if t.Before(now.Add(-maxClockSkew)) || t.After(now.Add(maxClockSkew)) {
					return c.JSON(http.StatusBadRequest, errBody(HeaderRequestAt+" too skewed"))
				}
				reqAt = t
			}

			borrowerID := strings.TrimSpace(req.Header.Get(HeaderBorrowerID))
			if borrowerID != "" && !id.Valid(borrowerID) {
				return c.JSON(http.StatusBadRequest, errBody("invalid "+HeaderBorrowerID))
			}

			var body []byte
			if req.Body != nil {
				b, err := io.ReadAll(req.Body)
				if err != nil {
					return c.JSON(http.StatusBadRequest, errBody("invalid body"))
				}
				body = b
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			bhash := bodyHash(body)

			key := buildKey(req.Method, req.URL.Path, borrowerID, reqID)
			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()

			entry := idempEntry{
				InProgress: true,
				BodySHA256: bhash,
				RequestID:  reqID,
				CreatedAt:  nowUTC(),
			}
			if !reqAt.IsZero() {
				entry.RequestAtMS = reqAt.UnixMilli()
			}
			ok, err := store.lock(ctx, key, entry)
			if err != nil {
				log.Warn("idempotency store unavailable", zap.String("key", key), zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, errBody("idempotency store unavailable"))
			}
			if !ok {
				cur, errLoad := store.load(ctx, key)
				if errLoad != nil {
					log.Warn("idempotency entry load failed", zap.String("key", key), zap.Error(errLoad))
				}
				if cur.BodySHA256 != "" && cur.BodySHA256 != bhash {
					return c.JSON(http.StatusConflict, errBody(HeaderIdempotencyKey+" reused with different body"))
				}
				if !cur.InProgress && cur.Code != 0 && len(cur.Body) > 0 {
					return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
				}
				return c.JSON(http.StatusConflict, errBody("request is already in progress"))
			}

			rec := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			// server-side failures are not replayed; let the client retry
			if rec.code >= http.StatusInternalServerError {
				if err := store.release(context.Background(), key); err != nil {
					log.Warn("idempotency lock release failed", zap.String("key", key), zap.Error(err))
				}
				return nil
			}

			entry.InProgress = false
			entry.Code = rec.code
			entry.Body = rec.buf.Bytes()
			entry.CreatedAt = nowUTC()
			if err := store.save(context.Background(), key, entry, cfg.TTL); err != nil {
				log.Warn("idempotency save failed", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	}
}

func errBody(msg string) map[string]string { return map[string]string{"error": msg} }
