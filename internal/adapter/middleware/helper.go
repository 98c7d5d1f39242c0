package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "microloans:idemp:"

func bodyHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func nowUTC() time.Time { return time.Now().UTC() }

// buildKey scopes a key by route and, when given, by borrower.
func buildKey(method, path, borrowerID, requestID string) string {
	if borrowerID == "" {
		borrowerID = "-"
	}
	return keyPrefix + strings.Join([]string{strings.ToLower(method), path, borrowerID, requestID}, ":")
}

// validReqID accepts a canonical UUID or its 32-hex form, in any case.
func validReqID(raw string) bool {
	raw = strings.TrimSpace(raw)
	if len(raw) != 32 && len(raw) != 36 {
		return false
	}
	_, err := uuid.Parse(raw)
	return err == nil
}

// parseRequestAt reads epoch seconds, epoch milliseconds or an RFC3339
// timestamp that carries a zone.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
}

// entryStore keeps idempotency entries as JSON strings in redis.
type entryStore struct {
	rdb *redis.Client
}

// lock claims key for an in-flight request. false means someone holds it.
func (s entryStore) lock(ctx context.Context, key string, e idempEntry) (bool, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, payload, provisionalLockTTL).Result()
}

func (s entryStore) load(ctx context.Context, key string) (idempEntry, error) {
	var e idempEntry
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		return idempEntry{}, err
	}
	return e, nil
}

func (s entryStore) save(ctx context.Context, key string, e idempEntry, ttl time.Duration) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, payload, ttl).Err()
}

func (s entryStore) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
