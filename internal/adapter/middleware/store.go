package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// pendingTTL bounds how long a claimed key blocks retries when the handler
// never settles it (crash, lost connection).
const pendingTTL = 60 * time.Second

// outcome is the stored state of one idempotent request.
type outcome struct {
	Pending   bool      `json:"pending"`
	Status    int       `json:"status,omitempty"`
	Body      []byte    `json:"body,omitempty"`
	BodyHash  string    `json:"body_sha256"`
	RequestAt time.Time `json:"request_at"`
	StoredAt  time.Time `json:"stored_at"`
}

func (o outcome) settled() bool { return !o.Pending && o.Status != 0 }

// replayStore keeps request outcomes in redis, one key per actor and request id.
type replayStore struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func (s replayStore) key(method, route string, m requestMeta) string {
	return fmt.Sprintf("idemp:ax:%s:%s:%s:%s", strings.ToLower(method), route, m.ActorID, m.RequestID)
}

// claim marks the key pending. It reports false when the key already exists.
func (s replayStore) claim(ctx context.Context, key string, o outcome) (bool, error) {
	o.Pending = true
	payload, err := json.Marshal(o)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, payload, pendingTTL).Result()
}

func (s replayStore) load(ctx context.Context, key string) (outcome, error) {
	var o outcome
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(raw, &o); err != nil {
		return o, fmt.Errorf("decode %s: %w", key, err)
	}
	return o, nil
}

// settle pins the final response for the store TTL.
func (s replayStore) settle(ctx context.Context, key string, o outcome) error {
	o.Pending = false
	payload, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, payload, s.ttl).Err()
}

// release forgets the key so the same request id can be retried.
func (s replayStore) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func hashBody(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
