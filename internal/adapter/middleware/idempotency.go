package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"assistance-backend/pkg/clock"
)

const storeTimeout = 2 * time.Second

type Option func(*idempotency)

func WithClock(c clock.Clock) Option   { return func(i *idempotency) { i.clock = c } }
func WithLogger(l *slog.Logger) Option { return func(i *idempotency) { i.log = l } }

type idempotency struct {
	store replayStore
	clock clock.Clock
	log   *slog.Logger
}

// Idempotency guards mutating requests. Each one must carry Ax-Request-Id,
// Ax-Request-At and Ax-Actor-Id; a repeated request id from the same actor on
// the same route replays the stored status and body without reaching the
// handler. 5xx outcomes are not stored, so the client may retry them.
func Idempotency(rdb redis.UniversalClient, ttl time.Duration, opts ...Option) echo.MiddlewareFunc {
	i := &idempotency{
		store: replayStore{rdb: rdb, ttl: ttl},
		clock: clock.System(),
		log:   slog.Default(),
	}
	for _, o := range opts {
		o(i)
	}
	return i.handle
}

func (i *idempotency) handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		switch req.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return next(c)
		}

		meta, err := readMeta(req.Header, i.clock.Now())
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}

		var body []byte
		if req.Body != nil {
			body, _ = io.ReadAll(req.Body)
		}
		req.Body = io.NopCloser(bytes.NewReader(body))

		key := i.store.key(req.Method, c.Path(), meta)
		claim := outcome{BodyHash: hashBody(body), RequestAt: meta.At, StoredAt: i.clock.Now()}

		ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
		defer cancel()

		fresh, err := i.store.claim(ctx, key, claim)
		if err != nil {
			i.log.WarnContext(ctx, "idempotency store unavailable", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
		}
		if !fresh {
			return i.replay(ctx, c, key, claim.BodyHash)
		}

		w := &capturingWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
		c.Response().Writer = w
		if err := next(c); err != nil {
			c.Error(err)
		}

		if w.status >= http.StatusInternalServerError {
			if err := i.store.release(context.Background(), key); err != nil {
				i.log.WarnContext(ctx, "idempotency key not released", "key", key, "error", err)
			}
			return nil
		}
		claim.Status = w.status
		claim.Body = w.buf.Bytes()
		claim.StoredAt = i.clock.Now()
		if err := i.store.settle(context.Background(), key, claim); err != nil {
			i.log.WarnContext(ctx, "idempotency outcome not saved", "key", key, "error", err)
		}
		return nil
	}
}

func (i *idempotency) replay(ctx context.Context, c echo.Context, key, bodyHash string) error {
	prev, err := i.store.load(ctx, key)
	if err != nil {
		i.log.WarnContext(ctx, "idempotency entry unreadable", "key", key, "error", err)
	}
	switch {
	case prev.BodyHash != "" && prev.BodyHash != bodyHash:
		return c.JSON(http.StatusConflict, map[string]string{"error": HeaderRequestID + " reused with different body"})
	case prev.settled() && len(prev.Body) == 0:
		return c.NoContent(prev.Status)
	case prev.settled():
		return c.Blob(prev.Status, echo.MIMEApplicationJSON, prev.Body)
	}
	return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
}

// capturingWriter tees the response so it can be stored after the handler.
type capturingWriter struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
