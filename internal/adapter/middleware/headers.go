package middleware

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"
	HeaderActorID   = "Ax-Actor-Id"

	// Accepted distance between Ax-Request-At and the server clock.
	maxClockSkew = 10 * time.Minute
)

var (
	reUUID  = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)
	reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

// requestMeta is what a mutating request must declare about itself.
type requestMeta struct {
	RequestID string
	ActorID   string
	At        time.Time
}

var (
	errMissingRequestID = errors.New("missing " + HeaderRequestID)
	errBadRequestID     = errors.New("invalid " + HeaderRequestID + " format")
	errMissingRequestAt = errors.New("missing " + HeaderRequestAt)
	errBadRequestAt     = errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
	errSkewedRequestAt  = errors.New(HeaderRequestAt + " too skewed")
	errMissingActorID   = errors.New("missing " + HeaderActorID)
	errBadActorID       = errors.New("invalid " + HeaderActorID)
)

// readMeta validates the idempotency headers against now.
func readMeta(h http.Header, now time.Time) (requestMeta, error) {
	var m requestMeta

	m.RequestID = strings.TrimSpace(h.Get(HeaderRequestID))
	switch {
	case m.RequestID == "":
		return m, errMissingRequestID
	case !validRequestID(m.RequestID):
		return m, errBadRequestID
	}

	at, err := parseRequestAt(h.Get(HeaderRequestAt))
	if err != nil {
		return m, err
	}
	if at.Before(now.Add(-maxClockSkew)) || at.After(now.Add(maxClockSkew)) {
		return m, errSkewedRequestAt
	}
	m.At = at

	m.ActorID = strings.TrimSpace(h.Get(HeaderActorID))
	switch {
	case m.ActorID == "":
		return m, errMissingActorID
	case !reHex32.MatchString(m.ActorID):
		return m, errBadActorID
	}
	return m, nil
}

// validRequestID accepts a lowercase UUID (v1-v5) or a 32-char lowercase hex id,
// the same shape required of actor ids.
func validRequestID(id string) bool {
	return reUUID.MatchString(id) || reHex32.MatchString(id)
}

// parseRequestAt accepts epoch seconds, epoch milliseconds, or RFC3339 with an
// explicit zone. Naive local timestamps are rejected.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errMissingRequestAt
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, errBadRequestAt
	}
	return t.UTC(), nil
}
