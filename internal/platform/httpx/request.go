package httpx

import (
	"net/http"
	"strconv"
	"time"
)

// ActorID extracts the acting user id forwarded by the gateway.
// Zero means anonymous; authorization happens upstream.
func ActorID(r *http.Request) int64 {
	id, err := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// QueryDate parses a YYYY-MM-DD query parameter, returning fallback when
// the parameter is absent.
func QueryDate(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return time.Parse("2006-01-02", raw)
}
