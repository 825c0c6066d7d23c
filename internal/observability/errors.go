package observability

import (
	"context"
	"errors"
	"net/http"

	"github.com/baxromumarov/fbref-downloader/internal/httpx"
	"github.com/baxromumarov/fbref-downloader/internal/table"
)

// Error taxonomy for per-season and per-team failures.
const (
	ErrorRateLimit  = "rate_limit"
	ErrorRemote     = "remote"
	ErrorNetwork    = "network"
	ErrorNoTable    = "no_table"
	ErrorParsing    = "parsing"
	ErrorCacheRead  = "cache_read"
	ErrorCacheWrite = "cache_write"
	ErrorUnknown    = "unknown"
)

// Classify maps a pipeline error onto the taxonomy.
func Classify(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	if errors.Is(err, table.ErrNoTable) {
		return ErrorNoTable
	}
	var fe *httpx.FetchError
	if errors.As(err, &fe) {
		switch {
		case fe.Status == http.StatusTooManyRequests:
			return ErrorRateLimit
		case fe.Status == 0:
			return ErrorNetwork
		default:
			return ErrorRemote
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorNetwork
	}
	return ErrorParsing
}
