package middleware

import (
	"net/http"

	"github.com/rfaulk/flicklist/internal/request"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
)

// DefaultRateLimit is the rate applied when none is configured: 100 requests
// per minute per client IP, in ulule/limiter's formatted notation.
const DefaultRateLimit = "100-M"

// RateLimit returns middleware that limits requests per client IP using an
// in-memory store. rate uses ulule/limiter's formatted notation ("5-S",
// "100-M", "1000-H").
func RateLimit(rate string) (func(http.Handler) http.Handler, error) {
	if rate == "" {
		rate = DefaultRateLimit
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}

	instance := limiter.New(memorystore.NewStore(), parsed)
	keyGetter := func(r *http.Request) string {
		return request.ClientIP(r)
	}
	mw := stdlibmw.NewMiddleware(instance, stdlibmw.WithKeyGetter(keyGetter))
	return mw.Handler, nil
}
