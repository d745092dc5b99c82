// Copyright (c) 2026 Communication LTD. All rights reserved.

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/commltd/commltd-api/internal/platform/apperr"
	"github.com/commltd/commltd-api/internal/platform/constants"
	"github.com/commltd/commltd-api/internal/platform/ctxutil"
	"github.com/commltd/commltd-api/internal/platform/respond"
)

// AuthThrottle applies a fixed-window per-IP attempt limit to credential
// endpoints (login, forgot-password).
//
// # Why Redis?
//
// Unlike the in-process token bucket in [RateLimit], throttle counters for
// credential guessing must survive restarts and be shared across replicas.
// A simple INCR with an expiry on first increment is enough; precision at
// window boundaries is not a requirement here.
//
// # Failure mode
//
// If Redis is unreachable the request is allowed through: the per-account
// lockout counter in the database remains the primary brute-force defense,
// and availability of login wins over a secondary throttle.
func AuthThrottle(client *redis.Client, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			key := fmt.Sprintf("%s%s:%s", constants.RedisPrefixThrottle, scope, RealIP(request))

			count, err := client.Incr(request.Context(), key).Result()
			if err != nil {
				ctxutil.GetLogger(request.Context()).WarnContext(request.Context(),
					"auth_throttle_unavailable", slog.Any("error", err))
				next.ServeHTTP(writer, request)
				return
			}

			// First hit in this window owns the expiry.
			if count == 1 {
				_ = client.Expire(request.Context(), key, constants.AuthThrottleWindow).Err()
			}

			if count > constants.AuthThrottleLimit {
				respond.Error(writer, request,
					apperr.RateLimited(int(constants.AuthThrottleWindow.Seconds())))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
