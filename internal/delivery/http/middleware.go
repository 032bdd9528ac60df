package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	pkgErrors "github.com/piyushdan-dataslush/bms-analytics/pkg/errors"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/response"
)

// RequestLogger logs one line per request and scopes a logger carrying the
// request id into the request context.
func RequestLogger(l logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logger.WithContext(r.Context(), l, "request_id", middleware.GetReqID(r.Context()))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r.WithContext(ctx))

			l.Infof(ctx, "%s %s %d %dB %s", r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start))
		})
	}
}

// BearerAuth rejects requests without a valid HS256 token signed with secret.
// An empty issuer accepts any issuer.
func BearerAuth(secret, issuer string) func(http.Handler) http.Handler {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				_ = response.Error(w, pkgErrors.ErrUnauthorized, nil)
				return
			}

			_, err := parser.Parse(raw, func(*jwt.Token) (any, error) { return key, nil })
			if err != nil {
				_ = response.Error(w, pkgErrors.ErrUnauthorized, nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
