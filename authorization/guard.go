package authorization

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcchakradhar/homenest/domain"
	"github.com/jcchakradhar/homenest/errors"
)

const AccessTokenCookie = "access_token"

type identityKey struct{}

// Guard rejects requests without a verifiable credential and attaches the
// resolved identity to the request context.
type Guard struct {
	resolver IdentityResolver
	logger   *logrus.Logger
	tracer   trace.Tracer
}

func NewGuard(resolver IdentityResolver, logger *logrus.Logger, tracer trace.Tracer) *Guard {
	return &Guard{
		resolver: resolver,
		logger:   logger,
		tracer:   tracer,
	}
}

func (guard *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		ctx, span := guard.tracer.Start(req.Context(), "Guard.Middleware")
		defer span.End()

		token := ExtractToken(req)
		if token == "" {
			span.SetStatus(codes.Error, errors.NoTokenError)
			writeError(rw, http.StatusUnauthorized, errors.NoTokenError)
			return
		}

		identity, err := guard.resolver.Resolve(ctx, token)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			guard.logger.Errorf("Guard.Middleware : token rejected: %s", err)
			status := errors.StatusOf(err)
			if status == http.StatusInternalServerError {
				writeError(rw, status, errors.IdentityProviderError)
				return
			}
			writeError(rw, http.StatusForbidden, errors.InvalidTokenError)
			return
		}

		ctx = context.WithValue(ctx, identityKey{}, identity)
		next.ServeHTTP(rw, req.WithContext(ctx))
	})
}

// ExtractToken reads the credential from the access_token cookie, falling
// back to an Authorization bearer header.
func ExtractToken(req *http.Request) string {
	if cookie, err := req.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	bearer := req.Header.Get("Authorization")
	if bearer == "" {
		return ""
	}
	parts := strings.Split(bearer, "Bearer ")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

func IdentityFromContext(ctx context.Context) (*domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*domain.Identity)
	return identity, ok
}

func writeError(rw http.ResponseWriter, status int, message string) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
