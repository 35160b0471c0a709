package casbinAuthorization

import (
	"net/http"

	"github.com/casbin/casbin"

	"github.com/jcchakradhar/homenest/authorization"
)

// RoleResolver maps a request credential to a casbin role. Requests without
// a credential act as Unauthenticated and may only reach public routes.
type RoleResolver func(req *http.Request) string

func ExtractRole(resolver authorization.IdentityResolver) RoleResolver {
	return func(req *http.Request) string {
		token := authorization.ExtractToken(req)
		if token == "" {
			return "Unauthenticated"
		}
		if _, err := resolver.Resolve(req.Context(), token); err != nil {
			return "Unauthenticated"
		}
		return "User"
	}
}

func CasbinMiddleware(enforcer *casbin.Enforcer, roleOf RoleResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(rw http.ResponseWriter, req *http.Request) {
			userRole := roleOf(req)

			res, err := enforcer.EnforceSafe(userRole, req.URL.Path, req.Method)
			if err != nil {
				http.Error(rw, "Unauthorized user", http.StatusUnauthorized)
				return
			}

			if res {
				next.ServeHTTP(rw, req)
			} else {
				http.Error(rw, "Forbidden", http.StatusForbidden)
			}
		}

		return http.HandlerFunc(fn)
	}
}
