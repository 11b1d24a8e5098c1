package middleware

import (
	"errors"
	"net/http"

	"github.com/Ali-LB/dbcc/internal/app/access"
	"github.com/Ali-LB/dbcc/internal/common"
	"github.com/Ali-LB/dbcc/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

// ResolvePrincipal turns the verified session (if any) into a Principal on the
// request context. Requests without a valid session continue as anonymous.
func ResolvePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := model.AnonymousPrincipal()
		token, claims, err := jwtauth.FromContext(r.Context())
		if err == nil && token != nil {
			p = access.PrincipalFromClaims(claims)
		}
		next.ServeHTTP(w, r.WithContext(access.WithPrincipal(r.Context(), p)))
	})
}

// RequireRole rejects callers whose principal does not satisfy role.
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := access.Authorize(access.FromContext(r.Context()), role)
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}

			if errors.Is(err, common.ErrUnauthorized) {
				_, _, tokenErr := jwtauth.FromContext(r.Context())
				if tokenErr != nil && !errors.Is(tokenErr, jwtauth.ErrNoTokenFound) {
					common.RespondWithJSON(w, http.StatusUnauthorized, common.ErrorResponse{
						Error: "Invalid token: " + tokenErr.Error(),
						Code:  common.ErrorCode(common.ErrUnauthorized),
					})
					return
				}
			}
			common.RespondWithDomainError(w, err)
		})
	}
}

// Authenticator admits any signed-in member.
func Authenticator(next http.Handler) http.Handler {
	return RequireRole(model.RoleMember)(next)
}

func AdminOnly(next http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin)(next)
}
