// Package access decides whether a resolved caller may perform an operation.
package access

import (
	"context"

	"github.com/Ali-LB/dbcc/internal/common"
	"github.com/Ali-LB/dbcc/internal/common/security"
	"github.com/Ali-LB/dbcc/internal/domain/model"
)

// Authorize permits p when its role ranks at least as high as required.
// Anonymous callers get ErrUnauthorized, authenticated callers with too low a
// role get ErrForbidden.
func Authorize(p model.Principal, required model.Role) error {
	if required.Rank() == 0 {
		return nil
	}
	if !p.IsAuthenticated() {
		return common.ErrUnauthorized
	}
	if p.Role.Rank() < required.Rank() {
		return common.ErrForbidden
	}
	return nil
}

// PrincipalFromClaims resolves session claims. Missing or unknown claims give
// an anonymous principal.
func PrincipalFromClaims(claims map[string]interface{}) model.Principal {
	if claims == nil {
		return model.AnonymousPrincipal()
	}
	userID, err := security.GetUserIDFromClaims(claims)
	if err != nil {
		return model.AnonymousPrincipal()
	}
	role, err := security.GetUserRoleFromClaims(claims)
	if err != nil || !model.Role(role).Valid() {
		return model.AnonymousPrincipal()
	}
	return model.Principal{UserID: userID, Role: model.Role(role)}
}

type principalCtxKey struct{}

func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal, or anonymous.
func FromContext(ctx context.Context) model.Principal {
	p, ok := ctx.Value(principalCtxKey{}).(model.Principal)
	if !ok {
		return model.AnonymousPrincipal()
	}
	return p
}
