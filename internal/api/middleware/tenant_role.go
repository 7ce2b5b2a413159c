package middleware

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

// TenantMember returns the caller's membership loaded by RequireTenantRole.
func TenantMember(c echo.Context) *domain.TenantMembership {
	m, _ := c.Get(tenantMemberKey).(*domain.TenantMembership)
	return m
}

// RequireTenantRole is the :tenantId counterpart of RequireProjectRole.
func RequireTenantRole(tenants ports.TenantService, min domain.TenantRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := UserID(c)
			if userID == "" {
				return domain.ErrUnauthorized
			}
			ctx := c.Request().Context()
			tenantID := c.Param("tenantId")

			m, err := tenants.GetMember(ctx, tenantID, userID)
			if errors.Is(err, domain.ErrTenantMemberNotFound) {
				if _, terr := tenants.Get(ctx, tenantID); terr != nil {
					return terr
				}
				return fmt.Errorf("%w: not a member of this tenant", domain.ErrForbidden)
			}
			if err != nil {
				return err
			}
			if !m.Role.AtLeast(min) {
				return fmt.Errorf("%w: requires tenant role %s", domain.ErrForbidden, min)
			}

			c.Set(tenantMemberKey, m)
			return next(c)
		}
	}
}
