package middleware

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

// Member returns the caller's membership loaded by RequireProjectRole.
func Member(c echo.Context) *domain.ProjectMember {
	m, _ := c.Get(memberKey).(*domain.ProjectMember)
	return m
}

// RequireProjectRole lets the request through only when the caller is an
// active member of the :projectId project with at least the min role.
// Callers outside the project get 404 when the project does not exist and
// 403 otherwise.
func RequireProjectRole(members ports.MemberService, projects ports.ProjectService, min domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := UserID(c)
			if userID == "" {
				return domain.ErrUnauthorized
			}
			ctx := c.Request().Context()
			projectID := c.Param("projectId")

			m, err := members.Get(ctx, projectID, userID)
			if errors.Is(err, domain.ErrMemberNotFound) {
				if _, perr := projects.Get(ctx, projectID); perr != nil {
					return perr
				}
				return fmt.Errorf("%w: not a member of this project", domain.ErrForbidden)
			}
			if err != nil {
				return err
			}
			if m.Status != domain.MemberActive || !m.Role.AtLeast(min) {
				return fmt.Errorf("%w: requires role %s", domain.ErrForbidden, min)
			}

			c.Set(memberKey, m)
			return next(c)
		}
	}
}
