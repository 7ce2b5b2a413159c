package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

type stubTenants struct {
	ports.TenantService
	rows map[string]domain.TenantMembership
	ids  map[string]bool
}

func (s *stubTenants) GetMember(_ context.Context, tenantID, userID string) (*domain.TenantMembership, error) {
	m, ok := s.rows[tenantID+"/"+userID]
	if !ok {
		return nil, domain.ErrTenantMemberNotFound
	}
	return &m, nil
}

func (s *stubTenants) Get(_ context.Context, id string) (*domain.Tenant, error) {
	if !s.ids[id] {
		return nil, domain.ErrTenantNotFound
	}
	return &domain.Tenant{ID: id}, nil
}

func runTenantRole(t *testing.T, userID, tenantID string, min domain.TenantRole) (*domain.TenantMembership, error) {
	t.Helper()
	tenants := &stubTenants{
		rows: map[string]domain.TenantMembership{
			"t1/owner":  {TenantID: "t1", UserID: "owner", Role: domain.TenantOwner},
			"t1/member": {TenantID: "t1", UserID: "member", Role: domain.TenantMember},
		},
		ids: map[string]bool{"t1": true},
	}

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("tenantId")
	c.SetParamValues(tenantID)
	if userID != "" {
		c.Set(userIDKey, userID)
	}

	var seen *domain.TenantMembership
	err := RequireTenantRole(tenants, min)(func(c echo.Context) error {
		seen = TenantMember(c)
		return nil
	})(c)
	return seen, err
}

func TestRequireTenantRole_Allows(t *testing.T) {
	m, err := runTenantRole(t, "owner", "t1", domain.TenantAdmin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil || m.Role != domain.TenantOwner {
		t.Fatalf("expected the owner membership in context, got %+v", m)
	}
	if _, err := runTenantRole(t, "member", "t1", domain.TenantMember); err != nil {
		t.Fatalf("member should read: %v", err)
	}
}

func TestRequireTenantRole_Forbids(t *testing.T) {
	tests := []struct {
		name   string
		user   string
		tenant string
		min    domain.TenantRole
		want   error
	}{
		{"insufficient role", "member", "t1", domain.TenantAdmin, domain.ErrForbidden},
		{"outsider", "stranger", "t1", domain.TenantMember, domain.ErrForbidden},
		{"unknown tenant", "stranger", "t9", domain.TenantMember, domain.ErrNotFound},
		{"anonymous", "", "t1", domain.TenantMember, domain.ErrUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, err := runTenantRole(t, tc.user, tc.tenant, tc.min)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if m != nil {
				t.Fatalf("next must not run")
			}
		})
	}
}
