package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/wolvesgale/ToDo-Appli/internal/api/middleware"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
	"github.com/wolvesgale/ToDo-Appli/internal/core/service"
	"github.com/wolvesgale/ToDo-Appli/internal/infrastructure/db/memory"
)

type failingCheck struct{}

func (failingCheck) Ping(context.Context) error { return errors.New("connection refused") }

type okCheck struct{}

func (okCheck) Ping(context.Context) error { return nil }

type server struct {
	t *testing.T
	e *echo.Echo
}

func newServer(t *testing.T, checks map[string]ports.HealthChecker) *server {
	t.Helper()
	log := zerolog.Nop()
	store := memory.NewStore()
	idem := memory.NewIdempotencyStore(time.Hour)

	users := service.NewUserService(store, log)
	members := service.NewMemberService(store, log)
	notifications := service.NewNotificationService(store, log)
	pub := service.NewInlinePublisher(notifications, log)
	stages := service.NewStageService(store, log)
	targets := service.NewTargetService(store, log)
	catalog := service.NewActionCatalogService(store, log)
	svc := Services{
		Users:         users,
		Tenants:       service.NewTenantService(store, log),
		Projects:      service.NewProjectService(store, idem, log),
		Members:       members,
		Tasks:         service.NewTaskService(store, idem, pub, log),
		Stages:        stages,
		Targets:       targets,
		Matrix:        service.NewMatrixService(store, stages, targets, members, catalog, pub, log),
		Actions:       catalog,
		Invitations:   service.NewInvitationService(store, members, users, pub, 24*time.Hour, log),
		Notifications: notifications,
	}

	e := NewRouter(svc, RouterConfig{
		Identity:     middleware.DevIdentity("user1"),
		RateLimitRPS: 0,
		Checks:       checks,
		Log:          log,
		Registry:     prometheus.NewRegistry(),
	})
	return &server{t: t, e: e}
}

type reply struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do sends a request as user and decodes the envelope.
func (s *server) do(user, method, path, body string, headers ...string) (int, reply) {
	s.t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	r.Header.Set("X-User-ID", user)
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, r)

	var out reply
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			s.t.Fatalf("%s %s: undecodable body %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

func (s *server) mustDo(want int, user, method, path, body string, dst any, headers ...string) {
	s.t.Helper()
	code, out := s.do(user, method, path, body, headers...)
	if code != want {
		s.t.Fatalf("%s %s: expected %d, got %d (%s: %s)", method, path, want, code, out.Error.Code, out.Error.Message)
	}
	if dst != nil {
		if err := json.Unmarshal(out.Data, dst); err != nil {
			s.t.Fatalf("%s %s: decode data: %v", method, path, err)
		}
	}
}

type entity struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version int64  `json:"version"`
}

// ============================================================
// Probes
// ============================================================

func TestRouter_HealthProbes(t *testing.T) {
	s := newServer(t, map[string]ports.HealthChecker{"store": okCheck{}, "redis": failingCheck{}})

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("liveness: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readiness: expected 503, got %d", rec.Code)
	}
	var body struct {
		Status       string                       `json:"status"`
		Dependencies map[string]map[string]string `json:"dependencies"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "degraded" || body.Dependencies["store"]["status"] != "ok" || body.Dependencies["redis"]["status"] != "unhealthy" {
		t.Errorf("unexpected readiness body: %+v", body)
	}

	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
}

// ============================================================
// Projects and roles
// ============================================================

func TestRouter_ProjectLifecycleAndRoles(t *testing.T) {
	s := newServer(t, nil)

	var project entity
	s.mustDo(http.StatusCreated, "user1", http.MethodPost, "/v1/projects", `{"name":"Launch"}`, &project)
	if project.ID == "" || project.Version != 1 {
		t.Fatalf("unexpected project: %+v", project)
	}

	var list []entity
	s.mustDo(http.StatusOK, "user1", http.MethodGet, "/v1/projects", "", &list)
	if len(list) != 1 || list[0].ID != project.ID {
		t.Fatalf("expected the new project listed, got %+v", list)
	}

	code, out := s.do("user2", http.MethodGet, "/v1/projects/"+project.ID, "")
	if code != http.StatusForbidden || out.Success || out.Error.Code != "FORBIDDEN" {
		t.Fatalf("outsider: expected 403 FORBIDDEN, got %d %+v", code, out)
	}
	code, out = s.do("user1", http.MethodGet, "/v1/projects/nope", "")
	if code != http.StatusNotFound || out.Error.Code != "NOT_FOUND" {
		t.Fatalf("unknown project: expected 404, got %d %+v", code, out)
	}

	s.mustDo(http.StatusCreated, "user1", http.MethodPost, "/v1/projects/"+project.ID+"/members", `{"userId":"user2","role":"viewer"}`, nil)
	s.mustDo(http.StatusOK, "user2", http.MethodGet, "/v1/projects/"+project.ID, "", nil)
	code, _ = s.do("user2", http.MethodPost, "/v1/projects/"+project.ID+"/tasks", `{"title":"x"}`)
	if code != http.StatusForbidden {
		t.Fatalf("viewer creating a task: expected 403, got %d", code)
	}

	var renamed entity
	s.mustDo(http.StatusOK, "user1", http.MethodPatch, "/v1/projects/"+project.ID, `{"name":"Launch v2"}`, &renamed, "If-Match", `"1"`)
	if renamed.Name != "Launch v2" || renamed.Version != 2 {
		t.Fatalf("unexpected update result: %+v", renamed)
	}
	code, out = s.do("user1", http.MethodPatch, "/v1/projects/"+project.ID, `{"name":"stale"}`, "If-Match", "1")
	if code != http.StatusConflict || out.Error.Code != "CONFLICT" {
		t.Fatalf("stale version: expected 409 CONFLICT, got %d %+v", code, out)
	}

	s.mustDo(http.StatusNoContent, "user1", http.MethodDelete, "/v1/projects/"+project.ID, "", nil)
	code, _ = s.do("user1", http.MethodGet, "/v1/projects/"+project.ID, "")
	if code != http.StatusNotFound {
		t.Fatalf("deleted project: expected 404, got %d", code)
	}
}

func TestRouter_ValidationErrors(t *testing.T) {
	s := newServer(t, nil)

	tests := []struct {
		name, method, path, body string
	}{
		{"missing name", http.MethodPost, "/v1/projects", `{"description":"d"}`},
		{"malformed json", http.MethodPost, "/v1/projects", `{"name":`},
		{"bad email", http.MethodPost, "/v1/users", `{"email":"nope","name":"N"}`},
		{"bad due window", http.MethodGet, "/v1/me/assignments?from=03/01/2025", ""},
		{"bad limit", http.MethodGet, "/v1/notifications?limit=-1", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, out := s.do("user1", tc.method, tc.path, tc.body)
			if code != http.StatusBadRequest || out.Success {
				t.Fatalf("expected 400, got %d %+v", code, out)
			}
		})
	}
}

// ============================================================
// Matrix and assignments
// ============================================================

func TestRouter_MatrixAndAssignments(t *testing.T) {
	s := newServer(t, nil)

	var project, stage, target entity
	s.mustDo(http.StatusCreated, "user1", http.MethodPost, "/v1/projects", `{"name":"Sales"}`, &project)
	base := "/v1/projects/" + project.ID
	s.mustDo(http.StatusCreated, "user1", http.MethodPost, base+"/stages", `{"name":"Hearing"}`, &stage)
	s.mustDo(http.StatusCreated, "user1", http.MethodPost, base+"/targets", `{"name":"Acme"}`, &target)

	cellPath := base + "/matrix/" + target.ID + "/" + stage.ID
	var cell struct {
		Status    string   `json:"status"`
		Assignees []string `json:"assignees"`
		DueDate   string   `json:"dueDate"`
		Version   int64    `json:"version"`
	}
	s.mustDo(http.StatusOK, "user1", http.MethodPut, cellPath, `{"assignees":["user1"],"dueDate":"2025-03-10"}`, &cell)
	if cell.Version != 1 || cell.DueDate != "2025-03-10" {
		t.Fatalf("unexpected cell: %+v", cell)
	}
	s.mustDo(http.StatusOK, "user1", http.MethodPut, cellPath, `{"status":"in_progress","version":1}`, &cell)
	if cell.Status != "in_progress" || cell.Version != 2 || len(cell.Assignees) != 1 {
		t.Fatalf("patch lost fields: %+v", cell)
	}

	var view struct {
		Stages  []entity `json:"stages"`
		Targets []entity `json:"targets"`
		Cells   []entity `json:"cells"`
	}
	s.mustDo(http.StatusOK, "user1", http.MethodGet, base+"/matrix", "", &view)
	if len(view.Stages) != 1 || len(view.Targets) != 1 || len(view.Cells) != 1 {
		t.Fatalf("unexpected view: %+v", view)
	}

	var mine []entity
	s.mustDo(http.StatusOK, "user1", http.MethodGet, "/v1/me/assignments?from=2025-03-01&to=2025-03-31", "", &mine)
	if len(mine) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(mine))
	}

	code, _ := s.do("user1", http.MethodPut, base+"/matrix/"+target.ID+"/missing", `{"note":"x"}`)
	if code != http.StatusNotFound {
		t.Fatalf("unknown stage: expected 404, got %d", code)
	}

	s.mustDo(http.StatusNoContent, "user1", http.MethodDelete, cellPath, "", nil)
	code, _ = s.do("user1", http.MethodGet, cellPath, "")
	if code != http.StatusNotFound {
		t.Fatalf("deleted cell: expected 404, got %d", code)
	}
}

func TestRouter_ActionCatalog(t *testing.T) {
	s := newServer(t, nil)

	var project, stage, target entity
	s.mustDo(http.StatusCreated, "user1", http.MethodPost, "/v1/projects", `{"name":"Sales"}`, &project)
	base := "/v1/projects/" + project.ID
	s.mustDo(http.StatusCreated, "user1", http.MethodPost, base+"/stages", `{"name":"Hearing"}`, &stage)
	s.mustDo(http.StatusCreated, "user1", http.MethodPost, base+"/targets", `{"name":"Acme"}`, &target)
	s.mustDo(http.StatusCreated, "user1", http.MethodPost, base+"/members", `{"userId":"user2","role":"editor"}`, nil)

	cellPath := base + "/matrix/" + target.ID + "/" + stage.ID
	code, out := s.do("user1", http.MethodPut, cellPath, `{"actionKey":"call"}`)
	if code != http.StatusBadRequest || out.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("unknown action: expected 400, got %d %+v", code, out)
	}

	code, _ = s.do("user2", http.MethodPost, base+"/actions", `{"key":"call","name":"Call"}`)
	if code != http.StatusForbidden {
		t.Fatalf("editor creating an action: expected 403, got %d", code)
	}
	code, _ = s.do("user1", http.MethodPost, base+"/actions", `{"key":"Call Now","name":"Call"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("non-slug key: expected 400, got %d", code)
	}
	s.mustDo(http.StatusCreated, "user1", http.MethodPost, base+"/actions", `{"key":"call","name":"Call","isDefault":true}`, nil)
	code, _ = s.do("user1", http.MethodPost, base+"/actions", `{"key":"call","name":"Again"}`)
	if code != http.StatusConflict {
		t.Fatalf("duplicate key: expected 409, got %d", code)
	}

	s.mustDo(http.StatusOK, "user2", http.MethodPut, cellPath, `{"actionKey":"call"}`, nil)
	var view struct {
		ActionCatalog []struct {
			Key string `json:"key"`
		} `json:"actionCatalog"`
	}
	s.mustDo(http.StatusOK, "user2", http.MethodGet, base+"/matrix", "", &view)
	if len(view.ActionCatalog) != 1 || view.ActionCatalog[0].Key != "call" {
		t.Fatalf("expected the catalog in the matrix view, got %+v", view.ActionCatalog)
	}

	code, _ = s.do("user1", http.MethodDelete, base+"/actions/call", "")
	if code != http.StatusConflict {
		t.Fatalf("deleting an action in use: expected 409, got %d", code)
	}
}

// ============================================================
// Tenants
// ============================================================

func TestRouter_Tenants(t *testing.T) {
	s := newServer(t, nil)

	var tenant, project entity
	s.mustDo(http.StatusCreated, "user1", http.MethodPost, "/v1/tenants", `{"name":"Acme Corp"}`, &tenant)
	base := "/v1/tenants/" + tenant.ID

	code, _ := s.do("user2", http.MethodGet, base, "")
	if code != http.StatusForbidden {
		t.Fatalf("outsider: expected 403, got %d", code)
	}
	code, _ = s.do("user2", http.MethodPost, "/v1/projects", `{"name":"Sneaky","tenantId":"`+tenant.ID+`"}`)
	if code != http.StatusForbidden {
		t.Fatalf("outsider filing a project: expected 403, got %d", code)
	}

	s.mustDo(http.StatusCreated, "user1", http.MethodPost, base+"/members", `{"userId":"user2"}`, nil)
	s.mustDo(http.StatusOK, "user2", http.MethodGet, base, "", nil)
	code, _ = s.do("user2", http.MethodPatch, base, `{"name":"Renamed"}`)
	if code != http.StatusForbidden {
		t.Fatalf("tenant member renaming: expected 403, got %d", code)
	}

	s.mustDo(http.StatusCreated, "user2", http.MethodPost, "/v1/projects", `{"name":"Pipeline","tenantId":"`+tenant.ID+`"}`, &project)
	var projects []entity
	s.mustDo(http.StatusOK, "user1", http.MethodGet, base+"/projects", "", &projects)
	if len(projects) != 1 || projects[0].ID != project.ID {
		t.Fatalf("expected the tenant's project, got %+v", projects)
	}

	var mine []entity
	s.mustDo(http.StatusOK, "user2", http.MethodGet, "/v1/tenants", "", &mine)
	if len(mine) != 1 || mine[0].ID != tenant.ID {
		t.Fatalf("expected one tenant for user2, got %+v", mine)
	}

	code, _ = s.do("user1", http.MethodDelete, base, "")
	if code != http.StatusConflict {
		t.Fatalf("deleting a tenant with projects: expected 409, got %d", code)
	}
	s.mustDo(http.StatusNoContent, "user2", http.MethodDelete, "/v1/projects/"+project.ID, "", nil)
	s.mustDo(http.StatusNoContent, "user1", http.MethodDelete, base, "", nil)
}

func TestRouter_ImportTargetsCSV(t *testing.T) {
	s := newServer(t, nil)

	var project entity
	s.mustDo(http.StatusCreated, "user1", http.MethodPost, "/v1/projects", `{"name":"CRM"}`, &project)

	r := httptest.NewRequest(http.MethodPost, "/v1/projects/"+project.ID+"/targets/import", strings.NewReader("name,email,region\nAcme,a@acme.test,west\nGlobex,,east\n"))
	r.Header.Set(echo.HeaderContentType, "text/csv")
	r.Header.Set("X-User-ID", "user1")
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, r)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var targets []struct {
		Name     string            `json:"name"`
		Metadata map[string]string `json:"metadata"`
	}
	s.mustDo(http.StatusOK, "user1", http.MethodGet, "/v1/projects/"+project.ID+"/targets", "", &targets)
	if len(targets) != 2 || targets[0].Metadata["region"] != "west" {
		t.Fatalf("unexpected targets: %+v", targets)
	}
}

// ============================================================
// Invitations and notifications
// ============================================================

func TestRouter_InvitationFlow(t *testing.T) {
	s := newServer(t, nil)

	s.mustDo(http.StatusCreated, "user2", http.MethodPost, "/v1/users", `{"id":"user2","email":"Bob@Example.com","name":"Bob"}`, nil)

	var project entity
	s.mustDo(http.StatusCreated, "user1", http.MethodPost, "/v1/projects", `{"name":"Shared"}`, &project)
	base := "/v1/projects/" + project.ID

	var created struct {
		Invitation struct {
			ID        string `json:"id"`
			TokenHash string `json:"tokenHash"`
		} `json:"invitation"`
		Token string `json:"token"`
	}
	s.mustDo(http.StatusCreated, "user1", http.MethodPost, base+"/invitations", `{"email":"bob@example.com","role":"editor"}`, &created)
	if created.Token == "" || created.Invitation.TokenHash != "" {
		t.Fatalf("expected a plaintext token and no hash, got %+v", created)
	}

	var pending []entity
	s.mustDo(http.StatusOK, "user2", http.MethodGet, "/v1/invitations", "", &pending)
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending invitation for bob, got %d", len(pending))
	}

	var count struct {
		Count int `json:"count"`
	}
	s.mustDo(http.StatusOK, "user2", http.MethodGet, "/v1/notifications/unread-count", "", &count)
	if count.Count != 1 {
		t.Fatalf("expected an invitation notice, got %d unread", count.Count)
	}

	accept := base + "/invitations/" + created.Invitation.ID + "/accept"
	code, out := s.do("user2", http.MethodPost, accept, `{"token":"wrong"}`)
	if code != http.StatusForbidden {
		t.Fatalf("bad token: expected 403, got %d %+v", code, out)
	}

	var member struct {
		Role string `json:"role"`
	}
	s.mustDo(http.StatusOK, "user2", http.MethodPost, accept, `{"token":"`+created.Token+`"}`, &member)
	if member.Role != "editor" {
		t.Fatalf("expected editor membership, got %+v", member)
	}
	s.mustDo(http.StatusCreated, "user2", http.MethodPost, base+"/tasks", `{"title":"Follow up","dueDate":"2025-04-01"}`, nil)

	code, _ = s.do("user2", http.MethodPost, accept, `{"token":"`+created.Token+`"}`)
	if code != http.StatusConflict {
		t.Fatalf("second accept: expected 409, got %d", code)
	}

	s.mustDo(http.StatusOK, "user2", http.MethodPost, "/v1/notifications/read-all", "", &count)
	if count.Count != 1 {
		t.Fatalf("expected 1 notification marked read, got %d", count.Count)
	}
}

// ============================================================
// Error handler
// ============================================================

func TestHTTPErrorHandler_HidesInternalErrors(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("dial tcp 10.0.0.5:8000: connection refused"), c)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"DATABASE_ERROR"`) || strings.Contains(body, "10.0.0.5") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestHTTPErrorHandler_EchoErrors(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded"), c)

	if rec.Code != http.StatusTooManyRequests || !strings.Contains(rec.Body.String(), `"RATE_LIMITED"`) {
		t.Fatalf("unexpected response %d: %s", rec.Code, rec.Body.String())
	}
}
