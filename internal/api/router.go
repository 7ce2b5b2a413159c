package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/wolvesgale/ToDo-Appli/internal/api/handler"
	"github.com/wolvesgale/ToDo-Appli/internal/api/middleware"
	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

// Services are the entity services the HTTP layer exposes.
type Services struct {
	Users         ports.UserService
	Tenants       ports.TenantService
	Projects      ports.ProjectService
	Members       ports.MemberService
	Tasks         ports.TaskService
	Stages        ports.StageService
	Targets       ports.TargetService
	Matrix        ports.MatrixService
	Actions       ports.ActionCatalogService
	Invitations   ports.InvitationService
	Notifications ports.NotificationService
}

type RouterConfig struct {
	// Identity authenticates /v1 requests.
	Identity     echo.MiddlewareFunc
	RateLimitRPS int
	// Checks are pinged by the readiness probe.
	Checks map[string]ports.HealthChecker
	Log    zerolog.Logger
	// Registry collects the HTTP metrics and backs /metrics. Nil means the
	// default Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Log)

	// --- Global middleware ---
	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if cfg.Registry != nil {
		registerer, gatherer = cfg.Registry, cfg.Registry
	}
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(cfg.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "todo",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Probes and docs (no auth required) ---
	health := handler.NewHealthHandler(cfg.Checks)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- API ---
	identity := cfg.Identity
	if identity == nil {
		identity = middleware.DevIdentity("user1")
	}
	v1 := e.Group("/v1", middleware.RateLimit(cfg.RateLimitRPS), identity)

	role := func(min domain.Role) echo.MiddlewareFunc {
		return middleware.RequireProjectRole(svc.Members, svc.Projects, min)
	}
	viewer, editor, admin, owner := role(domain.RoleViewer), role(domain.RoleEditor), role(domain.RoleAdmin), role(domain.RoleOwner)

	users := handler.NewUserHandler(svc.Users)
	v1.POST("/users", users.Create)
	v1.GET("/users", users.List)
	v1.GET("/users/:userId", users.Get)
	v1.PATCH("/users/:userId", users.Update)
	v1.DELETE("/users/:userId", users.Deactivate)

	me := handler.NewMeHandler(svc.Users, svc.Matrix, svc.Notifications)
	v1.GET("/me", me.Get)
	v1.GET("/me/assignments", me.Assignments)

	tenantRole := func(min domain.TenantRole) echo.MiddlewareFunc {
		return middleware.RequireTenantRole(svc.Tenants, min)
	}
	tenants := handler.NewTenantHandler(svc.Tenants)
	v1.POST("/tenants", tenants.Create)
	v1.GET("/tenants", tenants.List)
	tn := v1.Group("/tenants/:tenantId")
	tn.GET("", tenants.Get, tenantRole(domain.TenantMember))
	tn.PATCH("", tenants.Update, tenantRole(domain.TenantAdmin))
	tn.DELETE("", tenants.Delete, tenantRole(domain.TenantOwner))
	tn.GET("/projects", tenants.ListProjects, tenantRole(domain.TenantMember))
	tn.GET("/members", tenants.ListMembers, tenantRole(domain.TenantMember))
	tn.POST("/members", tenants.AddMember, tenantRole(domain.TenantAdmin))
	tn.DELETE("/members/:userId", tenants.RemoveMember, tenantRole(domain.TenantAdmin))

	projects := handler.NewProjectHandler(svc.Projects, svc.Members)
	v1.POST("/projects", projects.Create)
	v1.GET("/projects", projects.List)

	p := v1.Group("/projects/:projectId")
	p.GET("", projects.Get, viewer)
	p.PATCH("", projects.Update, admin)
	p.DELETE("", projects.Delete, owner)
	p.GET("/members", projects.ListMembers, viewer)
	p.POST("/members", projects.AddMember, admin)
	p.PATCH("/members/:userId", projects.UpdateMember, admin)
	p.DELETE("/members/:userId", projects.RemoveMember, admin)

	tasks := handler.NewTaskHandler(svc.Tasks)
	p.GET("/tasks", tasks.List, viewer)
	p.POST("/tasks", tasks.Create, editor)
	p.GET("/tasks/quadrants", tasks.Quadrants, viewer)
	p.GET("/tasks/:taskId", tasks.Get, viewer)
	p.PATCH("/tasks/:taskId", tasks.Update, editor)
	p.DELETE("/tasks/:taskId", tasks.Delete, editor)

	board := handler.NewBoardHandler(svc.Stages, svc.Targets)
	p.GET("/stages", board.ListStages, viewer)
	p.POST("/stages", board.CreateStage, admin)
	p.GET("/stages/:stageId", board.GetStage, viewer)
	p.PATCH("/stages/:stageId", board.UpdateStage, admin)
	p.DELETE("/stages/:stageId", board.DeleteStage, admin)
	p.GET("/targets", board.ListTargets, viewer)
	p.POST("/targets", board.CreateTarget, editor)
	p.POST("/targets/import", board.ImportTargets, editor)
	p.GET("/targets/:targetId", board.GetTarget, viewer)
	p.PATCH("/targets/:targetId", board.UpdateTarget, editor)
	p.DELETE("/targets/:targetId", board.DeleteTarget, admin)

	actions := handler.NewActionHandler(svc.Actions)
	p.GET("/actions", actions.List, viewer)
	p.POST("/actions", actions.Create, admin)
	p.GET("/actions/:actionKey", actions.Get, viewer)
	p.PATCH("/actions/:actionKey", actions.Update, admin)
	p.DELETE("/actions/:actionKey", actions.Delete, admin)

	matrix := handler.NewMatrixHandler(svc.Matrix)
	p.GET("/matrix", matrix.View, viewer)
	p.GET("/matrix/:targetId", matrix.ListRow, viewer)
	p.GET("/matrix/:targetId/:stageId", matrix.GetCell, viewer)
	p.PUT("/matrix/:targetId/:stageId", matrix.PutCell, editor)
	p.DELETE("/matrix/:targetId/:stageId", matrix.DeleteCell, editor)

	invitations := handler.NewInvitationHandler(svc.Invitations, svc.Users)
	p.GET("/invitations", invitations.List, admin)
	p.POST("/invitations", invitations.Create, admin)
	p.DELETE("/invitations/:invitationId", invitations.Revoke, admin)
	// Invitees are not members yet; the token authorizes these two.
	p.POST("/invitations/:invitationId/accept", invitations.Accept)
	p.POST("/invitations/:invitationId/decline", invitations.Decline)
	v1.GET("/invitations", invitations.Mine)

	notifications := handler.NewNotificationHandler(svc.Notifications)
	v1.GET("/notifications", notifications.List)
	v1.GET("/notifications/unread-count", notifications.UnreadCount)
	v1.POST("/notifications/read-all", notifications.MarkAllRead)
	v1.POST("/notifications/:notificationId/read", notifications.MarkRead)
	v1.DELETE("/notifications/:notificationId", notifications.Delete)

	return e
}
