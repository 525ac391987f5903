package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/authcore/identity-system/docs"
	"github.com/authcore/identity-system/internal/api/handler"
	"github.com/authcore/identity-system/internal/api/middleware"
	"github.com/authcore/identity-system/internal/core/ports"
	"github.com/authcore/identity-system/internal/core/service"
	"github.com/authcore/identity-system/internal/infrastructure/config"
	identitymongo "github.com/authcore/identity-system/internal/infrastructure/db/mongo"
	identityredis "github.com/authcore/identity-system/internal/infrastructure/db/redis"
)

// Permission names guarding the management routes. Seeded as system
// permissions (empty org) so they resolve for every tenant.
const (
	PermRolesManage = "identity.roles.manage"
	PermUsersManage = "identity.users.manage"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, events ports.EventDispatcher, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("identity"))

	// --- Dependencies ---
	userRepo := identitymongo.NewUserRepository(db)
	roleRepo := identitymongo.NewRoleRepository(db)
	permRepo := identitymongo.NewPermissionRepository(db)
	otpRepo := identitymongo.NewOtpRepository(db)
	sessionRepo := identityredis.NewSessionRepository(rdb)

	sessionService := service.NewSessionService(sessionRepo, events, log)
	userService := service.NewUserService(
		userRepo, sessionService, events,
		cfg.JWTSecret, cfg.AccessTokenTTL, cfg.SessionTTL, cfg.MaxFailedLogins,
		log,
	)
	accessService := service.NewAccessService(roleRepo, permRepo, userRepo, events, log)
	otpService := service.NewOtpService(otpRepo, log)

	authHandler := handler.NewAuthHandler(userService, sessionService)
	otpHandler := handler.NewOtpHandler(otpService, cfg.OtpTTL)
	roleHandler := handler.NewRoleHandler(accessService, userRepo)
	sessionHandler := handler.NewSessionHandler(sessionService)

	auth := middleware.Auth(cfg.JWTSecret)
	org := middleware.Org(cfg.DefaultOrg)

	// --- Public routes (tenant from header/subdomain) ---
	e.POST("/auth/register", authHandler.Register, org)
	e.POST("/auth/login", authHandler.Login, org)
	e.POST("/otp/issue", otpHandler.Issue, org)
	e.POST("/otp/verify", otpHandler.Verify, org)

	// --- Authenticated routes (tenant from token) ---
	e.POST("/auth/logout", authHandler.Logout, auth)

	v1 := e.Group("/v1", auth)
	v1.GET("/sessions", sessionHandler.List)
	v1.DELETE("/sessions/:token", sessionHandler.Revoke)

	manageRoles := middleware.RequirePermission(userRepo, accessService, PermRolesManage)
	v1.POST("/roles", roleHandler.Create, manageRoles)
	v1.PUT("/roles/:id", roleHandler.Update, manageRoles)
	v1.PATCH("/roles/:id/active", roleHandler.SetActive, manageRoles)
	v1.PUT("/roles/:id/permissions", roleHandler.SetPermissions, manageRoles)
	v1.POST("/roles/:id/assignments", roleHandler.Assign, manageRoles)

	manageUsers := middleware.RequirePermission(userRepo, accessService, PermUsersManage)
	v1.GET("/users/:id/permissions", roleHandler.ResolvePermissions, manageUsers)

	// --- Operational endpoints ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
