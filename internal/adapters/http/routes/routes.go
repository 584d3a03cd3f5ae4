package routes

import (
	"edvisa-admin/internal/adapters/events"
	"edvisa-admin/internal/adapters/http/handlers"
	"edvisa-admin/internal/adapters/http/middleware"
	"edvisa-admin/internal/adapters/persistence/repositories"
	"edvisa-admin/internal/config"
	"edvisa-admin/internal/core/authz"
	"edvisa-admin/internal/core/domain"
	"edvisa-admin/internal/core/services"
	"edvisa-admin/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Deps are the process-wide collaborators the routes are built from
type Deps struct {
	DB        *gorm.DB
	Config    *config.Config
	Catalog   *authz.Catalog
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	// HealthCheck overrides the database probe; nil uses the global connection
	HealthCheck func() error
	// DisableAuthRateLimit turns off the login limiter (tests)
	DisableAuthRateLimit bool
}

// clientRequirements are the permission lists of one client kind's routes
type clientRequirements struct {
	read, update, assign, docsRead, docsCreate authz.Requirement
}

// Route requirements. Holding any listed permission passes the route;
// scoped entries also need the ownership relation on the target.
var (
	reqUsersRead   = authz.AnyOf(domain.PermUsersRead)
	reqUsersCreate = authz.AnyOf(domain.PermUsersCreate)
	reqUsersUpdate = authz.AnyOf(domain.PermUsersUpdate)
	reqUsersDelete = authz.AnyOf(domain.PermUsersDelete)

	reqPermissionsRead   = authz.AnyOf(domain.PermPermissionsRead)
	reqPermissionsUpdate = authz.AnyOf(domain.PermPermissionsUpdate)

	studentRoutes = clientRequirements{
		read: authz.AnyOf(domain.PermStudentsRead).
			Or(domain.PermStudentsOwnRead, authz.AllowAssignedOrSelf),
		update: authz.AnyOf(domain.PermStudentsUpdate).
			Or(domain.PermStudentsOwnUpdate, authz.AllowAssignedOrSelf),
		assign: authz.AnyOf(domain.PermStudentsAssign),
		docsRead: authz.AnyOf(domain.PermDocumentsRead).
			Or(domain.PermStudentsOwnDocumentsRead, authz.AllowAssigned).
			Or(domain.PermDocumentsOwnRead, authz.AllowSelf),
		docsCreate: authz.AnyOf(domain.PermDocumentsCreate).
			Or(domain.PermStudentsOwnDocumentsCreate, authz.AllowAssigned).
			Or(domain.PermDocumentsOwnCreate, authz.AllowSelf),
	}

	immigrationClientRoutes = clientRequirements{
		read: authz.AnyOf(domain.PermImmigrationClientsRead).
			Or(domain.PermImmigrationClientsOwnRead, authz.AllowAssignedOrSelf),
		update: authz.AnyOf(domain.PermImmigrationClientsUpdate).
			Or(domain.PermImmigrationClientsOwnUpdate, authz.AllowAssignedOrSelf),
		assign: authz.AnyOf(domain.PermImmigrationClientsAssign),
		docsRead: authz.AnyOf(domain.PermDocumentsRead).
			Or(domain.PermImmigrationClientsOwnDocumentsRead, authz.AllowAssigned).
			Or(domain.PermDocumentsOwnRead, authz.AllowSelf),
		docsCreate: authz.AnyOf(domain.PermDocumentsCreate).
			Or(domain.PermImmigrationClientsOwnDocumentsCreate, authz.AllowAssigned).
			Or(domain.PermDocumentsOwnCreate, authz.AllowSelf),
	}
)

// Setup configures all routes for the application
func Setup(app *fiber.App, deps Deps) {
	cfg := deps.Config

	// Initialize store
	store := repositories.NewStore(deps.DB)

	// Initialize services
	permissionSync := services.NewPermissionSync(deps.Catalog)
	authService := services.NewAuthService(store, permissionSync, cfg, deps.Publisher, deps.Metrics)
	userService := services.NewUserService(store, deps.Catalog)
	permissionService := services.NewPermissionService(store, deps.Catalog, deps.Publisher, deps.Metrics)
	studentService := services.NewStudentService(store)
	immigrationClientService := services.NewImmigrationClientService(store)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.HealthCheck)
	authHandler := handlers.NewAuthHandler(authService, userService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	permissionHandler := handlers.NewPermissionHandler(permissionService)
	studentHandler := handlers.NewClientHandler(studentService, "Student")
	immigrationClientHandler := handlers.NewClientHandler(immigrationClientService, "Immigration client")

	// Health check, metrics & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	apiV1 := app.Group("/api/v1")
	auth := middleware.AuthMiddleware(cfg)
	require := func(req authz.Requirement) fiber.Handler {
		return middleware.RequirePermissions(req, deps.Metrics)
	}

	// Auth
	authRoutes := apiV1.Group("/auth")
	limited := []fiber.Handler{}
	if !deps.DisableAuthRateLimit {
		limited = append(limited, middleware.AuthRateLimiter())
	}
	authRoutes.Post("/login", append(limited, authHandler.Login)...)
	authRoutes.Post("/refresh-token", append(limited, authHandler.RefreshToken)...)
	authRoutes.Post("/logout", authHandler.Logout)
	authRoutes.Get("/me", auth, authHandler.Me)

	// Users & permissions
	apiV1.Get("/permissions", auth, require(reqPermissionsRead), permissionHandler.Catalog)

	users := apiV1.Group("/users", auth)
	users.Post("/", require(reqUsersCreate), userHandler.CreateUser)
	users.Get("/:id", require(reqUsersRead), userHandler.GetUser)
	users.Delete("/:id", require(reqUsersDelete), userHandler.DeleteUser)
	users.Put("/:id/verify-email", require(reqUsersUpdate), userHandler.VerifyEmail)
	users.Put("/:id/active", require(reqUsersUpdate), userHandler.SetActive)
	users.Get("/:id/permissions", require(reqPermissionsRead), permissionHandler.List)
	users.Post("/:id/permissions", require(reqPermissionsUpdate), permissionHandler.Grant)
	users.Delete("/:id/permissions/:permission", require(reqPermissionsUpdate), permissionHandler.Revoke)

	// Clients
	setupClientRoutes(apiV1.Group("/students", auth), studentHandler, studentRoutes, require)
	setupClientRoutes(apiV1.Group("/immigration-clients", auth), immigrationClientHandler, immigrationClientRoutes, require)
}

func setupClientRoutes(router fiber.Router, h *handlers.ClientHandler, reqs clientRequirements, require func(authz.Requirement) fiber.Handler) {
	router.Get("/:id", require(reqs.read), h.Get)
	router.Put("/:id", require(reqs.update), h.Update)
	router.Put("/:id/assignments", require(reqs.assign), h.Assign)
	router.Get("/:id/documents", require(reqs.docsRead), h.ListDocuments)
	router.Post("/:id/documents", require(reqs.docsCreate), h.CreateDocument)
}
