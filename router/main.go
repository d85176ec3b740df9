package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/classbridge-api/config"
	"github.com/sahilchouksey/classbridge-api/database"
	"github.com/sahilchouksey/classbridge-api/handlers"
	assignment_handlers "github.com/sahilchouksey/classbridge-api/handlers/assignment"
	auth_handlers "github.com/sahilchouksey/classbridge-api/handlers/auth"
	course_handlers "github.com/sahilchouksey/classbridge-api/handlers/course"
	dashboard_handlers "github.com/sahilchouksey/classbridge-api/handlers/dashboard"
	message_handlers "github.com/sahilchouksey/classbridge-api/handlers/message"
	submission_handlers "github.com/sahilchouksey/classbridge-api/handlers/submission"
	"github.com/sahilchouksey/classbridge-api/services"
	"github.com/sahilchouksey/classbridge-api/services/storage"
	"github.com/sahilchouksey/classbridge-api/utils/auth"
	"github.com/sahilchouksey/classbridge-api/utils/cache"
	"github.com/sahilchouksey/classbridge-api/utils/middleware"
	"gorm.io/gorm"
)

// SetupRoutes wires middleware, services and handlers onto the app
func SetupRoutes(app *fiber.App, store database.Storage) {
	env, err := config.Get()
	if err != nil {
		log.Fatal("Failed to read configuration")
	}

	if env.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := env.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "classbridge-api"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: env.JWT_SECRET,
		Expiry: time.Duration(env.JWT_EXPIRY_HOURS) * time.Hour,
		Issuer: jwtIssuer,
	})

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Redis in front of the token denylist is optional; the database
	// stays authoritative without it
	var redisCache *cache.RedisCache
	if env.REDIS_URL != "" {
		redisCache, err = cache.NewRedisCache(env.REDIS_URL)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis: %v. Denylist checks will hit the database.", err)
		}
	}

	blacklistService := auth.NewBlacklistService(db, redisCache)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, blacklistService, db)

	// Object storage for submissions, materials and photos
	var spacesClient *storage.SpacesClient
	if spacesConfig, err := storage.LoadSpacesConfig(); err != nil {
		log.Printf("Warning: Object storage not configured: %v. File uploads will fail.", err)
	} else if spacesClient, err = storage.NewSpacesClient(*spacesConfig); err != nil {
		log.Printf("Warning: Failed to create storage client: %v. File uploads will fail.", err)
	}

	uploadService := services.NewUploadService(db, spacesClient)
	dashboardService := services.NewDashboardService(db)

	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, blacklistService, uploadService)
	courseHandler := course_handlers.NewCourseHandler(db, uploadService)
	assignmentHandler := assignment_handlers.NewAssignmentHandler(db)
	submissionHandler := submission_handlers.NewSubmissionHandler(db, uploadService)
	messageHandler := message_handlers.NewMessageHandler(db)
	dashboardHandler := dashboard_handlers.NewDashboardHandler(dashboardService)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins: allowedOrigins,
	})

	api := app.Group("/api")

	// Public routes
	api.Post("/signup", authHandler.Register)
	api.Post("/login", authHandler.Login)
	api.Get("/health", func(c *fiber.Ctx) error { return handlers.HandleCheckHealth(c, store) })

	// Session
	api.Post("/logout", authMiddleware.Required(), authHandler.Logout)

	// Profile
	me := api.Group("/me", authMiddleware.Required())
	me.Get("/", authHandler.GetProfile)
	me.Put("/", authHandler.UpdateProfile)
	me.Post("/photo", authHandler.UploadPhoto)

	// Courses, enrollment, materials, messages
	courses := api.Group("/courses", authMiddleware.Required())
	courses.Get("/", courseHandler.ListCourses)
	courses.Post("/", authMiddleware.RequireTeacher(), courseHandler.CreateCourse)
	courses.Get("/:id", courseHandler.GetCourse)
	courses.Post("/:id/join", authMiddleware.RequireStudent(), courseHandler.JoinCourse)
	courses.Get("/:id/assignments", assignmentHandler.ListAssignments)
	courses.Get("/:id/materials", courseHandler.ListMaterials)
	courses.Post("/:id/materials", authMiddleware.RequireTeacher(), courseHandler.UploadMaterial)
	courses.Get("/:id/messages", messageHandler.List)
	courses.Post("/:id/messages", messageHandler.Post)

	api.Get("/my-courses", authMiddleware.Required(), courseHandler.MyCourses)

	// Assignments, submissions, grading
	assignments := api.Group("/assignments", authMiddleware.Required())
	assignments.Post("/", authMiddleware.RequireTeacher(), assignmentHandler.CreateAssignment)
	assignments.Post("/:id/submit", authMiddleware.RequireStudent(), submissionHandler.Submit)
	assignments.Delete("/:id/files", submissionHandler.DeleteFile)
	assignments.Get("/:id/submissions", submissionHandler.List)
	assignments.Post("/:id/grade", authMiddleware.RequireTeacher(), submissionHandler.Grade)

	// Dashboard
	api.Get("/dashboard/summary", authMiddleware.Required(), dashboardHandler.Summary)
}
