package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/canvaslite/backend/database"
	"github.com/canvaslite/backend/handlers"
	account_handlers "github.com/canvaslite/backend/handlers/account"
	assignment_handlers "github.com/canvaslite/backend/handlers/assignment"
	auth_handlers "github.com/canvaslite/backend/handlers/auth"
	course_handlers "github.com/canvaslite/backend/handlers/course"
	enrollment_handlers "github.com/canvaslite/backend/handlers/enrollment"
	module_handlers "github.com/canvaslite/backend/handlers/module"
	notification_handlers "github.com/canvaslite/backend/handlers/notification"
	page_handlers "github.com/canvaslite/backend/handlers/page"
	quiz_handlers "github.com/canvaslite/backend/handlers/quiz"
	section_handlers "github.com/canvaslite/backend/handlers/section"
	term_handlers "github.com/canvaslite/backend/handlers/term"
	user_handlers "github.com/canvaslite/backend/handlers/user"
	video_handlers "github.com/canvaslite/backend/handlers/video"
	"github.com/canvaslite/backend/services"
	"github.com/canvaslite/backend/utils"
	"github.com/canvaslite/backend/utils/auth"
	"github.com/canvaslite/backend/utils/cache"
	"github.com/canvaslite/backend/utils/middleware"
	"github.com/canvaslite/backend/utils/storage"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "canvaslite"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        jwtIssuer,
	})

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Redis backs login throttling; without it logins still work, just
	// unthrottled
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}
	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Object storage for submission attachments and uploaded videos;
	// optional, uploads are rejected when unset
	var objectStore *storage.ObjectStore
	if os.Getenv("SPACES_ACCESS_KEY") != "" {
		objectStore, err = storage.New(storage.Config{
			AccessKey: os.Getenv("SPACES_ACCESS_KEY"),
			SecretKey: os.Getenv("SPACES_SECRET_KEY"),
			Bucket:    os.Getenv("SPACES_BUCKET"),
			Region:    os.Getenv("SPACES_REGION"),
			Endpoint:  os.Getenv("SPACES_ENDPOINT"),
			CDNURL:    os.Getenv("SPACES_CDN_URL"),
		})
		if err != nil {
			log.Printf("Warning: object storage unavailable: %v. File uploads will be rejected.", err)
		}
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Domain services
	enrollmentService := services.NewEnrollmentService(db)
	notificationService := services.NewNotificationService(db)
	catalogService := services.NewCatalogService(db, enrollmentService)
	sequenceService := services.NewSequenceService(db)
	contentResolver := services.NewContentResolver(db)
	submissionService := services.NewSubmissionService(db, enrollmentService, notificationService)
	quizService := services.NewQuizService(db)
	progressService := services.NewProgressService(db)

	// Handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	accountHandler := account_handlers.NewAccountHandler(db)
	termHandler := term_handlers.NewTermHandler(db)
	courseHandler := course_handlers.NewCourseHandler(db, catalogService, enrollmentService, notificationService)
	sectionHandler := section_handlers.NewSectionHandler(db)
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(db)
	moduleHandler := module_handlers.NewModuleHandler(db, sequenceService, contentResolver, enrollmentService, submissionService)
	pageHandler := page_handlers.NewPageHandler(db, enrollmentService)
	assignmentHandler := assignment_handlers.NewAssignmentHandler(db, enrollmentService, submissionService, objectStore)
	quizHandler := quiz_handlers.NewQuizHandler(db, quizService, enrollmentService)
	videoHandler := video_handlers.NewVideoHandler(db, progressService, enrollmentService, objectStore)
	userHandler := user_handlers.NewUserHandler(db)
	notificationHandler := notification_handlers.NewNotificationHandler(notificationService)

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
	}
	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}
	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// Accounts (staff-managed hierarchy)
	accounts := api.Group("/accounts")
	accounts.Get("/", accountHandler.ListAccounts)
	accounts.Get("/:id", accountHandler.GetAccount)
	accounts.Post("/", authMiddleware.RequireStaff(), accountHandler.CreateAccount)
	accounts.Put("/:id", authMiddleware.RequireStaff(), accountHandler.UpdateAccount)
	accounts.Delete("/:id", authMiddleware.RequireStaff(), accountHandler.DeleteAccount)

	// Terms
	terms := api.Group("/terms")
	terms.Get("/", termHandler.ListTerms)
	terms.Get("/:id", termHandler.GetTerm)
	terms.Post("/", authMiddleware.RequireStaff(), termHandler.CreateTerm)
	terms.Put("/:id", authMiddleware.RequireStaff(), termHandler.UpdateTerm)
	terms.Delete("/:id", authMiddleware.RequireStaff(), termHandler.DeleteTerm)

	// Courses: the catalog is public, editing is staff-only, enrolling
	// needs a login
	courses := api.Group("/courses")
	courses.Get("/", authMiddleware.Optional(), courseHandler.ListCourses)
	courses.Get("/dashboard", authMiddleware.Required(), courseHandler.Dashboard)
	courses.Get("/:id", authMiddleware.Optional(), courseHandler.GetCourse)
	courses.Post("/", authMiddleware.RequireStaff(), courseHandler.CreateCourse)
	courses.Put("/:id", authMiddleware.RequireStaff(), courseHandler.UpdateCourse)
	courses.Delete("/:id", authMiddleware.RequireStaff(), courseHandler.DeleteCourse)
	courses.Post("/:id/enroll", authMiddleware.Required(), courseHandler.Enroll)

	// Sections (nested under courses)
	sections := courses.Group("/:course_id/sections")
	sections.Get("/", sectionHandler.ListSections)
	sections.Post("/", authMiddleware.RequireStaff(), sectionHandler.CreateSection)
	api.Get("/sections/:id", authMiddleware.Required(), sectionHandler.GetSection)
	api.Put("/sections/:id", authMiddleware.RequireStaff(), sectionHandler.UpdateSection)
	api.Delete("/sections/:id", authMiddleware.RequireStaff(), sectionHandler.DeleteSection)

	// Enrollments (staff roster management; self-service goes through
	// /courses/:id/enroll)
	api.Get("/sections/:section_id/enrollments", authMiddleware.RequireStaff(), enrollmentHandler.ListEnrollments)
	api.Post("/sections/:section_id/enrollments", authMiddleware.RequireStaff(), enrollmentHandler.CreateEnrollment)
	api.Put("/enrollments/:id", authMiddleware.RequireStaff(), enrollmentHandler.UpdateEnrollment)
	api.Delete("/enrollments/:id", authMiddleware.RequireStaff(), enrollmentHandler.DeleteEnrollment)

	// Modules and module items
	modules := courses.Group("/:course_id/modules")
	modules.Get("/", authMiddleware.Optional(), moduleHandler.ListModules)
	modules.Post("/", authMiddleware.Required(), moduleHandler.CreateModule)
	api.Get("/modules/:id", authMiddleware.Optional(), moduleHandler.GetModule)
	api.Put("/modules/:id", authMiddleware.Required(), moduleHandler.UpdateModule)
	api.Delete("/modules/:id", authMiddleware.Required(), moduleHandler.DeleteModule)
	api.Post("/modules/:id/items", authMiddleware.Required(), moduleHandler.CreateItem)
	api.Get("/module-items/:id", authMiddleware.Optional(), moduleHandler.GetItem)
	api.Put("/module-items/:id", authMiddleware.Required(), moduleHandler.UpdateItem)
	api.Delete("/module-items/:id", authMiddleware.Required(), moduleHandler.DeleteItem)

	// Pages
	pages := courses.Group("/:course_id/pages")
	pages.Get("/", authMiddleware.Optional(), pageHandler.ListPages)
	pages.Post("/", authMiddleware.Required(), pageHandler.CreatePage)
	api.Get("/courses/:course_id/front-page", authMiddleware.Optional(), pageHandler.GetFrontPage)
	api.Get("/pages/:id", authMiddleware.Optional(), pageHandler.GetPage)
	api.Put("/pages/:id", authMiddleware.Required(), pageHandler.UpdatePage)
	api.Delete("/pages/:id", authMiddleware.Required(), pageHandler.DeletePage)

	// Assignments and submissions
	assignments := courses.Group("/:course_id/assignments")
	assignments.Get("/", authMiddleware.Optional(), assignmentHandler.ListAssignments)
	assignments.Post("/", authMiddleware.Required(), assignmentHandler.CreateAssignment)
	api.Get("/assignments/:id", authMiddleware.Optional(), assignmentHandler.GetAssignment)
	api.Put("/assignments/:id", authMiddleware.Required(), assignmentHandler.UpdateAssignment)
	api.Delete("/assignments/:id", authMiddleware.Required(), assignmentHandler.DeleteAssignment)
	api.Post("/assignments/:id/submissions", authMiddleware.Required(), assignmentHandler.Submit)
	api.Get("/assignments/:id/submissions/mine", authMiddleware.Required(), assignmentHandler.GetMySubmission)
	api.Get("/assignments/:id/submissions", authMiddleware.Required(), assignmentHandler.ListSubmissions)
	api.Post("/assignments/:id/submissions/:submission_id/grade", authMiddleware.Required(), assignmentHandler.GradeSubmission)

	// Quizzes
	api.Post("/assignments/:assignment_id/quiz", authMiddleware.Required(), quizHandler.CreateQuiz)
	quizzes := api.Group("/quizzes")
	quizzes.Get("/:id", authMiddleware.Required(), quizHandler.GetQuiz)
	quizzes.Put("/:id", authMiddleware.Required(), quizHandler.UpdateQuiz)
	quizzes.Delete("/:id", authMiddleware.Required(), quizHandler.DeleteQuiz)
	quizzes.Get("/:id/questions", authMiddleware.Required(), quizHandler.ListQuestions)
	quizzes.Post("/:id/questions", authMiddleware.Required(), quizHandler.CreateQuestion)
	quizzes.Get("/:id/take", authMiddleware.Required(), quizHandler.TakeQuiz)
	quizzes.Post("/:id/attempts", authMiddleware.Required(), quizHandler.BeginAttempt)
	api.Put("/questions/:id", authMiddleware.Required(), quizHandler.UpdateQuestion)
	api.Delete("/questions/:id", authMiddleware.Required(), quizHandler.DeleteQuestion)
	api.Get("/quiz-attempts/:id", authMiddleware.Required(), quizHandler.GetAttempt)
	api.Post("/quiz-attempts/:id/answers", authMiddleware.Required(), quizHandler.AnswerQuestion)
	api.Post("/quiz-attempts/:id/finish", authMiddleware.Required(), quizHandler.FinishAttempt)

	// Videos and watch progress
	videos := courses.Group("/:course_id/videos")
	videos.Get("/", authMiddleware.Optional(), videoHandler.ListVideos)
	videos.Post("/", authMiddleware.Required(), videoHandler.CreateVideo)
	api.Get("/videos/:id", authMiddleware.Optional(), videoHandler.GetVideo)
	api.Put("/videos/:id", authMiddleware.Required(), videoHandler.UpdateVideo)
	api.Delete("/videos/:id", authMiddleware.Required(), videoHandler.DeleteVideo)
	api.Post("/videos/progress", authMiddleware.Required(), videoHandler.UpdateProgress)

	// User administration (staff only)
	users := api.Group("/users", authMiddleware.RequireStaff())
	users.Get("/", userHandler.ListUsers)
	users.Get("/:id", userHandler.GetUser)
	users.Post("/", userHandler.CreateUser)
	users.Put("/:id", userHandler.UpdateUser)
	users.Post("/:id/reset-password", userHandler.ResetPassword)
	users.Delete("/:id", userHandler.DeleteUser)

	// Notifications (own account)
	notifications := api.Group("/notifications", authMiddleware.Required())
	notifications.Get("/", notificationHandler.GetNotifications)
	notifications.Get("/unread-count", notificationHandler.GetUnreadCount)
	notifications.Post("/:id/read", notificationHandler.MarkAsRead)
	notifications.Post("/read-all", notificationHandler.MarkAllAsRead)
	notifications.Delete("/:id", notificationHandler.DeleteNotification)
	notifications.Delete("/", notificationHandler.DeleteAllNotifications)
}
