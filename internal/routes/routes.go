package routes

import (
	"net/http"
	"os"

	"github.com/coursemint/coursemint-golang/internal/handlers"
	"github.com/coursemint/coursemint-golang/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CORSMiddleware tells the browser the storefront origin may call us.
func CORSMiddleware() gin.HandlerFunc {
	frontend := os.Getenv("FRONTEND_ORIGIN")
	if frontend == "" {
		frontend = "http://localhost:5173"
	}

	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", frontend)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		// The browser's preflight OPTIONS request gets a 204.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	// CORS must run before anything else.
	router.Use(CORSMiddleware())

	// Prometheus scrape endpoint (outside /v1, no auth).
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Auth Routes (Public) ---
		v1.POST("/register/student", h.RegisterStudent)
		v1.POST("/register/instructor", h.RegisterInstructor)
		v1.POST("/login", h.Login)

		// --- Public Catalog Routes ---
		v1.GET("/courses/search", h.SearchCourses)
		v1.GET("/courses/:slug", h.GetCourseBySlug)
		v1.GET("/coupons/validate", h.ValidateCoupon)

		// --- Public Blog Routes ---
		v1.GET("/blog", h.GetBlogPosts)
		v1.GET("/blog/:slug", h.GetBlogPostBySlug)

		// --- Public Certificate Verification ---
		v1.GET("/certificates/:serial", h.VerifyCertificate)

		// --- Protected Routes (Login Required) ---
		auth := v1.Group("/")
		auth.Use(middleware.AuthMiddleware())
		{
			auth.GET("/profile/me", h.GetMyProfile)

			// --- Notifications ---
			auth.GET("/notifications", h.GetMyNotifications)
			auth.GET("/notifications/stream", h.StreamNotifications)
			auth.PATCH("/notifications/:id/read", h.MarkNotificationAsRead)
			auth.POST("/notifications/read-all", h.MarkAllNotificationsRead)

			// --- Purchasing ---
			auth.POST("/checkout", h.Checkout)
			auth.GET("/enrollments/me", h.GetMyEnrollments)
			auth.POST("/certificates/claim", h.ClaimCertificate)

			// --- AI Tutor ---
			auth.POST("/ai/chat", h.ChatAI)
		}

		// --- Instructor-Only Routes ---
		instructor := v1.Group("/instructor")
		instructor.Use(middleware.AuthMiddleware())
		instructor.Use(middleware.InstructorMiddleware(h.DB))
		{
			instructor.POST("/courses", h.CreateCourse)
			instructor.GET("/courses", h.GetMyCourses)
			instructor.PUT("/courses/:id", h.UpdateCourse)
			instructor.PATCH("/courses/:id/publish", h.PublishCourse)
			instructor.DELETE("/courses/:id", h.ArchiveCourse)

			instructor.POST("/blog", h.CreateBlogPost)
			instructor.PUT("/blog/:id", h.UpdateBlogPost)
		}

		// --- Admin-Only Routes ---
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware())
		admin.Use(middleware.AdminMiddleware(h.DB))
		{
			admin.POST("/notifications", h.SendNotification)
			admin.POST("/coupons", h.CreateCoupon)
			admin.PATCH("/instructors/:id/approve", h.ApproveInstructor)
			admin.GET("/dashboard-stats", h.GetDashboardStats)
		}
	}

	return router
}
