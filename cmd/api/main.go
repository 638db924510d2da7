package main

import (
	"log"
	"os"
	"time"

	"github.com/coursemint/coursemint-golang/internal/ai"
	"github.com/coursemint/coursemint-golang/internal/database"
	"github.com/coursemint/coursemint-golang/internal/enrollment"
	"github.com/coursemint/coursemint-golang/internal/handlers"
	"github.com/coursemint/coursemint-golang/internal/notify"
	"github.com/coursemint/coursemint-golang/internal/realtime"
	"github.com/coursemint/coursemint-golang/internal/routes"
	"github.com/joho/godotenv"
)

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	// 1. --- Main Database Connection (Read/Write) ---
	db, err := database.OpenDB()
	if err != nil {
		log.Fatalf("Failed to connect to primary database: %v", err)
	}
	defer db.Close()

	// 2. --- AI Tutor (Optional) ---
	// Needs its own read-only pool so the model can never touch data even if
	// the SQL filter misses something.
	var aiService *ai.AIService
	if geminiKey := os.Getenv("GEMINI_API_KEY"); geminiKey != "" {
		readOnlyDSN := os.Getenv("DB_DSN_READONLY")
		if readOnlyDSN == "" {
			log.Fatal("GEMINI_API_KEY is set but DB_DSN_READONLY is not; the tutor requires a read-only pool")
		}
		dbReadOnly, err := database.OpenDBWithDSN(readOnlyDSN)
		if err != nil {
			log.Fatalf("Failed to connect to read-only database: %v", err)
		}
		defer dbReadOnly.Close()

		aiService, err = ai.NewAIService(geminiKey, dbReadOnly)
		if err != nil {
			log.Fatalf("Failed to initialize AI tutor: %v", err)
		}
		log.Println("AI tutor enabled")
	} else {
		log.Println("GEMINI_API_KEY not set; AI tutor disabled")
	}

	// 3. --- Core Services ---
	// One broadcaster per process: the live notification registry must
	// outlive individual requests.
	broadcaster := realtime.NewBroadcaster()
	dispatcher := notify.NewDispatcher(&notify.SQLStore{DB: db}, broadcaster)
	enrollments := &enrollment.Writer{DB: db}

	// --- Application Setup ---
	app := &handlers.Handlers{
		DB:          db,
		Broadcaster: broadcaster,
		Dispatcher:  dispatcher,
		Enrollments: enrollments,
		AIService:   aiService,
	}

	// 4. --- Background Worker ---
	// Sweeps expired coupons every hour.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		log.Println("Background worker started: sweeping expired coupons hourly")
		for range ticker.C {
			app.DeactivateExpiredCoupons()
		}
	}()

	// --- Router Setup ---
	router := routes.SetupRouter(app)

	// --- Start Server ---
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting CourseMint API server on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
