package handlers

import (
	"database/sql"
	"strconv"
	"testing"

	"github.com/coursemint/coursemint-golang/internal/enrollment"
	"github.com/coursemint/coursemint-golang/internal/notify"
	"github.com/coursemint/coursemint-golang/internal/realtime"
	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSchema = `
	CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		role TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		full_name TEXT NOT NULL DEFAULT '',
		headline TEXT,
		bio TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE courses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		instructor_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT,
		category TEXT,
		price REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'draft',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE enrollments (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		course_id INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (user_id, course_id)
	);
	CREATE TABLE orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		course_id INTEGER NOT NULL,
		total REAL NOT NULL,
		coupon_code TEXT,
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE TABLE coupons (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		discount_type TEXT NOT NULL,
		amount REAL NOT NULL,
		expires_at TIMESTAMP,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL
	);
	CREATE TABLE certificates (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		course_id INTEGER NOT NULL,
		serial TEXT NOT NULL UNIQUE,
		issued_at TIMESTAMP NOT NULL,
		UNIQUE (user_id, course_id)
	);
	CREATE TABLE blog_posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		author_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		body TEXT NOT NULL,
		published INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE TABLE notifications (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		message TEXT,
		type TEXT NOT NULL,
		link TEXT,
		is_read INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	);
	CREATE TABLE ai_chat_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		user_message TEXT NOT NULL,
		ai_response TEXT NOT NULL,
		tokens_used INTEGER NOT NULL DEFAULT 0
	);`

// setupTestHandlers builds a Handlers instance over an in-memory database
// and a broadcaster with the given connection limits.
func setupTestHandlers(t *testing.T, maxPerUser, maxTotal int) *Handlers {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	broadcaster := realtime.NewBroadcasterWithLimits(maxPerUser, maxTotal)
	return &Handlers{
		DB:          db,
		Broadcaster: broadcaster,
		Dispatcher:  notify.NewDispatcher(&notify.SQLStore{DB: db}, broadcaster),
		Enrollments: &enrollment.Writer{DB: db},
	}
}

// testAuth stands in for the JWT middleware: it trusts an X-User-ID header.
func testAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v := c.GetHeader("X-User-ID"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err == nil {
				c.Set("userID", id)
			}
		}
		c.Next()
	}
}

// seedUser inserts a user and returns its id.
func seedUser(t *testing.T, db *sql.DB, role, email string) int64 {
	t.Helper()
	result, err := db.Exec(`INSERT INTO users (role, email, full_name) VALUES (?, ?, ?)`, role, email, "Test "+role)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	id, _ := result.LastInsertId()
	return id
}

// seedCourse inserts a published course and returns its id.
func seedCourse(t *testing.T, db *sql.DB, instructorID int64, title string, price float64) int64 {
	t.Helper()
	result, err := db.Exec(`
		INSERT INTO courses (instructor_id, title, slug, price, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, 'published', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		instructorID, title, "slug-"+title, price)
	if err != nil {
		t.Fatalf("failed to seed course: %v", err)
	}
	id, _ := result.LastInsertId()
	return id
}
