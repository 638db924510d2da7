package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/coursemint/coursemint-golang/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
)

//
// --- Course Handlers ---
//

// CreateCourseInput is the payload for POST /v1/courses (instructor-only).
type CreateCourseInput struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price" binding:"gte=0"`
}

// CreateCourse is the handler for POST /v1/courses.
// New courses start as 'draft'; PublishCourse flips them live.
func (h *Handlers) CreateCourse(c *gin.Context) {
	// 1. --- Get Instructor ID ---
	instructorID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return
	}

	// 2. --- Bind & Validate JSON ---
	var input CreateCourseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 3. --- Generate a Unique Slug ---
	courseSlug, err := h.uniqueSlug("courses", input.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate course slug"})
		return
	}

	// 4. --- Save to Database ---
	now := time.Now()
	query := `
		INSERT INTO courses (instructor_id, title, slug, description, category, price, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 'draft', ?, ?)`

	result, err := h.DB.Exec(query, instructorID, input.Title, courseSlug,
		nullIfEmpty(input.Description), nullIfEmpty(input.Category), input.Price, now, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create course"})
		return
	}
	courseID, _ := result.LastInsertId()

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Course created as draft",
		"courseId": courseID,
		"slug":     courseSlug,
	})
}

// SearchCourses is the handler for GET /v1/courses/search.
// Public: only published courses are visible.
func (h *Handlers) SearchCourses(c *gin.Context) {
	q := c.Query("q")
	category := c.Query("category")

	query := `
		SELECT c.id, c.instructor_id, c.title, c.slug, c.description, c.category, c.price, c.status, c.created_at, c.updated_at
		FROM courses c
		WHERE c.status = 'published'`
	var args []interface{}

	if q != "" {
		query += " AND (c.title LIKE ? OR c.description LIKE ?)"
		like := "%" + q + "%"
		args = append(args, like, like)
	}
	if category != "" {
		query += " AND c.category = ?"
		args = append(args, category)
	}
	query += " ORDER BY c.created_at DESC LIMIT 50"

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	courses, err := scanCourses(rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan course row"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// GetCourseBySlug is the handler for GET /v1/courses/:slug.
func (h *Handlers) GetCourseBySlug(c *gin.Context) {
	courseSlug := c.Param("slug")

	var course models.Course
	query := `
		SELECT id, instructor_id, title, slug, description, category, price, status, created_at, updated_at
		FROM courses WHERE slug = ? AND status = 'published'`
	err := h.DB.QueryRow(query, courseSlug).Scan(
		&course.ID, &course.InstructorID, &course.Title, &course.Slug,
		&course.Description, &course.Category, &course.Price, &course.Status,
		&course.CreatedAt, &course.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"course": course})
}

// GetMyCourses is the handler for GET /v1/instructor/courses.
func (h *Handlers) GetMyCourses(c *gin.Context) {
	instructorID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return
	}

	query := `
		SELECT id, instructor_id, title, slug, description, category, price, status, created_at, updated_at
		FROM courses WHERE instructor_id = ? ORDER BY created_at DESC`
	rows, err := h.DB.Query(query, instructorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	courses, err := scanCourses(rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan course row"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// UpdateCourseInput is the payload for PUT /v1/courses/:id.
type UpdateCourseInput struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price" binding:"gte=0"`
}

// UpdateCourse is the handler for PUT /v1/courses/:id.
// Only the owning instructor may update; the slug is stable once assigned.
func (h *Handlers) UpdateCourse(c *gin.Context) {
	instructorID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return
	}
	courseID := c.Param("id")

	var input UpdateCourseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The WHERE clause scopes the update to the owner, so an instructor
	// can never edit someone else's course.
	query := `
		UPDATE courses
		SET title = ?, description = ?, category = ?, price = ?, updated_at = ?
		WHERE id = ? AND instructor_id = ?`
	result, err := h.DB.Exec(query, input.Title, nullIfEmpty(input.Description),
		nullIfEmpty(input.Category), input.Price, time.Now(), courseID, instructorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update course"})
		return
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check affected rows"})
		return
	}
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found or you do not own it"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Course updated"})
}

// PublishCourse is the handler for PATCH /v1/courses/:id/publish.
func (h *Handlers) PublishCourse(c *gin.Context) {
	instructorID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return
	}
	courseID := c.Param("id")

	result, err := h.DB.Exec(`
		UPDATE courses SET status = 'published', updated_at = ?
		WHERE id = ? AND instructor_id = ? AND status = 'draft'`,
		time.Now(), courseID, instructorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish course"})
		return
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found, not yours, or not a draft"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Course published"})
}

// ArchiveCourse is the handler for DELETE /v1/courses/:id.
// We archive instead of hard-deleting so existing enrollments stay valid.
func (h *Handlers) ArchiveCourse(c *gin.Context) {
	instructorID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return
	}
	courseID := c.Param("id")

	result, err := h.DB.Exec(`
		UPDATE courses SET status = 'archived', updated_at = ?
		WHERE id = ? AND instructor_id = ?`,
		time.Now(), courseID, instructorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to archive course"})
		return
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found or you do not own it"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Course archived"})
}

//
// --- Helpers ---
//

// uniqueSlug slugifies title and appends a numeric suffix until the slug is
// free in the given table. Relies on the table's UNIQUE(slug) index for the
// final word.
func (h *Handlers) uniqueSlug(table, title string) (string, error) {
	base := slug.Make(title)
	candidate := base

	for i := 2; ; i++ {
		var exists int
		err := h.DB.QueryRow("SELECT 1 FROM "+table+" WHERE slug = ?", candidate).Scan(&exists)
		if err == sql.ErrNoRows {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func scanCourses(rows *sql.Rows) ([]models.Course, error) {
	courses := []models.Course{}
	for rows.Next() {
		var course models.Course
		if err := rows.Scan(
			&course.ID, &course.InstructorID, &course.Title, &course.Slug,
			&course.Description, &course.Category, &course.Price, &course.Status,
			&course.CreatedAt, &course.UpdatedAt,
		); err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
