package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/coursemint/coursemint-golang/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Blog Handlers ---
//

// GetBlogPosts is the handler for GET /v1/blog. Public, published only.
func (h *Handlers) GetBlogPosts(c *gin.Context) {
	query := `
		SELECT id, author_id, title, slug, body, published, created_at, updated_at
		FROM blog_posts
		WHERE published = 1
		ORDER BY created_at DESC
		LIMIT 20`

	rows, err := h.DB.Query(query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	posts := []models.BlogPost{}
	for rows.Next() {
		var post models.BlogPost
		if err := rows.Scan(&post.ID, &post.AuthorID, &post.Title, &post.Slug,
			&post.Body, &post.Published, &post.CreatedAt, &post.UpdatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan blog post"})
			return
		}
		posts = append(posts, post)
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// GetBlogPostBySlug is the handler for GET /v1/blog/:slug.
func (h *Handlers) GetBlogPostBySlug(c *gin.Context) {
	postSlug := c.Param("slug")

	var post models.BlogPost
	err := h.DB.QueryRow(`
		SELECT id, author_id, title, slug, body, published, created_at, updated_at
		FROM blog_posts WHERE slug = ? AND published = 1`,
		postSlug).Scan(&post.ID, &post.AuthorID, &post.Title, &post.Slug,
		&post.Body, &post.Published, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// CreateBlogPostInput is the payload for POST /v1/instructor/blog.
type CreateBlogPostInput struct {
	Title     string `json:"title" binding:"required"`
	Body      string `json:"body" binding:"required"`
	Published bool   `json:"published"`
}

// CreateBlogPost is the handler for POST /v1/instructor/blog.
func (h *Handlers) CreateBlogPost(c *gin.Context) {
	authorID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return
	}

	var input CreateBlogPostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	postSlug, err := h.uniqueSlug("blog_posts", input.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate post slug"})
		return
	}

	now := time.Now()
	result, err := h.DB.Exec(`
		INSERT INTO blog_posts (author_id, title, slug, body, published, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		authorID, input.Title, postSlug, input.Body, input.Published, now, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}
	postID, _ := result.LastInsertId()

	c.JSON(http.StatusCreated, gin.H{
		"message": "Post created",
		"postId":  postID,
		"slug":    postSlug,
	})
}

// UpdateBlogPost is the handler for PUT /v1/instructor/blog/:id.
// Scoped to the author, same ownership pattern as course updates.
func (h *Handlers) UpdateBlogPost(c *gin.Context) {
	authorID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return
	}
	postID := c.Param("id")

	var input CreateBlogPostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.DB.Exec(`
		UPDATE blog_posts
		SET title = ?, body = ?, published = ?, updated_at = ?
		WHERE id = ? AND author_id = ?`,
		input.Title, input.Body, input.Published, time.Now(), postID, authorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found or you are not the author"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post updated"})
}
