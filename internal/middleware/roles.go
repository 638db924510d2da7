package middleware

import (
	"database/sql"
	"net/http"

	"github.com/coursemint/coursemint-golang/internal/models"
	"github.com/gin-gonic/gin"
)

// requireRole builds a middleware that only lets through users whose role is
// in the allowed set. Must run after AuthMiddleware.
func requireRole(db *sql.DB, allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID_raw, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
			c.Abort()
			return
		}
		userID := userID_raw.(int64)

		var role, status string
		err := db.QueryRow("SELECT role, status FROM users WHERE id = ?", userID).Scan(&role, &status)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			c.Abort()
			return
		}

		if status != "active" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is not active"})
			c.Abort()
			return
		}

		for _, a := range allowed {
			if role == a {
				c.Set("userRole", role)
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
		c.Abort()
	}
}

// InstructorMiddleware allows instructors and admins.
func InstructorMiddleware(db *sql.DB) gin.HandlerFunc {
	return requireRole(db, models.RoleInstructor, models.RoleAdmin)
}

// AdminMiddleware allows admins only.
func AdminMiddleware(db *sql.DB) gin.HandlerFunc {
	return requireRole(db, models.RoleAdmin)
}
