package models

import (
	"database/sql"
	"time"
)

// Course is the model for the 'courses' table.
type Course struct {
	ID           int64          `json:"id" db:"id"`
	InstructorID int64          `json:"instructorId" db:"instructor_id"`
	Title        string         `json:"title" db:"title"`
	Slug         string         `json:"slug" db:"slug"`
	Description  sql.NullString `json:"description,omitempty" db:"description"`
	Category     sql.NullString `json:"category,omitempty" db:"category"`
	Price        float64        `json:"price" db:"price"`
	Status       string         `json:"status" db:"status"` // draft, published, archived
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time      `json:"updatedAt" db:"updated_at"`
}
