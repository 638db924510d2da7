package models

import "time"

// Enrollment is the model for the 'enrollments' table.
// At most one row exists per (user_id, course_id) pair; that invariant is
// enforced by a UNIQUE index at the storage layer, not in application code.
type Enrollment struct {
	ID        string    `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	CourseID  int64     `json:"courseId" db:"course_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
