package models

import "time"

// Certificate is the model for the 'certificates' table.
// Like enrollments, UNIQUE(user_id, course_id) at the storage layer makes
// claiming idempotent.
type Certificate struct {
	ID       string `json:"id" db:"id"`
	UserID   int64  `json:"userId" db:"user_id"`
	CourseID int64  `json:"courseId" db:"course_id"`
	// Serial is the short public code printed on the certificate and used
	// for third-party verification.
	Serial   string    `json:"serial" db:"serial"`
	IssuedAt time.Time `json:"issuedAt" db:"issued_at"`
}
