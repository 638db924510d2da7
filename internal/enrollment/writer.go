// Package enrollment creates course enrollments with idempotent
// enroll-on-purchase semantics. Correctness under concurrent duplicate
// attempts rests entirely on the storage layer's UNIQUE(user_id, course_id)
// index; no application-level lock is taken.
package enrollment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coursemint/coursemint-golang/internal/database"
	"github.com/google/uuid"
)

// Result reports the outcome of an Enroll call. Created is false when a row
// for the pair already existed, in which case EnrollmentID is the existing
// row's id.
type Result struct {
	EnrollmentID string `json:"enrollmentId"`
	Created      bool   `json:"created"`
}

// Writer performs insert-or-return-existing enrollment creation.
type Writer struct {
	DB *sql.DB
}

// Enroll inserts an Enrollment for (userID, courseID). If a concurrent (or
// earlier) request already created the row, the duplicate-key failure is the
// expected race outcome: the existing row is looked up and returned with
// Created=false. Any other failure propagates unchanged.
func (w *Writer) Enroll(ctx context.Context, userID, courseID int64) (Result, error) {
	// 1. --- Attempt the Insert ---
	id := uuid.NewString()
	_, err := w.DB.ExecContext(ctx, `
		INSERT INTO enrollments (id, user_id, course_id, created_at)
		VALUES (?, ?, ?, ?)`,
		id, userID, courseID, time.Now())
	if err == nil {
		return Result{EnrollmentID: id, Created: true}, nil
	}

	// 2. --- Anything But a Duplicate Is Fatal ---
	if !database.IsDuplicateEntry(err) {
		return Result{}, fmt.Errorf("failed to insert enrollment: %w", err)
	}

	// 3. --- Duplicate: Return the Existing Row ---
	var existingID string
	err = w.DB.QueryRowContext(ctx, `
		SELECT id FROM enrollments WHERE user_id = ? AND course_id = ?`,
		userID, courseID).Scan(&existingID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to look up existing enrollment: %w", err)
	}

	return Result{EnrollmentID: existingID, Created: false}, nil
}
