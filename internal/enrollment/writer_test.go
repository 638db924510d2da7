package enrollment

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	// One connection so the concurrent test shares a single memory database.
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE enrollments (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			course_id INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (user_id, course_id)
		);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

func TestEnrollCreatesRow(t *testing.T) {
	w := &Writer{DB: setupDB(t)}

	res, err := w.Enroll(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	if !res.Created {
		t.Error("Enroll reported created=false for a fresh pair")
	}
	if res.EnrollmentID == "" {
		t.Error("Enroll returned an empty enrollment id")
	}
}

func TestEnrollDuplicateReturnsExisting(t *testing.T) {
	w := &Writer{DB: setupDB(t)}
	ctx := context.Background()

	first, err := w.Enroll(ctx, 1, 10)
	if err != nil {
		t.Fatalf("first Enroll failed: %v", err)
	}

	second, err := w.Enroll(ctx, 1, 10)
	if err != nil {
		t.Fatalf("second Enroll failed: %v", err)
	}
	if second.Created {
		t.Error("second Enroll reported created=true")
	}
	if second.EnrollmentID != first.EnrollmentID {
		t.Errorf("second Enroll returned id %s, want %s", second.EnrollmentID, first.EnrollmentID)
	}

	// A different course for the same user is a fresh enrollment.
	other, err := w.Enroll(ctx, 1, 11)
	if err != nil {
		t.Fatalf("Enroll for second course failed: %v", err)
	}
	if !other.Created {
		t.Error("Enroll for a different course reported created=false")
	}
}

func TestEnrollConcurrentDuplicates(t *testing.T) {
	db := setupDB(t)
	w := &Writer{DB: db}

	const attempts = 8
	results := make([]Result, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = w.Enroll(context.Background(), 1, 10)
		}(i)
	}
	wg.Wait()

	created := 0
	var winnerID string
	for i := 0; i < attempts; i++ {
		if errs[i] != nil {
			t.Fatalf("Enroll #%d failed: %v", i, errs[i])
		}
		if results[i].Created {
			created++
			winnerID = results[i].EnrollmentID
		}
	}
	if created != 1 {
		t.Fatalf("%d calls reported created=true, want exactly 1", created)
	}
	for i := 0; i < attempts; i++ {
		if results[i].EnrollmentID != winnerID {
			t.Errorf("Enroll #%d returned id %s, want %s", i, results[i].EnrollmentID, winnerID)
		}
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM enrollments WHERE user_id = 1 AND course_id = 10").Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("enrollments table holds %d rows for the pair, want 1", count)
	}
}

func TestEnrollPropagatesNonDuplicateFailure(t *testing.T) {
	db := setupDB(t)
	w := &Writer{DB: db}

	// Simulate a lost storage layer.
	if _, err := db.Exec("DROP TABLE enrollments"); err != nil {
		t.Fatalf("failed to drop table: %v", err)
	}

	res, err := w.Enroll(context.Background(), 1, 10)
	if err == nil {
		t.Fatal("Enroll succeeded against a missing table")
	}
	if res.Created {
		t.Error("Enroll returned created=true alongside an error")
	}
}
