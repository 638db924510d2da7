package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coursemint/coursemint-golang/internal/models"
	"github.com/gin-gonic/gin"
)

func newCheckoutServer(t *testing.T, h *Handlers) *httptest.Server {
	t.Helper()

	router := gin.New()
	authed := router.Group("/v1", testAuth())
	authed.POST("/checkout", h.Checkout)
	authed.GET("/enrollments/me", h.GetMyEnrollments)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

type checkoutResponse struct {
	OrderID         int64   `json:"orderId"`
	TotalPaid       float64 `json:"totalPaid"`
	EnrollmentID    string  `json:"enrollmentId"`
	AlreadyEnrolled bool    `json:"alreadyEnrolled"`
}

func doCheckout(t *testing.T, server *httptest.Server, userID int64, body string) (*http.Response, checkoutResponse) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, server.URL+"/v1/checkout", strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("checkout request failed: %v", err)
	}
	defer resp.Body.Close()

	var out checkoutResponse
	if resp.StatusCode == http.StatusCreated {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("failed to decode checkout response: %v", err)
		}
	}
	return resp, out
}

func TestCheckout_CreatesOrderAndEnrollment(t *testing.T) {
	h := setupTestHandlers(t, 3, 500)
	instructorID := seedUser(t, h.DB, models.RoleInstructor, "teach@example.com")
	studentID := seedUser(t, h.DB, models.RoleStudent, "buy@example.com")
	courseID := seedCourse(t, h.DB, instructorID, "go-basics", 50)
	server := newCheckoutServer(t, h)

	resp, out := doCheckout(t, server, studentID, fmt.Sprintf(`{"courseId": %d}`, courseID))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if out.TotalPaid != 50 {
		t.Errorf("totalPaid = %v, want 50", out.TotalPaid)
	}
	if out.AlreadyEnrolled {
		t.Error("first purchase reported alreadyEnrolled")
	}
	if out.EnrollmentID == "" {
		t.Fatal("response has no enrollmentId")
	}

	var enrollments int
	if err := h.DB.QueryRow(`SELECT COUNT(*) FROM enrollments WHERE user_id = ? AND course_id = ?`, studentID, courseID).Scan(&enrollments); err != nil {
		t.Fatalf("failed to count enrollments: %v", err)
	}
	if enrollments != 1 {
		t.Errorf("enrollment rows = %d, want 1", enrollments)
	}

	var orderStatus string
	if err := h.DB.QueryRow(`SELECT status FROM orders WHERE id = ?`, out.OrderID).Scan(&orderStatus); err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}
	if orderStatus != "paid" {
		t.Errorf("order status = %q, want %q", orderStatus, "paid")
	}

	// A fresh enrollment triggers a durable confirmation notification.
	var notified int
	if err := h.DB.QueryRow(`SELECT COUNT(*) FROM notifications WHERE user_id = ?`, studentID).Scan(&notified); err != nil {
		t.Fatalf("failed to count notifications: %v", err)
	}
	if notified != 1 {
		t.Errorf("notification rows = %d, want 1", notified)
	}
}

func TestCheckout_RetryReturnsSameEnrollment(t *testing.T) {
	h := setupTestHandlers(t, 3, 500)
	instructorID := seedUser(t, h.DB, models.RoleInstructor, "teach@example.com")
	studentID := seedUser(t, h.DB, models.RoleStudent, "buy@example.com")
	courseID := seedCourse(t, h.DB, instructorID, "go-basics", 50)
	server := newCheckoutServer(t, h)

	body := fmt.Sprintf(`{"courseId": %d}`, courseID)
	_, first := doCheckout(t, server, studentID, body)

	// A double click or gateway retry must not duplicate the enrollment.
	resp, second := doCheckout(t, server, studentID, body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("retry status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if !second.AlreadyEnrolled {
		t.Error("retry did not report alreadyEnrolled")
	}
	if second.EnrollmentID != first.EnrollmentID {
		t.Errorf("retry enrollmentId = %s, want %s", second.EnrollmentID, first.EnrollmentID)
	}

	var enrollments int
	if err := h.DB.QueryRow(`SELECT COUNT(*) FROM enrollments WHERE user_id = ?`, studentID).Scan(&enrollments); err != nil {
		t.Fatalf("failed to count enrollments: %v", err)
	}
	if enrollments != 1 {
		t.Errorf("enrollment rows = %d, want 1", enrollments)
	}

	// Only the first purchase notifies; the retry is silent.
	var notified int
	if err := h.DB.QueryRow(`SELECT COUNT(*) FROM notifications WHERE user_id = ?`, studentID).Scan(&notified); err != nil {
		t.Fatalf("failed to count notifications: %v", err)
	}
	if notified != 1 {
		t.Errorf("notification rows = %d, want 1", notified)
	}
}

func TestCheckout_AppliesCoupon(t *testing.T) {
	h := setupTestHandlers(t, 3, 500)
	instructorID := seedUser(t, h.DB, models.RoleInstructor, "teach@example.com")
	studentID := seedUser(t, h.DB, models.RoleStudent, "buy@example.com")
	courseID := seedCourse(t, h.DB, instructorID, "go-basics", 100)
	server := newCheckoutServer(t, h)

	_, err := h.DB.Exec(`
		INSERT INTO coupons (code, discount_type, amount, expires_at, active, created_at)
		VALUES ('HALFOFF', ?, 50, ?, 1, ?)`,
		models.DiscountPercent, time.Now().Add(24*time.Hour), time.Now())
	if err != nil {
		t.Fatalf("failed to seed coupon: %v", err)
	}

	resp, out := doCheckout(t, server, studentID,
		fmt.Sprintf(`{"courseId": %d, "couponCode": "HALFOFF"}`, courseID))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if out.TotalPaid != 50 {
		t.Errorf("totalPaid = %v, want 50", out.TotalPaid)
	}
}

func TestCheckout_RejectsExpiredCoupon(t *testing.T) {
	h := setupTestHandlers(t, 3, 500)
	instructorID := seedUser(t, h.DB, models.RoleInstructor, "teach@example.com")
	studentID := seedUser(t, h.DB, models.RoleStudent, "buy@example.com")
	courseID := seedCourse(t, h.DB, instructorID, "go-basics", 100)
	server := newCheckoutServer(t, h)

	_, err := h.DB.Exec(`
		INSERT INTO coupons (code, discount_type, amount, expires_at, active, created_at)
		VALUES ('STALE', ?, 50, ?, 1, ?)`,
		models.DiscountPercent, time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("failed to seed coupon: %v", err)
	}

	resp, _ := doCheckout(t, server, studentID,
		fmt.Sprintf(`{"courseId": %d, "couponCode": "STALE"}`, courseID))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestCheckout_UnpublishedCourseNotFound(t *testing.T) {
	h := setupTestHandlers(t, 3, 500)
	instructorID := seedUser(t, h.DB, models.RoleInstructor, "teach@example.com")
	studentID := seedUser(t, h.DB, models.RoleStudent, "buy@example.com")
	server := newCheckoutServer(t, h)

	result, err := h.DB.Exec(`
		INSERT INTO courses (instructor_id, title, slug, price, status, created_at, updated_at)
		VALUES (?, 'draft-course', 'draft-course', 10, 'draft', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		instructorID)
	if err != nil {
		t.Fatalf("failed to seed draft course: %v", err)
	}
	courseID, _ := result.LastInsertId()

	resp, _ := doCheckout(t, server, studentID, fmt.Sprintf(`{"courseId": %d}`, courseID))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}
