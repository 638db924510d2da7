package notify

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/coursemint/coursemint-golang/internal/models"
)

// SQLStore implements Store on top of the shared connection pool.
type SQLStore struct {
	DB *sql.DB
}

// InsertNotifications writes one batch as a single multi-row INSERT so a
// batch is all-or-nothing without an explicit transaction.
func (s *SQLStore) InsertNotifications(ctx context.Context, rows []models.Notification) error {
	if len(rows) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO notifications
		(id, user_id, title, message, type, link, is_read, created_at)
		VALUES `)

	args := make([]interface{}, 0, len(rows)*7)
	for i, n := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, 0, ?)")
		args = append(args, n.ID, n.UserID, n.Title, n.Message, n.Type, n.Link, n.CreatedAt)
	}

	if _, err := s.DB.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to insert notifications: %w", err)
	}
	return nil
}

// UserIDsByRole returns all user IDs, optionally filtered by role.
func (s *SQLStore) UserIDsByRole(ctx context.Context, role string) ([]int64, error) {
	query := "SELECT id FROM users"
	var args []interface{}
	if role != "" {
		query += " WHERE role = ?"
		args = append(args, role)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
