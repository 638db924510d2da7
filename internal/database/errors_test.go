package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestIsDuplicateEntry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "mysql duplicate entry code",
			err:  &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'u1-c1' for key 'enrollments.uniq_user_course'"},
			want: true,
		},
		{
			name: "mysql other error code",
			err:  &mysql.MySQLError{Number: 1146, Message: "Table 'coursemint.missing' doesn't exist"},
			want: false,
		},
		{
			name: "wrapped mysql duplicate entry",
			err:  fmt.Errorf("insert enrollment: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}),
			want: true,
		},
		{
			name: "sqlite unique constraint message",
			err:  errors.New("constraint failed: UNIQUE constraint failed: enrollments.user_id, enrollments.course_id (2067)"),
			want: true,
		},
		{
			name: "unrelated error",
			err:  errors.New("driver: bad connection"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicateEntry(tt.err); got != tt.want {
				t.Errorf("IsDuplicateEntry(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
