package database

import (
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "postgres unique violation", err: &pq.Error{Code: "23505"}, want: true},
		{name: "postgres wrapped", err: fmt.Errorf("insert key: %w", &pq.Error{Code: "23505"}), want: true},
		{name: "postgres foreign key", err: &pq.Error{Code: "23503"}, want: false},
		{name: "mysql duplicate entry", err: &mysql.MySQLError{Number: 1062}, want: true},
		{name: "mysql deadlock", err: &mysql.MySQLError{Number: 1213}, want: false},
		{name: "plain error", err: assert.AnError, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}
