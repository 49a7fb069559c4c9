package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	apperrors "github.com/yukikurage/task-tracker-api/internal/errors"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantKind  apperrors.Kind
		wantField string
	}{
		{
			name:      "postgres unique username",
			err:       &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_username"},
			wantKind:  apperrors.KindDuplicateKey,
			wantField: "username",
		},
		{
			name:      "postgres unique email",
			err:       fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"}),
			wantKind:  apperrors.KindDuplicateKey,
			wantField: "email",
		},
		{
			name:      "postgres foreign key",
			err:       &pgconn.PgError{Code: "23503", ConstraintName: "fk_tasks_assignee"},
			wantKind:  apperrors.KindReferenceViolation,
			wantField: "assigned_to",
		},
		{
			name:      "postgres check",
			err:       &pgconn.PgError{Code: "23514", ConstraintName: "chk_tasks_priority"},
			wantKind:  apperrors.KindConstraintViolation,
			wantField: "priority",
		},
		{
			name:     "postgres too many connections",
			err:      &pgconn.PgError{Code: "53300"},
			wantKind: apperrors.KindConnectionUnavailable,
		},
		{
			name:     "postgres connection exception class",
			err:      &pgconn.PgError{Code: "08006"},
			wantKind: apperrors.KindConnectionUnavailable,
		},
		{
			name:      "mysql duplicate entry",
			err:       &mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry 'a@x.com' for key 'users.idx_users_email'"},
			wantKind:  apperrors.KindDuplicateKey,
			wantField: "email",
		},
		{
			name:      "mysql foreign key",
			err:       &mysqldriver.MySQLError{Number: 1452},
			wantKind:  apperrors.KindReferenceViolation,
			wantField: "assigned_to",
		},
		{
			name:      "mysql check",
			err:       &mysqldriver.MySQLError{Number: 3819, Message: "Check constraint 'chk_tasks_status' is violated."},
			wantKind:  apperrors.KindConstraintViolation,
			wantField: "status",
		},
		{
			name:     "mysql too many connections",
			err:      &mysqldriver.MySQLError{Number: 1040},
			wantKind: apperrors.KindConnectionUnavailable,
		},
		{
			name:     "mysql invalid connection",
			err:      mysqldriver.ErrInvalidConn,
			wantKind: apperrors.KindConnectionUnavailable,
		},
		{
			name:      "sqlite foreign key",
			err:       sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey},
			wantKind:  apperrors.KindReferenceViolation,
			wantField: "assigned_to",
		},
		{
			name:     "gorm duplicated key without detail",
			err:      gorm.ErrDuplicatedKey,
			wantKind: apperrors.KindDuplicateKey,
		},
		{
			name:     "bad connection",
			err:      driver.ErrBadConn,
			wantKind: apperrors.KindConnectionUnavailable,
		},
		{
			name:     "deadline",
			err:      fmt.Errorf("acquire: %w", context.DeadlineExceeded),
			wantKind: apperrors.KindConnectionUnavailable,
		},
		{
			name:     "unclassified",
			err:      errors.New("syntax error"),
			wantKind: apperrors.KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translateError(tt.err)

			assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
			assert.Equal(t, tt.wantField, apperrors.FieldOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestTranslateError_KeepsClassifiedErrors(t *testing.T) {
	original := apperrors.NotFound("task", 3)

	assert.Same(t, original, translateError(original))
	assert.NoError(t, translateError(nil))
}
