package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"syscall"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	apperrors "github.com/yukikurage/task-tracker-api/internal/errors"
)

const (
	fieldUsername   = "username"
	fieldEmail      = "email"
	fieldStatus     = "status"
	fieldPriority   = "priority"
	fieldAssignedTo = "assigned_to"
)

// PostgreSQL SQLSTATE codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgTooManyConnections  = "53300"
	pgCannotConnectNow    = "57P03"
)

// MySQL server error numbers
const (
	myDuplicateEntry      = 1062
	myNoReferencedRow     = 1452
	myCheckViolated       = 3819
	myTooManyConnections  = 1040
	myUserConnectionLimit = 1203
)

var errAssigneeMissing = apperrors.ReferenceViolation(fieldAssignedTo, "assigned user does not exist")

// translateError classifies driver errors from PostgreSQL, MySQL and SQLite
// into store error kinds. Errors that are already classified, and errors that
// match no kind, are returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}

	if isConnectionError(err) {
		return apperrors.ConnectionUnavailable(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation:
			return duplicateKey(pgErr.ConstraintName, err)
		case pgErr.Code == pgForeignKeyViolation:
			return withCause(errAssigneeMissing, err)
		case pgErr.Code == pgCheckViolation:
			return checkViolation(pgErr.ConstraintName, err)
		case strings.HasPrefix(pgErr.Code, "08"), pgErr.Code == pgTooManyConnections, pgErr.Code == pgCannotConnectNow:
			return apperrors.ConnectionUnavailable(err)
		}
		return err
	}

	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case myDuplicateEntry:
			return duplicateKey(myErr.Message, err)
		case myNoReferencedRow:
			return withCause(errAssigneeMissing, err)
		case myCheckViolated:
			return checkViolation(myErr.Message, err)
		case myTooManyConnections, myUserConnectionLimit:
			return apperrors.ConnectionUnavailable(err)
		}
		return err
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return duplicateKey(liteErr.Error(), err)
		case sqlite3.ErrConstraintForeignKey:
			return withCause(errAssigneeMissing, err)
		case sqlite3.ErrConstraintCheck:
			return checkViolation(liteErr.Error(), err)
		}
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return duplicateKey("", err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return withCause(errAssigneeMissing, err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return checkViolation("", err)
	}

	return err
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysqldriver.ErrInvalidConn) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// duplicateKey names the colliding field from a constraint name or driver
// message. The field is left empty when it cannot be told; callers resolve it.
func duplicateKey(detail string, cause error) error {
	detail = strings.ToLower(detail)

	field := ""
	switch {
	case strings.Contains(detail, fieldUsername):
		field = fieldUsername
	case strings.Contains(detail, fieldEmail):
		field = fieldEmail
	}

	e := apperrors.DuplicateKey("user", field)
	e.Err = cause
	return e
}

func checkViolation(detail string, cause error) error {
	detail = strings.ToLower(detail)

	field := ""
	switch {
	case strings.Contains(detail, fieldPriority):
		field = fieldPriority
	case strings.Contains(detail, fieldStatus):
		field = fieldStatus
	}

	return &apperrors.Error{
		Kind:    apperrors.KindConstraintViolation,
		Field:   field,
		Message: "invalid status or priority value",
		Err:     cause,
	}
}

func withCause(e *apperrors.Error, cause error) error {
	out := *e
	out.Err = cause
	return &out
}

func notFoundOr(err error, entity string, id uint64) error {
	if isRecordNotFound(err) {
		return apperrors.NotFound(entity, id)
	}
	return translateError(err)
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
