package errors

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// reKeyField extracts the column from a unique violation detail: "Key (field)=(value) already exists.".
var reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)

// tableDomains maps table names to the nouns used in user-facing messages.
var tableDomains = map[string]string{
	"users":         "User",
	"videos":        "Video",
	"trend_queries": "Trend query",
	"workflow_runs": "Workflow run",
}

// MapDBError maps database errors to AppError instances.
//   - sql.ErrNoRows / pgx.ErrNoRows → NotFound
//   - unique violations → Conflict
//   - foreign key violations → ForeignKey
//   - check / not-null violations → Validation
//   - context timeouts and cancellation → Timeout / Canceled
//
// Unrecognized errors are returned unchanged.
func MapDBError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrCodeTimeout, "Request timed out. Please try again.")
	case errors.Is(err, context.Canceled):
		return Wrap(err, ErrCodeCanceled, "Request was canceled.")
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, pgx.ErrNoRows):
		return Wrap(err, ErrCodeNotFound, "Resource not found")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}
	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		field := pgErr.ColumnName
		if field == "" {
			if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
				field = m[1]
			}
		}
		return &AppError{
			Code:    ErrCodeConflict,
			Message: "This value already exists.",
			Field:   field,
			Cause:   pgErr,
		}
	case pgerrcode.ForeignKeyViolation:
		noun := domainFor(pgErr.TableName)
		column := fkColumn(pgErr.TableName, pgErr.ConstraintName)
		if column != "" {
			noun = strings.ReplaceAll(strings.TrimSuffix(column, "_id"), "_", " ")
		}
		return &AppError{
			Code:    ErrCodeForeignKey,
			Message: "The referenced " + noun + " does not exist.",
			Field:   column,
			Cause:   pgErr,
		}
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "Invalid data. Please check your input.",
			Field:   pgErr.ColumnName,
			Cause:   pgErr,
		}
	default:
		return &AppError{
			Code:    ErrCodeInternal,
			Message: "A database error occurred. Please try again.",
			Cause:   pgErr,
		}
	}
}

func domainFor(table string) string {
	table = strings.ToLower(strings.TrimSpace(table))
	if d, ok := tableDomains[table]; ok {
		return d
	}
	if table == "" {
		return "record"
	}
	return strings.ReplaceAll(table, "_", " ")
}

// fkColumn recovers the referencing column from a default constraint name, <table>_<column>_fkey.
func fkColumn(table, constraint string) string {
	if table == "" || !strings.HasPrefix(constraint, table+"_") || !strings.HasSuffix(constraint, "_fkey") {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(constraint, table+"_"), "_fkey")
}
