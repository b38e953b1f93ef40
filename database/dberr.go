package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE classes this schema can actually produce.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
)

// DescribeError turns a driver error into a message safe to put in a client
// response. Constraint violations name the offending column/constraint;
// anything else collapses to a generic message so internals do not leak.
func DescribeError(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Sprintf("значение поля '%s' уже существует", constraintField(pgErr))
		case pgForeignKeyViolation:
			return fmt.Sprintf("связанная запись '%s' не найдена", constraintField(pgErr))
		case pgNotNullViolation:
			return fmt.Sprintf("поле '%s' обязательно", pgErr.ColumnName)
		case pgCheckViolation:
			return "значение не удовлетворяет ограничениям"
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return "запись не найдена"
	}
	return "ошибка при сохранении в БД"
}

func constraintField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if pgErr.ConstraintName != "" {
		return pgErr.ConstraintName
	}
	return pgErr.TableName
}
