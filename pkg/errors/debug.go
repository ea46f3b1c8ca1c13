package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// PGDiagnostics is the subset of a Postgres error report worth logging.
type PGDiagnostics struct {
	SQLState   string
	Table      string
	Column     string
	Constraint string
	Detail     string
}

// PostgresDiagnostics finds a driver error in err's chain. Both the pgx and
// lib/pq drivers are recognised.
func PostgresDiagnostics(err error) (PGDiagnostics, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return PGDiagnostics{
			SQLState:   pgErr.Code,
			Table:      pgErr.TableName,
			Column:     pgErr.ColumnName,
			Constraint: pgErr.ConstraintName,
			Detail:     pgErr.Detail,
		}, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return PGDiagnostics{
			SQLState:   string(pqErr.Code),
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Constraint: pqErr.Constraint,
			Detail:     pqErr.Detail,
		}, true
	}
	return PGDiagnostics{}, false
}

// LogFields flattens err into structured log fields.
func LogFields(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}
	var chain []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, fmt.Sprintf("%T", e))
	}
	fields := map[string]any{
		"error":       err.Error(),
		"error_chain": chain,
	}
	if typed := As(err); typed != nil {
		fields["error_code"] = typed.Code()
	}
	if pg, ok := PostgresDiagnostics(err); ok {
		fields["pg_code"] = pg.SQLState
		fields["pg_table"] = pg.Table
		fields["pg_constraint"] = pg.Constraint
		if pg.Column != "" {
			fields["pg_column"] = pg.Column
		}
		if pg.Detail != "" {
			fields["pg_detail"] = pg.Detail
		}
	}
	return fields
}
