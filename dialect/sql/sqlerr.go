package sql

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	sqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// Driver errors propagate unmodified through the execution path. The one
// sanctioned translation point is constraint violations, which callers need
// to recognize uniformly across backends; detection lives here so the rest
// of the core never imports driver packages.

// mysqlConstraintCodes are the MySQL error numbers that indicate a
// constraint violation.
var mysqlConstraintCodes = map[uint16]struct{}{
	1062: {}, // ER_DUP_ENTRY
	1048: {}, // ER_BAD_NULL_ERROR
	1451: {}, // ER_ROW_IS_REFERENCED_2
	1452: {}, // ER_NO_REFERENCED_ROW_2
	3819: {}, // ER_CHECK_CONSTRAINT_VIOLATED
}

// ConstraintViolation reports whether err is a constraint violation raised
// by one of the supported drivers, together with the violated constraint
// name when the driver exposes it.
func ConstraintViolation(err error) (name string, ok bool) {
	var pqe *pq.Error
	if errors.As(err, &pqe) {
		// Class 23 is "integrity constraint violation".
		if pqe.Code.Class() == "23" {
			return pqe.Constraint, true
		}
		return "", false
	}
	var mye *mysql.MySQLError
	if errors.As(err, &mye) {
		if _, ok := mysqlConstraintCodes[mye.Number]; ok {
			return "", true
		}
		return "", false
	}
	var sqe *sqlite.Error
	if errors.As(err, &sqe) {
		// Primary result code 19 (SQLITE_CONSTRAINT) covers all extended
		// constraint codes.
		if sqe.Code()&0xff == sqlitelib.SQLITE_CONSTRAINT {
			return "", true
		}
	}
	return "", false
}

// IsSerializationFailure reports whether err is a serialization or lock
// conflict that the database asks the caller to retry. The core never
// retries by itself; this is a convenience for callers that do.
func IsSerializationFailure(err error) bool {
	var pqe *pq.Error
	if errors.As(err, &pqe) {
		return pqe.Code == "40001" || pqe.Code == "40P01"
	}
	var mye *mysql.MySQLError
	if errors.As(err, &mye) {
		return mye.Number == 1213 || mye.Number == 1205
	}
	var sqe *sqlite.Error
	if errors.As(err, &sqe) {
		return sqe.Code()&0xff == sqlitelib.SQLITE_BUSY
	}
	return false
}
