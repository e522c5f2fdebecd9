package repos

import (
	"database/sql"
	"errors"
	"fmt"

	"detailhub/internal/domain"
)

// wrap maps driver errors onto the domain taxonomy.
func wrap(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return domain.NotFound(what)
	case isUniqueViolation(err):
		return &domain.Error{Kind: domain.KindConflict, Msg: what + " already exists", Err: err}
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return domain.NotFound(what)
	}
	return nil
}
