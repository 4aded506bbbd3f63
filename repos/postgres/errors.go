package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/automate/orgs-server/repos"
	"github.com/jackc/pgerrcode"
	"github.com/uptrace/bun/driver/pgdriver"
)

// mapError maps PostgreSQL failures to the repos sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repos.ErrNotFound
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		code := pgErr.Field('C')
		switch {
		case code == pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %s", repos.ErrDuplicate, pgErr.Field('n'))
		case code == pgerrcode.UndefinedTable:
			return fmt.Errorf("%w: %s", repos.ErrNotFound, pgErr.Field('M'))
		case pgerrcode.IsConnectionException(code),
			code == pgerrcode.CannotConnectNow,
			code == pgerrcode.AdminShutdown,
			code == pgerrcode.CrashShutdown,
			code == pgerrcode.TooManyConnections:
			return fmt.Errorf("%w: %v", repos.ErrUnavailable, err)
		default:
			return fmt.Errorf("postgres error [%s]: %w", code, err)
		}
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", repos.ErrUnavailable, err)
	}

	return err
}
