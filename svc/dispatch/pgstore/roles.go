package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/notifykit/pkg/channel"
)

// DefaultRoleQuery selects the addresses on a channel of every user that
// holds a role. Parameters are $1 role and $2 channel.
const DefaultRoleQuery = `
	SELECT DISTINCT c.address
	FROM user_roles r
	JOIN user_contacts c ON c.user_id = r.user_id
	WHERE r.role = $1 AND c.channel = $2 AND c.address <> ''
	ORDER BY c.address`

// RoleOracle answers role lookups with a SQL query.
type RoleOracle struct {
	db    DB
	query string
}

// RoleOracleOption configures a RoleOracle.
type RoleOracleOption func(*RoleOracle)

// WithRoleQuery replaces DefaultRoleQuery, for schemas owned by an
// external auth system. The query takes $1 role and $2 channel and returns
// one text column.
func WithRoleQuery(query string) RoleOracleOption {
	return func(o *RoleOracle) {
		if query != "" {
			o.query = query
		}
	}
}

func NewRoleOracle(db DB, opts ...RoleOracleOption) *RoleOracle {
	o := &RoleOracle{db: db, query: DefaultRoleQuery}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// AddressesForRole implements dispatch.RoleOracle.
func (o *RoleOracle) AddressesForRole(ctx context.Context, role string, ch channel.Channel) ([]string, error) {
	rows, err := o.db.Query(ctx, o.query, role, string(ch))
	if err != nil {
		return nil, fmt.Errorf("query %s addresses for role %q: %w", ch, role, err)
	}
	addrs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("query %s addresses for role %q: %w", ch, role, err)
	}
	return addrs, nil
}
