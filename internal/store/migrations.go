// ABOUTME: Ordered migration steps for session files
// ABOUTME: Each step moves the schema from version N to N+1 inside one transaction

package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// migration moves a store from version from to from+1
type migration struct {
	from  int
	name  string
	apply func(ctx context.Context, tx *sqlx.Tx) error
}

// migrations is indexed by source version; adding a step means appending here
// and bumping LatestVersion.
var migrations = []migration{
	{
		// Peer IDs changed representation; cached rows are no longer valid
		from: 1,
		name: "reset_peers",
		apply: func(ctx context.Context, tx *sqlx.Tx) error {
			_, err := tx.ExecContext(ctx, `DELETE FROM peers`)
			return err
		},
	},
	{
		from: 2,
		name: "sessions_add_api_id",
		apply: func(ctx context.Context, tx *sqlx.Tx) error {
			_, err := tx.ExecContext(ctx, `ALTER TABLE sessions ADD api_id INTEGER`)
			return err
		},
	},
	{
		from: 3,
		name: "create_usernames",
		apply: func(ctx context.Context, tx *sqlx.Tx) error {
			_, err := tx.ExecContext(ctx, usernamesSchema)
			return err
		},
	},
}

// findMigration returns the step starting at version from
func findMigration(steps []migration, from int) (migration, bool) {
	for _, m := range steps {
		if m.from == from {
			return m, true
		}
	}
	return migration{}, false
}
